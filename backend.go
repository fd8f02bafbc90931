package csvmodel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Backend is a schema technology able to check a single record.
//
// Check returns the record's violations as Issues (an empty result means the
// record is valid). Any other error is permanent and aborts the whole file.
type Backend interface {
	Name() string
	Check(ctx context.Context, rec Record) (Issues, error)
}

// Factory constructs a Backend from its configuration.
type Factory func(cfg BackendConfig) (Backend, error)

// Registry maps lowercase backend names to factories. It is populated
// explicitly at start-up and is safe for concurrent lookups.
type Registry struct {
	factories map[string]Factory

	mu sync.RWMutex
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a factory under name (case-insensitive). Registering the same
// name twice replaces the earlier factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.factories[strings.ToLower(name)]; ok {
		return f, nil
	}
	msg := fmt.Sprintf("no validator by the name %q", name)
	if s := r.suggest(strings.ToLower(name)); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return nil, &Error{Kind: ErrConfiguration, Op: "resolve backend", Err: errors.New(msg)}
}

// New resolves name and constructs the backend.
func (r *Registry) New(name string, cfg BackendConfig) (Backend, error) {
	f, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return f(cfg)
}

// Names lists registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// suggest returns the closest registered name within a small edit distance.
// Callers hold the read lock.
func (r *Registry) suggest(name string) string {
	const maxDistance = 3
	best, bestDist := "", maxDistance+1
	for n := range r.factories {
		d := levenshtein.ComputeDistance(name, n)
		if d < bestDist || (d == bestDist && n < best) {
			best, bestDist = n, d
		}
	}
	return best
}
