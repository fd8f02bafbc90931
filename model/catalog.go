package model

import (
	"reflect"
	"sort"
	"sync"

	csvmodel "github.com/reoring/csvmodel"
)

// Catalog resolves "module:<module>:<Symbol>" specifications to models
// registered by the program at start-up.
type Catalog struct {
	mu     sync.RWMutex
	models map[string]map[string]*Model
}

// Default is the catalog used when none is supplied.
var Default = NewCatalog()

func NewCatalog() *Catalog {
	return &Catalog{models: map[string]map[string]*Model{}}
}

// Register compiles prototype and stores it under module and symbol.
func (c *Catalog) Register(module, symbol string, prototype any) error {
	m, err := Compile(prototype)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	syms, ok := c.models[module]
	if !ok {
		syms = map[string]*Model{}
		c.models[module] = syms
	}
	syms[symbol] = m
	return nil
}

// MustRegister is like Register but panics on error.
func (c *Catalog) MustRegister(module, symbol string, prototype any) {
	if err := c.Register(module, symbol, prototype); err != nil {
		panic(err)
	}
}

// RegisterType registers T under module with its type name as symbol.
func RegisterType[T any](c *Catalog, module string) error {
	t := reflect.TypeFor[T]()
	return c.Register(module, t.Name(), t)
}

// Lookup returns the model registered under module and symbol.
func (c *Catalog) Lookup(module, symbol string) (*Model, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	syms, ok := c.models[module]
	if !ok {
		return nil, csvmodel.Errorf(csvmodel.ErrSchemaNotFound, "load model", module+":"+symbol, "module %q is not registered", module)
	}
	m, ok := syms[symbol]
	if !ok {
		return nil, csvmodel.Errorf(csvmodel.ErrSchemaNotFound, "load model", module+":"+symbol, "no model %q in module %q", symbol, module)
	}
	return m, nil
}

// Modules lists registered module names in sorted order.
func (c *Catalog) Modules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.models))
	for k := range c.models {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
