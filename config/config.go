// Package config resolves per-file validation Settings from a configuration
// file: a defaults section plus optional per-file overrides.
//
// YAML layout:
//
//	validator: jsonschema
//	schema: file:schema.json
//	line-limit: inf
//	files:
//	  orders.csv:
//	    validator: model
//	    schema: module:shop:Order
//	    separator: ";"
//
// HCL layout:
//
//	validator = "jsonschema"
//	schema    = "file:schema.json"
//
//	file "orders.csv" {
//	  validator = "model"
//	  schema    = "module:shop:Order"
//	  separator = ";"
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	csvmodel "github.com/reoring/csvmodel"
)

// Built-in defaults, used for keys no section sets.
const (
	DefaultValidator = "jsonschema"
	DefaultSchema    = `{"type": "object"}`
	DefaultSeparator = ","
	DefaultLineLimit = "infinite"
)

// Candidates lists the file names Discover looks for, in order.
var Candidates = []string{
	".csvmodel.yaml",
	".csvmodel.yml",
	".csvmodel.hcl",
	"csvmodel.yaml",
	"csvmodel.hcl",
}

// Section holds the keys one section may set. A nil field is unset and falls
// through to the next layer.
type Section struct {
	Validator      *string `hcl:"validator,optional"`
	Schema         *string `hcl:"schema,optional"`
	Separator      *string `hcl:"separator,optional"`
	LineLimit      *string `hcl:"line-limit,optional"`
	MissingColumns *string `hcl:"missing-columns,optional"`
}

// ref returns the field addressed by a config key, or nil for unknown keys.
func (s *Section) ref(key string) **string {
	switch key {
	case "validator":
		return &s.Validator
	case "schema":
		return &s.Schema
	case "separator":
		return &s.Separator
	case "line-limit":
		return &s.LineLimit
	case "missing-columns":
		return &s.MissingColumns
	}
	return nil
}

// merge overlays the keys set in o onto s.
func (s *Section) merge(o Section) {
	for _, key := range []string{"validator", "schema", "separator", "line-limit", "missing-columns"} {
		if v := *o.ref(key); v != nil {
			*s.ref(key) = v
		}
	}
}

// Config is a parsed configuration file.
type Config struct {
	Path     string             // File the config was read from; empty for built-in defaults.
	Defaults Section            // Applies to every file.
	Files    map[string]Section // Per-file overrides keyed by file name.
}

// Default returns a Config holding only the built-in defaults.
func Default() *Config {
	return &Config{Files: map[string]Section{}}
}

// Discover returns the config file to use: explicit if non-empty, else the
// first of Candidates present in dir. It returns "" when there is none.
func Discover(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range Candidates {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads the config file at path; an empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &csvmodel.Error{Kind: csvmodel.ErrIO, Op: "read config", Source: path, Err: err}
	}
	c, err := Parse(data, FormatForPath(path), path)
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}

// Parse decodes a config document. filename is used in error messages.
func Parse(data []byte, f Format, filename string) (*Config, error) {
	switch f {
	case FormatHCL:
		return parseHCL(data, filename)
	default:
		return parseYAML(data, filename)
	}
}

// AddDefaults overlays s onto the defaults section. Per-file sections still
// take precedence.
func (c *Config) AddDefaults(s Section) {
	c.Defaults.merge(s)
}

// Section returns the merged section for filename: built-in defaults, then
// the defaults section, then the file's own section.
func (c *Config) Section(filename string) Section {
	s := Section{
		Validator:      ptr(DefaultValidator),
		Schema:         ptr(DefaultSchema),
		Separator:      ptr(DefaultSeparator),
		LineLimit:      ptr(DefaultLineLimit),
		MissingColumns: ptr(csvmodel.MissingPerColumn.String()),
	}
	s.merge(c.Defaults)
	if fs, ok := c.fileSection(filename); ok {
		s.merge(fs)
	}
	return s
}

// fileSection matches filename as given, cleaned, and relative to the
// directory of the config file.
func (c *Config) fileSection(filename string) (Section, bool) {
	if fs, ok := c.Files[filename]; ok {
		return fs, true
	}
	if fs, ok := c.Files[filepath.Clean(filename)]; ok {
		return fs, true
	}
	if c.Path == "" {
		return Section{}, false
	}
	base, err1 := filepath.Abs(filepath.Dir(c.Path))
	target, err2 := filepath.Abs(filename)
	if err1 != nil || err2 != nil {
		return Section{}, false
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return Section{}, false
	}
	fs, ok := c.Files[filepath.ToSlash(rel)]
	return fs, ok
}

// Settings resolves and validates the settings for filename.
func (c *Config) Settings(filename string) (csvmodel.Settings, error) {
	s := c.Section(filename)
	limit, err := ParseLineLimit(*s.LineLimit)
	if err != nil {
		return csvmodel.Settings{}, withSource(err, filename)
	}
	missing, err := csvmodel.ParseMissingPolicy(strings.ToLower(strings.TrimSpace(*s.MissingColumns)))
	if err != nil {
		return csvmodel.Settings{}, withSource(err, filename)
	}
	if *s.Separator == "" {
		return csvmodel.Settings{}, csvmodel.Errorf(csvmodel.ErrConfiguration, "resolve settings", filename, "separator must not be empty")
	}
	validator := strings.TrimSpace(*s.Validator)
	if validator == "" {
		return csvmodel.Settings{}, csvmodel.Errorf(csvmodel.ErrConfiguration, "resolve settings", filename, "validator must not be empty")
	}
	return csvmodel.Settings{
		Validator:      validator,
		Schema:         csvmodel.ParseSchemaSpec(*s.Schema),
		Separator:      *s.Separator,
		LineLimit:      limit,
		MissingColumns: missing,
	}, nil
}

// ParseLineLimit accepts a positive integer, or any value starting with
// "inf" (case-insensitive) for csvmodel.Unlimited.
func ParseLineLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "inf") {
		return csvmodel.Unlimited, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, csvmodel.Errorf(csvmodel.ErrConfiguration, "parse line-limit", s, "want a positive integer or \"infinite\"")
	}
	if n <= 0 {
		return 0, csvmodel.Errorf(csvmodel.ErrConfiguration, "parse line-limit", s, "must be positive")
	}
	return n, nil
}

func withSource(err error, source string) error {
	var e *csvmodel.Error
	if errors.As(err, &e) && e.Source != "" {
		return &csvmodel.Error{Kind: e.Kind, Op: e.Op, Source: source, Err: fmt.Errorf("%q: %w", e.Source, e.Err)}
	}
	return err
}

func ptr(s string) *string { return &s }
