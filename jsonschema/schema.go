package jsonschema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	csvmodel "github.com/reoring/csvmodel"
)

// scalarTypes are the property types a flat record column can carry.
var scalarTypes = []string{"string", "number", "integer", "boolean", "null"}

// Schema is the record-shaped schema accepted by the structural backend:
// an object with scalar-typed properties and an optional required list.
// The raw document is kept for the constraint checker.
type Schema struct {
	// Object
	Properties map[string]*Property
	Required   []string

	raw map[string]any
}

// Property describes one column. Keywords other than type are read lazily
// from the raw document when messages are rendered.
type Property struct {
	Name  string
	Types []string // declared on the property itself

	// valueTypes adds the types reachable through anyOf, oneOf, allOf and
	// local $ref targets. Values are coerced against these.
	valueTypes []string

	raw  map[string]any
	root map[string]any
}

// Has reports whether the property declares t among its types.
func (p *Property) Has(t string) bool { return slices.Contains(p.Types, t) }

// Keyword returns the raw value of a JSON Schema keyword on the property,
// following local $ref chains when the property itself does not set it.
func (p *Property) Keyword(name string) (any, bool) {
	m := p.raw
	seen := map[string]bool{}
	for {
		if v, ok := m[name]; ok {
			return v, true
		}
		ref, _ := m["$ref"].(string)
		if ref == "" || seen[ref] {
			return nil, false
		}
		seen[ref] = true
		target, err := resolveRef(p.root, ref)
		next, ok := target.(map[string]any)
		if err != nil || !ok {
			return nil, false
		}
		m = next
	}
}

// Compile checks that a decoded document is a flat object schema and indexes
// its properties. Nested object or array columns fail with
// csvmodel.ErrSchemaTooDeep.
func Compile(doc map[string]any) (*Schema, error) {
	if doc == nil {
		return nil, schemaErr("schema document is empty")
	}
	if t, ok := doc["type"]; ok {
		if s, _ := t.(string); s != "object" {
			return nil, schemaErr("root type must be \"object\", got %v", t)
		}
	}
	s := &Schema{Properties: map[string]*Property{}, raw: doc}

	if rawProps, ok := doc["properties"]; ok {
		props, ok := rawProps.(map[string]any)
		if !ok {
			return nil, schemaErr("properties must be an object, got %T", rawProps)
		}
		for name, rp := range props {
			p, err := compileProperty(name, rp, doc)
			if err != nil {
				return nil, err
			}
			s.Properties[name] = p
		}
	}

	if rawReq, ok := doc["required"]; ok {
		list, ok := rawReq.([]any)
		if !ok {
			return nil, schemaErr("required must be a list, got %T", rawReq)
		}
		for _, r := range list {
			name, ok := r.(string)
			if !ok {
				return nil, schemaErr("required entries must be strings, got %T", r)
			}
			s.Required = append(s.Required, name)
		}
	}
	return s, nil
}

func compileProperty(name string, v any, root map[string]any) (*Property, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, schemaErr("property %q must be an object, got %T", name, v)
	}
	p := &Property{Name: name, raw: m, root: root}
	types, err := typeList(name, m["type"])
	if err != nil {
		return nil, err
	}
	p.Types = types
	if err := p.scan(m, map[string]bool{}, true); err != nil {
		return nil, err
	}
	return p, nil
}

func typeList(name string, v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, schemaErr("property %q: type entries must be strings", name)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, schemaErr("property %q: type must be a string or list, got %T", name, t)
	}
}

// Keywords that only make sense for object or array values.
var nestedKeywords = []string{
	"properties", "additionalProperties", "patternProperties",
	"items", "additionalItems", "contains",
}

// checkFlat rejects columns that would need a nested value.
func checkFlat(p *Property) error {
	return p.scan(p.raw, map[string]bool{}, false)
}

// scan walks a column subschema, following combinators and local references,
// and fails on any object or array shape. With collect set, scalar types that
// a value may take are recorded in valueTypes.
func (p *Property) scan(schema any, seen map[string]bool, collect bool) error {
	m, ok := schema.(map[string]any)
	if !ok {
		if _, isBool := schema.(bool); isBool {
			return nil
		}
		return schemaErr("property %q: subschema must be an object, got %T", p.Name, schema)
	}

	types, err := typeList(p.Name, m["type"])
	if err != nil {
		return err
	}
	for _, t := range types {
		if t == "object" || t == "array" {
			return tooDeep(p.Name, t)
		}
		if !slices.Contains(scalarTypes, t) {
			return schemaErr("property %q: unsupported type %q", p.Name, t)
		}
		if collect && !slices.Contains(p.valueTypes, t) {
			p.valueTypes = append(p.valueTypes, t)
		}
	}
	for _, kw := range nestedKeywords {
		if _, ok := m[kw]; ok {
			return tooDeep(p.Name, kw)
		}
	}

	if rawRef, ok := m["$ref"]; ok {
		ref, ok := rawRef.(string)
		if !ok {
			return schemaErr("property %q: $ref must be a string, got %T", p.Name, rawRef)
		}
		if !seen[ref] {
			seen[ref] = true
			target, err := resolveRef(p.root, ref)
			if err != nil {
				return schemaErr("property %q: %v", p.Name, err)
			}
			if err := p.scan(target, seen, collect); err != nil {
				return err
			}
		}
	}
	for _, kw := range []string{"anyOf", "oneOf", "allOf"} {
		raw, ok := m[kw]
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return schemaErr("property %q: %s must be a list, got %T", p.Name, kw, raw)
		}
		for _, sub := range list {
			if err := p.scan(sub, seen, collect); err != nil {
				return err
			}
		}
	}
	// These never widen what a value may be.
	for _, kw := range []string{"not", "if", "then", "else"} {
		if sub, ok := m[kw]; ok {
			if err := p.scan(sub, seen, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveRef follows a JSON pointer within the schema document. Only local
// references ("#" or "#/...") are supported.
func resolveRef(root map[string]any, ref string) (any, error) {
	if ref == "#" {
		return root, nil
	}
	if !strings.HasPrefix(ref, "#/") {
		return nil, fmt.Errorf("$ref %q: only local references are supported", ref)
	}
	var cur any = root
	for _, tok := range strings.Split(ref[2:], "/") {
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[tok]
			if !ok {
				return nil, fmt.Errorf("$ref %q: %q not found", ref, tok)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("$ref %q: bad index %q", ref, tok)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("$ref %q: cannot descend into %T", ref, cur)
		}
	}
	return cur, nil
}

func tooDeep(column, what string) error {
	return &csvmodel.Error{
		Kind:   csvmodel.ErrSchemaTooDeep,
		Op:     "compile schema",
		Source: column,
		Err:    fmt.Errorf("column declares %s: %w", what, csvmodel.ErrSchemaTooDeep),
	}
}

func schemaErr(format string, args ...any) error {
	return csvmodel.Errorf(csvmodel.ErrSchema, "compile schema", "", format, args...)
}
