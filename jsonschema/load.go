package jsonschema

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	csvmodel "github.com/reoring/csvmodel"
)

// Format selects the document syntax.
type Format int

const (
	FormatAuto Format = iota // JSON when the text starts with '{', YAML otherwise.
	FormatJSON
	FormatYAML
)

// FormatForPath picks the syntax from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// Decode parses a schema document. JSON numbers are kept as json.Number so
// limits are echoed back exactly as written.
func Decode(data []byte, f Format) (map[string]any, error) {
	if f == FormatAuto {
		f = FormatYAML
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			f = FormatJSON
		}
	}
	switch f {
	case FormatJSON:
		r := bytes.NewReader(data)
		dec := json.NewDecoder(r)
		dec.UseNumber()
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			return nil, csvmodel.Errorf(csvmodel.ErrSchema, "parse schema", "", "invalid JSON: %v", err)
		}
		rest, err := io.ReadAll(io.MultiReader(dec.Buffered(), r))
		if err != nil || len(bytes.TrimSpace(rest)) > 0 {
			return nil, csvmodel.Errorf(csvmodel.ErrSchema, "parse schema", "", "invalid JSON: unexpected data after the schema document")
		}
		return doc, nil
	default:
		var node any
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, csvmodel.Errorf(csvmodel.ErrSchema, "parse schema", "", "invalid YAML: %v", err)
		}
		doc := yamlAnyToStringMap(node)
		if doc == nil {
			return nil, csvmodel.Errorf(csvmodel.ErrSchema, "parse schema", "", "document is not a mapping")
		}
		return doc, nil
	}
}

// Load resolves a literal or file schema specification into a compiled Schema.
func Load(spec csvmodel.SchemaSpec) (*Schema, error) {
	var (
		data   []byte
		format = FormatAuto
	)
	switch spec.Kind {
	case csvmodel.SchemaLiteral:
		data = []byte(spec.Details)
	case csvmodel.SchemaFile:
		b, err := os.ReadFile(spec.Details)
		if err != nil {
			kind := csvmodel.ErrIO
			if errors.Is(err, fs.ErrNotExist) {
				kind = csvmodel.ErrSchemaNotFound
			}
			return nil, &csvmodel.Error{Kind: kind, Op: "load schema", Source: spec.Details, Err: err}
		}
		data = b
		format = FormatForPath(spec.Details)
	case csvmodel.SchemaModuleRef:
		return nil, csvmodel.Errorf(csvmodel.ErrConfiguration, "load schema", spec.String(),
			"structural backend cannot load schema from code")
	default:
		return nil, csvmodel.Errorf(csvmodel.ErrConfiguration, "load schema", spec.String(), "unknown schema kind")
	}

	doc, err := Decode(data, format)
	if err != nil {
		if e, ok := err.(*csvmodel.Error); ok && spec.Kind == csvmodel.SchemaFile {
			e.Source = spec.Details
		}
		return nil, err
	}
	return Compile(doc)
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively. Non-map roots return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}
