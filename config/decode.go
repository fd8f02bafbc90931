package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	csvmodel "github.com/reoring/csvmodel"
)

// Format selects the config document syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatHCL
)

// FormatForPath picks HCL for ".hcl" files and YAML for everything else.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return FormatHCL
	}
	return FormatYAML
}

const filesKey = "files"

func parseYAML(data []byte, filename string) (*Config, error) {
	c := Default()
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configErr(filename, err)
	}
	if len(doc.Content) == 0 {
		return c, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, configErr(filename, fmt.Errorf("line %d: top level must be a mapping", root.Line))
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Value != filesKey {
			if err := c.Defaults.setYAML(k, v); err != nil {
				return nil, configErr(filename, err)
			}
			continue
		}
		if v.Kind != yaml.MappingNode {
			return nil, configErr(filename, fmt.Errorf("line %d: %s must be a mapping", v.Line, filesKey))
		}
		for j := 0; j+1 < len(v.Content); j += 2 {
			name, body := v.Content[j], v.Content[j+1]
			if body.Kind != yaml.MappingNode {
				return nil, configErr(filename, fmt.Errorf("line %d: section %q must be a mapping", body.Line, name.Value))
			}
			var s Section
			for n := 0; n+1 < len(body.Content); n += 2 {
				if err := s.setYAML(body.Content[n], body.Content[n+1]); err != nil {
					return nil, configErr(filename, fmt.Errorf("section %q: %w", name.Value, err))
				}
			}
			c.Files[name.Value] = s
		}
	}
	return c, nil
}

// setYAML assigns one key. A schema given as a mapping is stored as an
// inline JSON document.
func (s *Section) setYAML(k, v *yaml.Node) error {
	dst := s.ref(k.Value)
	if dst == nil {
		return fmt.Errorf("line %d: unknown key %q", k.Line, k.Value)
	}
	switch {
	case v.Kind == yaml.ScalarNode:
		val := v.Value
		*dst = &val
	case k.Value == "schema" && v.Kind == yaml.MappingNode:
		var doc map[string]any
		if err := v.Decode(&doc); err != nil {
			return fmt.Errorf("line %d: schema: %w", v.Line, err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("line %d: schema: %w", v.Line, err)
		}
		val := csvmodel.SchemaSpec{Kind: csvmodel.SchemaLiteral, Details: string(b)}.String()
		*dst = &val
	default:
		return fmt.Errorf("line %d: %s must be a scalar", v.Line, k.Value)
	}
	return nil
}

type hclDocument struct {
	Files  []hclFileBlock `hcl:"file,block"`
	Remain hcl.Body       `hcl:",remain"`
}

type hclFileBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

func parseHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, configErr(filename, diags)
	}
	var doc hclDocument
	if diags := gohcl.DecodeBody(f.Body, nil, &doc); diags.HasErrors() {
		return nil, configErr(filename, diags)
	}
	c := Default()
	if diags := gohcl.DecodeBody(doc.Remain, nil, &c.Defaults); diags.HasErrors() {
		return nil, configErr(filename, diags)
	}
	for _, b := range doc.Files {
		if _, dup := c.Files[b.Name]; dup {
			return nil, configErr(filename, fmt.Errorf("file %q declared twice", b.Name))
		}
		var s Section
		if diags := gohcl.DecodeBody(b.Body, nil, &s); diags.HasErrors() {
			return nil, configErr(filename, diags)
		}
		c.Files[b.Name] = s
	}
	return c, nil
}

func configErr(filename string, err error) error {
	return &csvmodel.Error{Kind: csvmodel.ErrConfiguration, Op: "parse config", Source: filename, Err: err}
}
