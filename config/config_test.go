package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	csvmodel "github.com/reoring/csvmodel"
	"github.com/reoring/csvmodel/config"
)

func TestDefaults(t *testing.T) {
	s, err := config.Default().Settings("any_file")
	require.NoError(t, err)
	assert.Equal(t, "jsonschema", s.Validator)
	assert.Equal(t, csvmodel.SchemaSpec{Kind: csvmodel.SchemaLiteral, Details: `{"type": "object"}`}, s.Schema)
	assert.Equal(t, ",", s.Separator)
	assert.Equal(t, csvmodel.Unlimited, s.LineLimit)
	assert.Equal(t, csvmodel.MissingPerColumn, s.MissingColumns)
}

func TestParseYAML_FileSections(t *testing.T) {
	doc := `
schema: file:schema.json
files:
  my_special_file:
    validator: model
    schema: file:rows.so:MyModel
    separator: ";"
    line-limit: 100
    missing-columns: per-property
`
	c, err := config.Parse([]byte(doc), config.FormatYAML, "test.yaml")
	require.NoError(t, err)

	s, err := c.Settings("any_file")
	require.NoError(t, err)
	assert.Equal(t, csvmodel.SchemaSpec{Kind: csvmodel.SchemaFile, Details: "schema.json"}, s.Schema)
	assert.Equal(t, "jsonschema", s.Validator)
	assert.Equal(t, ",", s.Separator)

	s, err = c.Settings("my_special_file")
	require.NoError(t, err)
	assert.Equal(t, csvmodel.SchemaSpec{Kind: csvmodel.SchemaFile, Details: "rows.so:MyModel"}, s.Schema)
	assert.Equal(t, "model", s.Validator)
	assert.Equal(t, ";", s.Separator)
	assert.Equal(t, 100, s.LineLimit)

	s, err = c.Settings("./my_special_file")
	require.NoError(t, err)
	assert.Equal(t, "model", s.Validator, "paths are matched after cleaning")
}

func TestParseYAML_InlineSchemaMapping(t *testing.T) {
	doc := `
schema:
  type: object
  properties:
    a: {type: number}
  required: [a]
`
	c, err := config.Parse([]byte(doc), config.FormatYAML, "test.yaml")
	require.NoError(t, err)
	s, err := c.Settings("f.csv")
	require.NoError(t, err)
	assert.Equal(t, csvmodel.SchemaLiteral, s.Schema.Kind)
	assert.JSONEq(t, `{"type": "object", "properties": {"a": {"type": "number"}}, "required": ["a"]}`, s.Schema.Details)
}

func TestParseYAML_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "line_limit: 10\n",
		"files not map":   "files: [a]\n",
		"section not map": "files:\n  a.csv: 1\n",
		"list value":      "separator: [a]\n",
		"not a mapping":   "- a\n",
		"bad syntax":      "a: [\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc), config.FormatYAML, "bad.yaml")
			require.Error(t, err)
			assert.ErrorIs(t, err, csvmodel.ErrConfiguration)
		})
	}
}

func TestParseHCL(t *testing.T) {
	doc := `
validator  = "jsonschema"
schema     = "file:schema.yaml"
line-limit = 50

file "orders.csv" {
  validator       = "model"
  schema          = "module:shop:Order"
  separator       = "|"
  line-limit      = "inf"
}

file "counts.csv" {
  missing-columns = "count"
}
`
	c, err := config.Parse([]byte(doc), config.FormatHCL, "csvmodel.hcl")
	require.NoError(t, err)

	s, err := c.Settings("plain.csv")
	require.NoError(t, err)
	assert.Equal(t, 50, s.LineLimit)
	assert.Equal(t, csvmodel.SchemaFile, s.Schema.Kind)

	s, err = c.Settings("orders.csv")
	require.NoError(t, err)
	assert.Equal(t, "model", s.Validator)
	assert.Equal(t, csvmodel.SchemaSpec{Kind: csvmodel.SchemaModuleRef, Details: "shop:Order"}, s.Schema)
	assert.Equal(t, "|", s.Separator)
	assert.Equal(t, csvmodel.Unlimited, s.LineLimit)

	s, err = c.Settings("counts.csv")
	require.NoError(t, err)
	assert.Equal(t, csvmodel.MissingCount, s.MissingColumns)
	assert.Equal(t, 50, s.LineLimit)
}

func TestParseHCL_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown attribute": `sepparator = ";"`,
		"duplicate file":    "file \"a\" {}\nfile \"a\" {}\n",
		"syntax":            `validator = `,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc), config.FormatHCL, "bad.hcl")
			assert.ErrorIs(t, err, csvmodel.ErrConfiguration)
		})
	}
}

func TestParseLineLimit(t *testing.T) {
	for _, in := range []string{"inf", "infinite", "Infinity", " INF "} {
		n, err := config.ParseLineLimit(in)
		require.NoError(t, err, in)
		assert.Equal(t, csvmodel.Unlimited, n, in)
	}
	n, err := config.ParseLineLimit("25")
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	for _, in := range []string{"0", "-1", "ten", ""} {
		_, err := config.ParseLineLimit(in)
		assert.ErrorIs(t, err, csvmodel.ErrConfiguration, in)
	}
}

func TestSettings_InvalidValues(t *testing.T) {
	c, err := config.Parse([]byte("files:\n  a.csv:\n    line-limit: 0\n  b.csv:\n    missing-columns: sometimes\n  c.csv:\n    separator: ''\n"), config.FormatYAML, "x.yaml")
	require.NoError(t, err)
	for _, f := range []string{"a.csv", "b.csv", "c.csv"} {
		_, err := c.Settings(f)
		assert.ErrorIs(t, err, csvmodel.ErrConfiguration, f)
		assert.Contains(t, err.Error(), f)
	}
}

func TestAddDefaults(t *testing.T) {
	c, err := config.Parse([]byte("files:\n  special.csv:\n    schema: inline:{}\n"), config.FormatYAML, "x.yaml")
	require.NoError(t, err)
	validator, schema := "jsonschema", "file:override.json"
	c.AddDefaults(config.Section{Validator: &validator, Schema: &schema})

	s, err := c.Settings("other.csv")
	require.NoError(t, err)
	assert.Equal(t, csvmodel.SchemaSpec{Kind: csvmodel.SchemaFile, Details: "override.json"}, s.Schema)

	s, err = c.Settings("special.csv")
	require.NoError(t, err)
	assert.Equal(t, csvmodel.SchemaSpec{Kind: csvmodel.SchemaLiteral, Details: "{}"}, s.Schema, "file sections win over added defaults")
}

func TestDiscoverAndLoad(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", config.Discover("", dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "csvmodel.hcl"), []byte(`separator = ";"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".csvmodel.yml"), []byte(`separator: "|"`), 0o644))

	path := config.Discover("", dir)
	assert.Equal(t, filepath.Join(dir, ".csvmodel.yml"), path)
	assert.Equal(t, "explicit.yaml", config.Discover("explicit.yaml", dir))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.Path)
	s, err := c.Settings("x.csv")
	require.NoError(t, err)
	assert.Equal(t, "|", s.Separator)

	c, err = config.Load(filepath.Join(dir, "csvmodel.hcl"))
	require.NoError(t, err)
	s, err = c.Settings("x.csv")
	require.NoError(t, err)
	assert.Equal(t, ";", s.Separator)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, csvmodel.ErrIO)

	c, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "", c.Path)
}

func TestFileSectionRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "csvmodel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("files:\n  sub/data.csv:\n    separator: \"\\t\"\n"), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	s, err := c.Settings(filepath.Join(dir, "sub", "data.csv"))
	require.NoError(t, err)
	assert.Equal(t, "\t", s.Separator)

	s, err = c.Settings(filepath.Join(dir, "data.csv"))
	require.NoError(t, err)
	assert.Equal(t, ",", s.Separator)
}
