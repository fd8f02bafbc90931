package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/reoring/csvmodel/backends"
	"github.com/reoring/csvmodel/cli"
	"github.com/reoring/csvmodel/model"
)

type Order struct {
	ID    int     `csv:"id"`
	Price float64 `csv:"price"`
}

type harness struct {
	dir            string
	stdout, stderr bytes.Buffer
	catalog        *model.Catalog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir(), catalog: model.NewCatalog()}
	require.NoError(t, model.RegisterType[Order](h.catalog, "shop"))
	return h
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (h *harness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	cmd := cli.Command(cli.Options{
		Registry: backends.New(h.catalog),
		Stdout:   &h.stdout,
		Stderr:   &h.stderr,
		Dir:      h.dir,
	})
	return cmd.Run(context.Background(), append([]string{"csvmodel"}, args...))
}

const numberSchema = `{"type": "object", "properties": {"a": {"type": "number"}}}`

func TestRun_JSONSchemaFlag(t *testing.T) {
	h := newHarness(t)
	schema := h.write(t, "schema.json", numberSchema)
	bad := h.write(t, "bad.csv", "a,b\na,1\n")
	good := h.write(t, "good.csv", "a,b\n1.5,x\n")

	err := h.run("--json-schema", schema, good, bad)
	assert.ErrorIs(t, err, cli.ErrFailed)
	assert.Equal(t, bad+":2: 'a' is not of type 'number'\n", h.stdout.String())

	err = h.run("-j", schema, good)
	assert.NoError(t, err)
	assert.Empty(t, h.stdout.String())
}

func TestRun_EveryFileIsReported(t *testing.T) {
	h := newHarness(t)
	schema := h.write(t, "schema.json", numberSchema)
	first := h.write(t, "first.csv", "a\nx\ny\n")
	missing := filepath.Join(h.dir, "missing.csv")
	second := h.write(t, "second.csv", "a\nz\n")

	err := h.run("--json-schema", schema, "--jobs", "3", first, missing, second)
	assert.ErrorIs(t, err, cli.ErrFailed)
	want := strings.Join([]string{
		first + ":2: 'x' is not of type 'number'",
		first + ":3: 'y' is not of type 'number'",
		second + ":2: 'z' is not of type 'number'",
	}, "\n") + "\n"
	assert.Equal(t, want, h.stdout.String())
	assert.Contains(t, h.stderr.String(), "validation failed")
	assert.Contains(t, h.stderr.String(), missing)
}

func TestRun_ConfigDiscovery(t *testing.T) {
	h := newHarness(t)
	h.write(t, ".csvmodel.yaml", `
validator: model
schema: module:shop:Order
files:
  semi.csv:
    separator: ";"
`)
	comma := h.write(t, "comma.csv", "id,price\n1,2.5\nx,3\n")
	semi := h.write(t, "semi.csv", "id;price\n2;abc\n")

	err := h.run(comma, semi)
	assert.ErrorIs(t, err, cli.ErrFailed)
	assert.Equal(t, comma+":3: Issue in column id: value is not a valid integer\n"+
		semi+":2: Issue in column price: value is not a valid float\n", h.stdout.String())
}

func TestRun_JSONOutput(t *testing.T) {
	h := newHarness(t)
	schema := h.write(t, "schema.json", numberSchema)
	bad := h.write(t, "bad.csv", "a\nq\n")
	good := h.write(t, "good.csv", "a\n1\n")

	err := h.run("--json-schema", schema, "--format", "json", bad, good)
	assert.ErrorIs(t, err, cli.ErrFailed)

	var got []struct {
		File        string   `json:"file"`
		OK          bool     `json:"ok"`
		Rows        int      `json:"rows"`
		Messages    []string `json:"messages"`
		Diagnostics []struct {
			Line   int    `json:"line"`
			Column string `json:"column"`
			Code   string `json:"code"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, bad, got[0].File)
	assert.False(t, got[0].OK)
	assert.Equal(t, []string{bad + ":2: 'q' is not of type 'number'"}, got[0].Messages)
	require.Len(t, got[0].Diagnostics, 1)
	assert.Equal(t, 2, got[0].Diagnostics[0].Line)
	assert.Equal(t, "a", got[0].Diagnostics[0].Column)
	assert.Equal(t, "invalid_type", got[0].Diagnostics[0].Code)
	assert.True(t, got[1].OK)
	assert.Equal(t, 1, got[1].Rows)
	assert.Empty(t, got[1].Messages)
}

func TestRun_YAMLOutput(t *testing.T) {
	h := newHarness(t)
	data := h.write(t, "d.csv", "a\n1\n")

	require.NoError(t, h.run("--format", "yaml", data))
	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(h.stdout.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, data, got[0]["file"])
	assert.Equal(t, true, got[0]["ok"])
}

func TestRun_UsageErrors(t *testing.T) {
	h := newHarness(t)
	data := h.write(t, "d.csv", "a\n1\n")
	cases := []struct {
		name string
		args []string
		msg  string
	}{
		{"both overrides", []string{"--json-schema", "s.json", "--model", "rows.so:Row", data}, "only one of --json-schema or --model"},
		{"no files", nil, "no files given"},
		{"bad format", []string{"--format", "xml", data}, "unknown output format"},
		{"bad jobs", []string{"--jobs", "0", data}, "invalid --jobs"},
		{"missing config", []string{"--config", filepath.Join(h.dir, "nope.yaml"), data}, "nope.yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.run(tc.args...)
			require.Error(t, err)
			assert.NotErrorIs(t, err, cli.ErrFailed)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestRun_UnknownValidator(t *testing.T) {
	h := newHarness(t)
	h.write(t, "csvmodel.yaml", "validator: jsonshema\n")
	data := h.write(t, "d.csv", "a\n1\n")

	err := h.run("--debug", "--log-json", data)
	assert.ErrorIs(t, err, cli.ErrFailed)
	assert.Contains(t, h.stderr.String(), `did you mean \"jsonschema\"?`)
	assert.Contains(t, h.stderr.String(), `"level":"DEBUG"`)
}
