package csvmodel_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	csvmodel "github.com/reoring/csvmodel"
	"github.com/reoring/csvmodel/backends"
	"github.com/reoring/csvmodel/jsonschema"
)

type fakeBackend struct {
	check func(csvmodel.Record) (csvmodel.Issues, error)
	seen  []int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Check(_ context.Context, rec csvmodel.Record) (csvmodel.Issues, error) {
	f.seen = append(f.seen, rec.Line())
	if f.check == nil {
		return nil, nil
	}
	return f.check(rec)
}

func structural(t *testing.T, schema string, missing csvmodel.MissingPolicy) csvmodel.Backend {
	t.Helper()
	b, err := jsonschema.New(csvmodel.BackendConfig{
		Schema:         csvmodel.SchemaSpec{Kind: csvmodel.SchemaLiteral, Details: schema},
		MissingColumns: missing,
	})
	if err != nil {
		t.Fatalf("jsonschema.New: %v", err)
	}
	return b
}

func check(t *testing.T, b csvmodel.Backend, data string, opts ...csvmodel.Option) *csvmodel.Report {
	t.Helper()
	rep, err := csvmodel.New(b, opts...).Check(context.Background(), csvmodel.NewReaderSource("any_file.csv", strings.NewReader(data), ","))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return rep
}

func TestValidator_TypeMismatch(t *testing.T) {
	b := structural(t, `{"type": "object", "properties": {"a": {"type": "number"}}}`, csvmodel.MissingPerColumn)
	rep := check(t, b, "a,b\na,1\n2.5,x\n")
	if rep.OK {
		t.Fatalf("expected failure")
	}
	want := []string{"any_file.csv:2: 'a' is not of type 'number'"}
	if got := rep.Messages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("messages = %q, want %q", got, want)
	}
	if rep.Rows != 2 || rep.Diagnostics[0].Column != "a" || rep.Diagnostics[0].Code != csvmodel.CodeInvalidType {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestValidator_EmptyAndHeaderOnly(t *testing.T) {
	b := structural(t, `{"type": "object", "required": ["a"]}`, csvmodel.MissingPerColumn)
	for _, data := range []string{"", "a,b\n"} {
		rep := check(t, b, data)
		if !rep.OK || len(rep.Diagnostics) != 0 || rep.Rows != 0 {
			t.Fatalf("%q: expected empty ok report, got %+v", data, rep)
		}
		if rep.String() != "" {
			t.Fatalf("%q: String() = %q", data, rep.String())
		}
	}
}

func TestValidator_HeaderIsNeverChecked(t *testing.T) {
	f := &fakeBackend{}
	check(t, f, "h\n1\n2\n")
	if !reflect.DeepEqual(f.seen, []int{2, 3}) {
		t.Fatalf("checked lines = %v, want [2 3]", f.seen)
	}
}

func TestValidator_MissingColumns(t *testing.T) {
	schema := `{"type": "object", "properties": {"a": {"type": "integer"}}, "required": ["a", "b", "c"]}`

	rep := check(t, structural(t, schema, csvmodel.MissingPerColumn), "a\n1\n")
	want := []string{
		"any_file.csv:2: 'b' is a required property",
		"any_file.csv:2: 'c' is a required property",
	}
	if got := rep.Messages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("per-property: %q, want %q", got, want)
	}

	rep = check(t, structural(t, schema, csvmodel.MissingCount), "a\nx\n")
	want = []string{
		"any_file.csv:2: missing 2 column(s): b, c",
		"any_file.csv:2: 'x' is not of type 'integer'",
	}
	if got := rep.Messages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("count: %q, want %q", got, want)
	}
}

func TestValidator_AllViolationsInOrder(t *testing.T) {
	schema := `{
		"type": "object",
		"properties": {
			"size": {"type": "integer", "minimum": 1},
			"kind": {"enum": ["x", "y"]},
			"name": {"type": "string", "maxLength": 3}
		},
		"required": ["id"],
		"additionalProperties": false
	}`
	b := structural(t, schema, csvmodel.MissingPerColumn)
	rep := check(t, b, "name,kind,size,extra\nlonger,z,0,1\n")
	want := []string{
		"any_file.csv:2: 'id' is a required property",
		"any_file.csv:2: 'longer' is too long",
		"any_file.csv:2: 'z' is not one of ['x', 'y']",
		"any_file.csv:2: 0 is less than the minimum of 1",
		"any_file.csv:2: Additional properties are not allowed ('extra' was unexpected)",
	}
	if got := rep.Messages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("messages =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestValidator_RowLimit(t *testing.T) {
	b := structural(t, `{"properties": {"a": {"type": "number"}}}`, csvmodel.MissingPerColumn)
	data := "a\nx\ny\nz\n"

	rep := check(t, b, data, csvmodel.WithRowLimit(2))
	if rep.Rows != 2 || len(rep.Diagnostics) != 2 || rep.Diagnostics[1].Line != 3 {
		t.Fatalf("limit 2: %+v", rep)
	}
	rep = check(t, b, data, csvmodel.WithRowLimit(csvmodel.Unlimited))
	if rep.Rows != 3 || len(rep.Diagnostics) != 3 {
		t.Fatalf("unlimited: %+v", rep)
	}
	rep = check(t, b, data, csvmodel.WithRowLimit(10))
	if rep.Rows != 3 {
		t.Fatalf("limit above row count: %+v", rep)
	}
}

func TestValidator_BackendErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeBackend{check: func(rec csvmodel.Record) (csvmodel.Issues, error) {
		if rec.Line() == 3 {
			return nil, boom
		}
		return csvmodel.Issues{{Column: "a", Message: "first"}, {Column: "a", Message: "second"}}, nil
	}}
	_, err := csvmodel.New(f).Check(context.Background(), csvmodel.NewReaderSource("f.csv", strings.NewReader("a\n1\n2\n3\n"), ","))
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "f.csv:3: ") {
		t.Fatalf("error should carry file and line: %v", err)
	}
	if !reflect.DeepEqual(f.seen, []int{2, 3}) {
		t.Fatalf("rows after the failure must not be read, saw %v", f.seen)
	}
}

func TestValidator_IssueOrderWithinLine(t *testing.T) {
	f := &fakeBackend{check: func(rec csvmodel.Record) (csvmodel.Issues, error) {
		return csvmodel.Issues{{Message: "z first"}, {Message: "a second"}}, nil
	}}
	rep := check(t, f, "a\n1\n")
	want := []string{"any_file.csv:2: z first", "any_file.csv:2: a second"}
	if got := rep.Messages(); !reflect.DeepEqual(got, want) {
		t.Fatalf("messages = %q", got)
	}
}

func TestValidator_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := csvmodel.New(&fakeBackend{}).Check(ctx, csvmodel.NewReaderSource("f.csv", strings.NewReader("a\n1\n"), ","))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestValidateFile_DeepSchemaFailsBeforeReading(t *testing.T) {
	s := csvmodel.Settings{
		Validator: "jsonschema",
		Schema:    csvmodel.ParseSchemaSpec(`{"type": "object", "properties": {"a": {"type": "object"}}}`),
		Separator: ",",
	}
	// The data file does not exist: construction must fail first.
	_, err := csvmodel.ValidateFile(context.Background(), backends.New(nil), filepath.Join(t.TempDir(), "nope.csv"), s)
	if !errors.Is(err, csvmodel.ErrSchemaTooDeep) || !errors.Is(err, csvmodel.ErrSchema) {
		t.Fatalf("want ErrSchemaTooDeep, got %v", err)
	}
	if errors.Is(err, csvmodel.ErrIO) {
		t.Fatalf("file must not be opened: %v", err)
	}
}

func TestValidateFile_MissingFile(t *testing.T) {
	s := csvmodel.Settings{Validator: "jsonschema", Schema: csvmodel.ParseSchemaSpec(`{}`), Separator: ","}
	_, err := csvmodel.ValidateFile(context.Background(), backends.New(nil), filepath.Join(t.TempDir(), "nope.csv"), s)
	if !errors.Is(err, csvmodel.ErrIO) {
		t.Fatalf("want ErrIO, got %v", err)
	}
}

func TestRegistry_UnknownBackend(t *testing.T) {
	reg := backends.New(nil)
	_, err := reg.New("jsonshema", csvmodel.BackendConfig{})
	if !errors.Is(err, csvmodel.ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), `no validator by the name "jsonshema"`) || !strings.Contains(err.Error(), `did you mean "jsonschema"?`) {
		t.Fatalf("unexpected message: %v", err)
	}

	_, err = reg.Lookup("completely-different")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("no suggestion expected for a distant name, got %v", err)
	}
}

func TestRegistry_ThirdBackend(t *testing.T) {
	reg := backends.New(nil)
	reg.Register("Fake", func(csvmodel.BackendConfig) (csvmodel.Backend, error) { return &fakeBackend{}, nil })
	b, err := reg.New("fake", csvmodel.BackendConfig{})
	if err != nil || b.Name() != "fake" {
		t.Fatalf("New(fake) = %v, %v", b, err)
	}
	if got := reg.Names(); !reflect.DeepEqual(got, []string{"fake", "jsonschema", "model", "pydantic"}) {
		t.Fatalf("Names() = %v", got)
	}
}
