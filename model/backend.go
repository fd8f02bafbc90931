package model

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	csvmodel "github.com/reoring/csvmodel"
)

// Name is the registry name of the class-model backend.
const Name = "model"

// Validator is implemented by models that check constraints spanning
// several fields. It runs only when every field coerced successfully.
// A plain error is attributed to the __root__ column; a *FieldError, or
// csvmodel.Issues, names its own columns; errors.Join combines several.
type Validator interface {
	Validate() error
}

// FieldError attributes a Validate failure to one column.
type FieldError struct {
	Column string
	Err    error
}

func (e *FieldError) Error() string { return e.Column + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

// Backend checks each record by instantiating a model from it.
type Backend struct {
	model *Model
}

// NewBackend returns a backend for an already compiled model.
func NewBackend(m *Model) *Backend { return &Backend{model: m} }

// Factory returns the csvmodel.Factory for the class-model backend.
// module: specifications resolve against catalog; file: specifications load a
// Go plugin.
func Factory(catalog *Catalog) csvmodel.Factory {
	return func(cfg csvmodel.BackendConfig) (csvmodel.Backend, error) {
		if cfg.MissingColumns != csvmodel.MissingPerColumn {
			return nil, csvmodel.Errorf(csvmodel.ErrConfiguration, "load model", cfg.Schema.String(),
				"class-model backend only reports missing columns per-property")
		}
		m, err := Resolve(catalog, cfg.Schema)
		if err != nil {
			return nil, err
		}
		return NewBackend(m), nil
	}
}

// Resolve loads the model a schema specification refers to.
func Resolve(catalog *Catalog, spec csvmodel.SchemaSpec) (*Model, error) {
	switch spec.Kind {
	case csvmodel.SchemaLiteral:
		return nil, csvmodel.Errorf(csvmodel.ErrConfiguration, "load model", spec.String(),
			"class-model backend has no inline form")
	case csvmodel.SchemaFile:
		path, symbol, err := spec.Symbol()
		if err != nil {
			return nil, err
		}
		return LoadPlugin(path, symbol)
	case csvmodel.SchemaModuleRef:
		module, symbol, err := spec.Symbol()
		if err != nil {
			return nil, err
		}
		if catalog == nil {
			catalog = Default
		}
		return catalog.Lookup(module, symbol)
	default:
		return nil, csvmodel.Errorf(csvmodel.ErrConfiguration, "load model", spec.String(), "unknown schema kind")
	}
}

func (b *Backend) Name() string { return Name }

// Model returns the model records are checked against.
func (b *Backend) Model() *Model { return b.model }

// Check instantiates the model from rec. Coercion failures and missing
// required fields are reported per column in declaration order.
func (b *Backend) Check(_ context.Context, rec csvmodel.Record) (csvmodel.Issues, error) {
	v := reflect.New(b.model.typ)
	var iss csvmodel.Issues
	for i := range b.model.fields {
		f := &b.model.fields[i]
		raw, ok := rec.Get(f.column)
		if !f.required && (!ok || raw == "") {
			continue
		}
		if !ok {
			iss = csvmodel.AppendIssues(iss, columnIssue(f.column, csvmodel.CodeRequired, errRequired))
			continue
		}
		if err := b.assign(v.Elem(), f, raw); err != nil {
			iss = csvmodel.AppendIssues(iss, columnIssue(f.column, csvmodel.CodeInvalidType, err))
		}
	}
	if len(iss) > 0 {
		return iss, nil
	}
	return validate(v.Interface()), nil
}

// assign coerces raw into the field, allocating pointers on the way.
func (b *Backend) assign(root reflect.Value, f *field, raw string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	dst := fieldByIndexAlloc(root, f.index)
	if f.pointer {
		p := reflect.New(f.typ)
		if err := f.set(p.Elem(), raw); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	return f.set(dst, raw)
}

func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// validate runs the model's own cross-field checks, isolating panics.
func validate(instance any) (iss csvmodel.Issues) {
	mv, ok := instance.(Validator)
	if !ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			iss = csvmodel.Issues{columnIssue(csvmodel.RootColumn, csvmodel.CodeRoot, fmt.Errorf("panic: %v", r))}
		}
	}()
	return issuesFromError(mv.Validate())
}

func issuesFromError(err error) csvmodel.Issues {
	if err == nil {
		return nil
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		var out csvmodel.Issues
		for _, e := range multi.Unwrap() {
			out = append(out, issuesFromError(e)...)
		}
		return out
	}
	if given, ok := csvmodel.AsIssues(err); ok {
		out := make(csvmodel.Issues, len(given))
		for i, it := range given {
			col := it.Column
			if col == "" {
				col = csvmodel.RootColumn
			}
			out[i] = columnIssue(col, codeOr(it.Code, csvmodel.CodeConstraint), errors.New(it.Message))
		}
		return out
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return csvmodel.Issues{columnIssue(fe.Column, csvmodel.CodeConstraint, fe.Err)}
	}
	return csvmodel.Issues{columnIssue(csvmodel.RootColumn, csvmodel.CodeRoot, err)}
}

func columnIssue(col, code string, reason error) csvmodel.Issue {
	return csvmodel.IssueAt(col, code, fmt.Sprintf("Issue in column %s: %s", col, reason))
}

func codeOr(code, def string) string {
	if code == "" {
		return def
	}
	return code
}
