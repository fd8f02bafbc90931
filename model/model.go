package model

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"time"

	csvmodel "github.com/reoring/csvmodel"
)

// Model is a compiled description of a Go struct used to check records.
type Model struct {
	name   string
	typ    reflect.Type
	fields []field
}

type field struct {
	column   string
	index    []int
	typ      reflect.Type // element type for pointer fields
	pointer  bool
	required bool
	kind     valueKind
}

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindUint
	kindFloat
	kindTime
	kindDuration
	kindText // encoding.TextUnmarshaler
)

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Compile builds a Model from a struct value, a pointer to one, or a
// reflect.Type. Fields that would need a nested value fail with
// csvmodel.ErrSchemaTooDeep.
func Compile(prototype any) (*Model, error) {
	var t reflect.Type
	switch p := prototype.(type) {
	case nil:
		return nil, csvmodel.Errorf(csvmodel.ErrSchema, "compile model", "", "nil prototype")
	case reflect.Type:
		t = p
	default:
		t = reflect.TypeOf(prototype)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, csvmodel.Errorf(csvmodel.ErrSchema, "compile model", t.String(), "model must be a struct, got %s", t.Kind())
	}

	m := &Model{name: t.Name(), typ: t}
	seen := map[string]bool{}
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		col, optional := ResolveColumn(sf)
		if col == "-" {
			continue
		}
		if seen[col] {
			return nil, csvmodel.Errorf(csvmodel.ErrSchema, "compile model", m.name, "column %q declared twice", col)
		}
		seen[col] = true

		f := field{column: col, index: sf.Index, typ: sf.Type, required: !optional}
		if sf.Type.Kind() == reflect.Pointer {
			f.typ, f.pointer, f.required = sf.Type.Elem(), true, false
		}
		k, ok := kindOf(f.typ)
		if !ok {
			return nil, &csvmodel.Error{
				Kind:   csvmodel.ErrSchemaTooDeep,
				Op:     "compile model",
				Source: m.name + "." + sf.Name,
				Err:    fmt.Errorf("field type %s: %w", sf.Type, csvmodel.ErrSchemaTooDeep),
			}
		}
		f.kind = k
		m.fields = append(m.fields, f)
	}
	return m, nil
}

func kindOf(t reflect.Type) (valueKind, bool) {
	switch {
	case t == timeType:
		return kindTime, true
	case t == durationType:
		return kindDuration, true
	case reflect.PointerTo(t).Implements(textUnmarshalerType):
		return kindText, true
	}
	switch t.Kind() {
	case reflect.String:
		return kindString, true
	case reflect.Bool:
		return kindBool, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindInt, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindUint, true
	case reflect.Float32, reflect.Float64:
		return kindFloat, true
	}
	return 0, false
}

// Name is the struct type name.
func (m *Model) Name() string { return m.name }

// Columns lists the model's columns in field declaration order.
func (m *Model) Columns() []string {
	out := make([]string, len(m.fields))
	for i, f := range m.fields {
		out[i] = f.column
	}
	return out
}

// Required lists the columns a record must carry.
func (m *Model) Required() []string {
	var out []string
	for _, f := range m.fields {
		if f.required {
			out = append(out, f.column)
		}
	}
	return out
}

// String describes the model as "Name{col, col?}" with optional columns marked.
func (m *Model) String() string {
	cols := make([]string, len(m.fields))
	for i, f := range m.fields {
		cols[i] = f.column
		if !f.required {
			cols[i] += "?"
		}
	}
	return m.name + "{" + strings.Join(cols, ", ") + "}"
}
