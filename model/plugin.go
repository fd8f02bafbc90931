package model

import (
	"fmt"
	"os"
	"plugin"
	"reflect"

	csvmodel "github.com/reoring/csvmodel"
)

// LoadPlugin opens the Go plugin at path and compiles the model exported as
// symbol. Plugins cannot export types, so symbol names either a variable of
// the struct type or a function with no arguments returning one.
func LoadPlugin(path, symbol string) (m *Model, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &csvmodel.Error{Kind: csvmodel.ErrSchemaNotFound, Op: "load model", Source: path, Err: err}
	}
	// plugin.Open panics on some toolchain mismatches.
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, csvmodel.Errorf(csvmodel.ErrSchema, "load model", path, "open plugin: %v", r)
		}
	}()
	p, err := plugin.Open(path)
	if err != nil {
		return nil, csvmodel.Errorf(csvmodel.ErrSchema, "load model", path, "open plugin: %v", err)
	}
	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, &csvmodel.Error{Kind: csvmodel.ErrSchemaNotFound, Op: "load model", Source: path + ":" + symbol, Err: err}
	}
	proto, err := prototypeOf(sym)
	if err != nil {
		return nil, csvmodel.Errorf(csvmodel.ErrSchema, "load model", path+":"+symbol, "%v", err)
	}
	m, err = Compile(proto)
	if err != nil {
		return nil, err
	}
	if m.name == "" {
		m.name = symbol
	}
	return m, nil
}

// prototypeOf unwraps a looked-up symbol. Variables arrive as pointers to the
// variable; functions are called.
func prototypeOf(sym any) (any, error) {
	v := reflect.ValueOf(sym)
	for v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Func {
		v = v.Elem()
	}
	if v.Kind() != reflect.Func {
		return v.Interface(), nil
	}
	if v.IsNil() || v.Type().NumIn() != 0 || v.Type().NumOut() == 0 {
		return nil, fmt.Errorf("symbol is %s, want func() T", v.Type())
	}
	return v.Call(nil)[0].Interface(), nil
}
