// Package backends assembles the registry of schema backends shipped with
// csvmodel.
package backends

import (
	csvmodel "github.com/reoring/csvmodel"
	"github.com/reoring/csvmodel/jsonschema"
	"github.com/reoring/csvmodel/model"
)

// New returns a registry holding the structural ("jsonschema") and
// class-model ("model", alias "pydantic") backends. A nil catalog falls back
// to model.Default.
func New(catalog *model.Catalog) *csvmodel.Registry {
	if catalog == nil {
		catalog = model.Default
	}
	r := csvmodel.NewRegistry()
	r.Register(jsonschema.Name, jsonschema.New)
	mf := model.Factory(catalog)
	r.Register(model.Name, mf)
	r.Register("pydantic", mf)
	return r
}
