// Package csvmodel validates delimited text files row by row against a
// declared schema and reports every violation with its file and line.
//
// - Row sources split each line on a fixed delimiter; the first row is the header
// - Records bind a row to the header; short rows leave trailing columns absent
// - Backends check one record at a time and return Issues (jsonschema/, model/)
// - The Validator drives a Source through a Backend and builds a Report
//
// Design policy:
// - Keep only public APIs in the root package; backends live in sub-packages.
// - Backends are registered explicitly (see backends/); there is no global registry.
// - Record violations are data (Issues), fatal failures are errors (*Error kinds).
//
// Typical usage:
//
//  reg := backends.New(nil)
//  b, err := reg.New("jsonschema", csvmodel.BackendConfig{Schema: csvmodel.ParseSchemaSpec("file:schema.json")})
//  rep, err := csvmodel.New(b).Check(ctx, csvmodel.NewFileSource("data.csv", ","))
//  fmt.Println(rep)
package csvmodel
