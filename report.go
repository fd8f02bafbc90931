package csvmodel

import (
	"fmt"
	"strings"
)

// Diagnostic is a single line-tagged validation failure.
type Diagnostic struct {
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
	Column  string `json:"column,omitempty" yaml:"column,omitempty"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
}

// Report is the outcome of validating one file. It is not modified after the
// validator returns it.
type Report struct {
	File        string       `json:"file" yaml:"file"`
	OK          bool         `json:"ok" yaml:"ok"`
	Rows        int          `json:"rows" yaml:"rows"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

func newReport(file string, rows int, diags []Diagnostic) *Report {
	if diags == nil {
		diags = []Diagnostic{}
	}
	return &Report{File: file, OK: len(diags) == 0, Rows: rows, Diagnostics: diags}
}

// Messages renders every diagnostic as "<file>:<line>: <message>" in
// collection order.
func (r *Report) Messages() []string {
	out := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		out[i] = fmt.Sprintf("%s:%d: %s", r.File, d.Line, d.Message)
	}
	return out
}

// String joins Messages with newlines.
func (r *Report) String() string {
	return strings.Join(r.Messages(), "\n")
}
