package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	csvmodel "github.com/reoring/csvmodel"
)

// Format is an output format for reports.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func parseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %q, valid formats are: text, json, yaml", s)
	}
}

// fileView is the serialized form of a Result.
type fileView struct {
	File        string                `json:"file" yaml:"file"`
	OK          bool                  `json:"ok" yaml:"ok"`
	Rows        int                   `json:"rows" yaml:"rows"`
	Diagnostics []csvmodel.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Messages    []string              `json:"messages" yaml:"messages"`
	Error       string                `json:"error,omitempty" yaml:"error,omitempty"`
}

func viewOf(r Result) fileView {
	v := fileView{File: r.File, Diagnostics: []csvmodel.Diagnostic{}, Messages: []string{}}
	if r.Err != nil {
		v.Error = r.Err.Error()
		return v
	}
	v.OK, v.Rows = r.Report.OK, r.Report.Rows
	v.Diagnostics = r.Report.Diagnostics
	v.Messages = r.Report.Messages()
	return v
}

// Write renders results to w. Text output lists the messages of failed
// files only; JSON and YAML include every file.
func Write(w io.Writer, f Format, results []Result) error {
	switch f {
	case FormatJSON:
		views := make([]fileView, len(results))
		for i, r := range results {
			views[i] = viewOf(r)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case FormatYAML:
		views := make([]fileView, len(results))
		for i, r := range results {
			views[i] = viewOf(r)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	default:
		for _, r := range results {
			if r.Err != nil || r.Report.OK {
				continue
			}
			if _, err := fmt.Fprintln(w, r.Report.String()); err != nil {
				return err
			}
		}
		return nil
	}
}
