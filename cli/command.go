package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	csvmodel "github.com/reoring/csvmodel"
	"github.com/reoring/csvmodel/config"
	"github.com/reoring/csvmodel/internal/logging"
	"github.com/reoring/csvmodel/jsonschema"
	"github.com/reoring/csvmodel/model"
)

// ErrFailed is returned by the command when at least one file had
// diagnostics or could not be validated.
var ErrFailed = errors.New("one or more files failed validation")

// Options wires the command to its environment.
type Options struct {
	Registry *csvmodel.Registry // Required.
	Stdout   io.Writer          // Reports; default os.Stdout.
	Stderr   io.Writer          // Logs; default os.Stderr.
	Dir      string             // Directory searched for a config file; default ".".
	Version  string
}

// Command returns the csvmodel root command.
func Command(o Options) *cli.Command {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Dir == "" {
		o.Dir = "."
	}
	return &cli.Command{
		Name:      "csvmodel",
		Usage:     "Validate delimited text files against a schema",
		ArgsUsage: "FILE...",
		Version:   o.Version,
		Description: `Validates every row of each FILE and prints one "file:line: message"
diagnostic per violation. The first line of a file is its header.

Settings come from --config, or the first of .csvmodel.yaml, .csvmodel.yml,
.csvmodel.hcl, csvmodel.yaml, csvmodel.hcl in the working directory.

# Examples

Check against a JSON Schema:
  csvmodel --json-schema schema.json data.csv

Check against a struct exported by a Go plugin:
  csvmodel --model rows.so:Order orders.csv

Exit status is 0 when every file is valid and 1 otherwise.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file to read",
			},
			&cli.StringFlag{
				Name:    "json-schema",
				Aliases: []string{"j"},
				Usage:   "Use the jsonschema validator with the schema in `FILE` by default",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m", "pydantic-model", "p"},
				Usage:   "Use the model validator with `FILE:Symbol` from a Go plugin by default",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(FormatText),
				Usage:   "Output format (text, json, yaml)",
			},
			&cli.IntFlag{
				Name:  "jobs",
				Value: 1,
				Usage: "Number of files validated concurrently",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Write logs as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd, o)
		},
	}
}

func run(ctx context.Context, cmd *cli.Command, o Options) error {
	level, logFormat := "info", "text"
	if cmd.Bool("debug") {
		level = "debug"
	}
	if cmd.Bool("log-json") {
		logFormat = "json"
	}
	logger := logging.Setup(o.Stderr, level, logFormat)
	ctx = logging.WithLogger(ctx, logger)

	outFormat, err := parseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("no files given")
	}
	jobs := int(cmd.Int("jobs"))
	if jobs < 1 {
		return fmt.Errorf("invalid --jobs value: %d (must be at least 1)", jobs)
	}

	cfg, err := loadConfig(cmd, o.Dir)
	if err != nil {
		return err
	}
	logger.Debug("configuration resolved", "path", cfg.Path, "files", len(files), "jobs", jobs)

	results := Validate(ctx, o.Registry, cfg, files, jobs)

	failed := false
	for _, r := range results {
		if r.Err != nil {
			logger.Error("validation failed", "file", r.File, "error", r.Err)
		}
		if !r.OK() {
			failed = true
		}
	}
	if err := Write(o.Stdout, outFormat, results); err != nil {
		return fmt.Errorf("writing reports: %w", err)
	}
	if failed {
		return ErrFailed
	}
	return nil
}

// loadConfig reads the config file and applies the --json-schema and
// --model overrides to its defaults section.
func loadConfig(cmd *cli.Command, dir string) (*config.Config, error) {
	schemaFile, modelRef := cmd.String("json-schema"), cmd.String("model")
	if schemaFile != "" && modelRef != "" {
		return nil, fmt.Errorf("only one of --json-schema or --model is valid")
	}
	cfg, err := config.Load(config.Discover(cmd.String("config"), dir))
	if err != nil {
		return nil, err
	}
	switch {
	case schemaFile != "":
		cfg.AddDefaults(defaultsFor(jsonschema.Name, schemaFile))
	case modelRef != "":
		cfg.AddDefaults(defaultsFor(model.Name, modelRef))
	}
	return cfg, nil
}

func defaultsFor(validator, details string) config.Section {
	schema := csvmodel.SchemaSpec{Kind: csvmodel.SchemaFile, Details: details}.String()
	return config.Section{Validator: &validator, Schema: &schema}
}

// Result is the outcome for one file: a report, or the error that stopped it.
type Result struct {
	File   string
	Report *csvmodel.Report
	Err    error
}

// OK reports whether the file validated without diagnostics.
func (r Result) OK() bool { return r.Err == nil && r.Report != nil && r.Report.OK }

// Validate checks every file, up to jobs at a time, and returns results in
// the order of files. A failing file never stops the others.
func Validate(ctx context.Context, reg *csvmodel.Registry, cfg *config.Config, files []string, jobs int) []Result {
	logger := logging.FromContext(ctx)
	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		g.Go(func() error {
			results[i] = Result{File: file}
			s, err := cfg.Settings(file)
			if err != nil {
				results[i].Err = err
				return nil
			}
			logger.Debug("validating file",
				"file", file,
				"validator", s.Validator,
				"schema", s.Schema.String(),
				"separator", s.Separator,
				"line_limit", s.LineLimit)
			results[i].Report, results[i].Err = csvmodel.ValidateFile(ctx, reg, file, s, csvmodel.WithLogger(logger))
			return nil
		})
	}
	_ = g.Wait()
	return results
}
