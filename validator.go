package csvmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Validator drives a Source through a Backend and builds a Report.
type Validator struct {
	backend  Backend
	rowLimit int
	logger   *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithRowLimit stops reading after n data rows. Unlimited (0) or a negative n
// disables the limit.
func WithRowLimit(n int) Option {
	return func(v *Validator) {
		if n < 0 {
			n = Unlimited
		}
		v.rowLimit = n
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// New returns a Validator for backend b.
func New(b Backend, opts ...Option) *Validator {
	v := &Validator{backend: b, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Check validates every data row of src. The first row is the header and is
// never checked. Record violations become diagnostics; I/O failures and
// backend errors abort the run and are returned unchanged.
func (v *Validator) Check(ctx context.Context, src Source) (*Report, error) {
	rows, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	header, err := rows.NextRow()
	if errors.Is(err, io.EOF) {
		return newReport(src.Name(), 0, nil), nil
	}
	if err != nil {
		return nil, err
	}

	var (
		diags []Diagnostic
		n     int
	)
	for v.rowLimit == Unlimited || n < v.rowLimit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := rows.NextRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		n++

		rec := NewRecord(rows.Line(), header, fields)
		iss, err := v.backend.Check(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", src.Name(), rec.Line(), err)
		}
		for _, it := range iss {
			diags = append(diags, Diagnostic{Line: rec.Line(), Message: it.Message, Column: it.Column, Code: it.Code})
		}
	}

	v.logger.Debug("validation completed",
		"file", src.Name(),
		"backend", v.backend.Name(),
		"rows", n,
		"diagnostics", len(diags),
		"limited", v.rowLimit != Unlimited && n == v.rowLimit)

	return newReport(src.Name(), n, diags), nil
}

// ValidateFile resolves the backend named in s, constructs it and validates
// the file at path. Backend resolution and construction happen before the
// file is opened, so configuration errors never yield a partial report.
func ValidateFile(ctx context.Context, reg *Registry, path string, s Settings, opts ...Option) (*Report, error) {
	b, err := reg.New(s.Validator, BackendConfig{Schema: s.Schema, MissingColumns: s.MissingColumns})
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithRowLimit(s.LineLimit)}, opts...)
	return New(b, opts...).Check(ctx, NewFileSource(path, s.Separator))
}
