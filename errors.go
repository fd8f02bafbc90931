package csvmodel

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every fatal failure returned by this module matches exactly one of
// these with errors.Is; ErrSchemaTooDeep additionally matches ErrSchema.
var (
	ErrIO             = errors.New("csvmodel: io error")
	ErrSchema         = errors.New("csvmodel: invalid schema")
	ErrSchemaNotFound = errors.New("csvmodel: schema not found")
	ErrConfiguration  = errors.New("csvmodel: configuration error")
	ErrSchemaTooDeep  = fmt.Errorf("%w: schema too deep for flat records", ErrSchema)
)

// Error describes a fatal failure while preparing or running a validation.
type Error struct {
	Kind   error  // One of the Err* kinds above.
	Op     string // Operation that failed, e.g. "open", "load schema".
	Source string // File, schema path or symbol involved (optional).
	Err    error  // Underlying cause (optional).
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(e.Op)
	if e.Source != "" {
		fmt.Fprintf(b, " %s", e.Source)
	}
	if e.Err != nil {
		fmt.Fprintf(b, ": %v", e.Err)
	} else if e.Kind != nil {
		fmt.Fprintf(b, ": %v", e.Kind)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Errorf builds an *Error of the given kind with a formatted cause.
func Errorf(kind error, op, source, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Source: source, Err: fmt.Errorf(format, args...)}
}

// Issue codes attached to record violations.
const (
	CodeInvalidType = "invalid_type"
	CodeRequired    = "required"
	CodeMissing     = "missing_columns"
	CodeConstraint  = "constraint"
	CodeRoot        = "root"
)

// RootColumn is the column name used for whole-record (cross-field) violations.
const RootColumn = "__root__"

// Issue is a single violation found in one record.
type Issue struct {
	Column  string // Column the violation is attributed to; RootColumn for cross-field checks.
	Code    string // One of the Code* constants, or a backend specific code.
	Message string // Human readable text, rendered verbatim in reports.
}

// Issues is the set of violations found in one record. It implements error so
// backends and model code can return it directly.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].Message)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
