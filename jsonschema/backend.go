package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	csvmodel "github.com/reoring/csvmodel"
)

// Name is the registry name of the structural backend.
const Name = "jsonschema"

// Backend checks records against a flat JSON Schema. Numeric and boolean
// columns are coerced from text before the check; a value that does not
// coerce is left as text and reported by the type check.
type Backend struct {
	schema  *Schema
	checker *gojsonschema.Schema
	missing csvmodel.MissingPolicy
}

// New is the csvmodel.Factory for the structural backend.
func New(cfg csvmodel.BackendConfig) (csvmodel.Backend, error) {
	s, err := Load(cfg.Schema)
	if err != nil {
		return nil, err
	}
	return NewFromSchema(s, cfg.MissingColumns)
}

// NewFromSchema builds a backend from an already compiled Schema.
func NewFromSchema(s *Schema, missing csvmodel.MissingPolicy) (*Backend, error) {
	doc, err := json.Marshal(s.raw)
	if err != nil {
		return nil, csvmodel.Errorf(csvmodel.ErrSchema, "compile schema", "", "%v", err)
	}
	checker, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, csvmodel.Errorf(csvmodel.ErrSchema, "compile schema", "", "%v", err)
	}
	return &Backend{schema: s, checker: checker, missing: missing}, nil
}

func (b *Backend) Name() string { return Name }

// Check coerces rec and runs the structural check. The only error it
// returns is a permanent schema failure.
func (b *Backend) Check(_ context.Context, rec csvmodel.Record) (csvmodel.Issues, error) {
	inst, err := b.coerce(rec)
	if err != nil {
		return nil, err
	}
	res, err := b.checker.Validate(gojsonschema.NewGoLoader(inst))
	if err != nil {
		return nil, csvmodel.Errorf(csvmodel.ErrSchema, "check record", "", "%v", err)
	}
	if res.Valid() {
		return nil, nil
	}
	return b.issues(rec, inst, res.Errors()), nil
}

// coerce builds the instance document for rec. Only present columns are
// included, so absent columns surface as missing required properties.
func (b *Backend) coerce(rec csvmodel.Record) (map[string]any, error) {
	inst := make(map[string]any, rec.Len())
	for _, col := range rec.Columns() {
		raw, _ := rec.Get(col)
		inst[col] = raw
		p, ok := b.schema.Properties[col]
		if !ok {
			continue
		}
		if err := checkFlat(p); err != nil {
			return nil, err
		}
		if v, ok := coerceValue(p, raw); ok {
			inst[col] = v
		}
	}
	return inst, nil
}

func coerceValue(p *Property, raw string) (any, bool) {
	for _, t := range p.valueTypes {
		switch t {
		case "integer":
			s := strings.TrimSpace(raw)
			n, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				return n, true
			}
			// Integers are unbounded; the checker compares numbers exactly.
			if errors.Is(err, strconv.ErrRange) {
				return json.Number(strings.TrimPrefix(s, "+")), true
			}
		case "number":
			// NaN and Inf have no JSON form; they stay text.
			if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return f, true
			}
		case "boolean":
			switch strings.ToLower(strings.TrimSpace(raw)) {
			case "true":
				return true, true
			case "false":
				return false, true
			}
		}
	}
	return nil, false
}

// rootField is the checker's field name for errors on the record itself.
const rootField = "(root)"

// Issue ordering groups.
const (
	groupRequired = iota
	groupColumn
	groupRecord
)

type rankedIssue struct {
	group, idx int
	issue      csvmodel.Issue
}

// issues converts checker errors into record issues in a stable order:
// missing required columns in declaration order, then column violations in
// header order, then whole-record violations.
func (b *Backend) issues(rec csvmodel.Record, inst map[string]any, errs []gojsonschema.ResultError) csvmodel.Issues {
	var (
		ranked []rankedIssue
		extras []string
	)
	for _, e := range errs {
		switch e.Type() {
		case "required":
			col := detailString(e, "property")
			ranked = append(ranked, rankedIssue{
				group: groupRequired,
				idx:   indexOf(b.schema.Required, col),
				issue: csvmodel.IssueAt(col, csvmodel.CodeRequired, repr(col)+" is a required property"),
			})
		case "additional_property_not_allowed":
			extras = append(extras, detailString(e, "property"))
		default:
			col := e.Field()
			r := rankedIssue{group: groupRecord, idx: len(ranked)}
			if col != rootField {
				r.group, r.idx = groupColumn, rec.Index(col)
			} else {
				col = csvmodel.RootColumn
			}
			r.issue = csvmodel.IssueAt(col, issueCode(e.Type()), b.message(e, col, inst))
			ranked = append(ranked, r)
		}
	}
	if len(extras) > 0 {
		sort.SliceStable(extras, func(i, j int) bool { return rec.Index(extras[i]) < rec.Index(extras[j]) })
		ranked = append(ranked, rankedIssue{
			group: groupRecord,
			idx:   len(ranked),
			issue: csvmodel.IssueAt(strings.Join(extras, ","), "additional_properties", unexpectedMessage(extras)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].group != ranked[j].group {
			return ranked[i].group < ranked[j].group
		}
		return ranked[i].idx < ranked[j].idx
	})

	out := make(csvmodel.Issues, 0, len(ranked))
	var missing []string
	for _, r := range ranked {
		if r.group == groupRequired && b.missing == csvmodel.MissingCount {
			missing = append(missing, r.issue.Column)
			continue
		}
		out = append(out, r.issue)
	}
	if len(missing) > 0 {
		out = append(csvmodel.Issues{{
			Column:  strings.Join(missing, ","),
			Code:    csvmodel.CodeMissing,
			Message: fmt.Sprintf("missing %d column(s): %s", len(missing), strings.Join(missing, ", ")),
		}}, out...)
	}
	return out
}

// message renders a checker error in the classic validator wording.
func (b *Backend) message(e gojsonschema.ResultError, col string, inst map[string]any) string {
	p, ok := b.schema.Properties[col]
	if !ok {
		return e.Description()
	}
	val, ok := inst[col]
	if !ok {
		val = e.Value()
	}
	// A keyword the property does not carry (one set inside a combinator)
	// falls back to the checker's own description.
	found := true
	kw := func(name string) string {
		v, ok := p.Keyword(name)
		found = found && ok
		return repr(v)
	}
	limit := func(exclusive, inclusive string) string {
		if v, ok := p.Keyword(exclusive); ok {
			if _, isBool := v.(bool); !isBool {
				return repr(v)
			}
		}
		return kw(inclusive)
	}

	var msg string
	switch e.Type() {
	case "invalid_type":
		types := expectedTypes(e)
		if len(types) == 0 {
			types = p.Types
		}
		if len(types) == 0 {
			return e.Description()
		}
		quoted := make([]string, len(types))
		for i, t := range types {
			quoted[i] = repr(t)
		}
		msg = fmt.Sprintf("%s is not of type %s", repr(val), strings.Join(quoted, ", "))
	case "enum":
		msg = fmt.Sprintf("%s is not one of %s", repr(val), kw("enum"))
	case "const":
		msg = fmt.Sprintf("%s was expected", kw("const"))
	case "number_gte":
		msg = fmt.Sprintf("%s is less than the minimum of %s", repr(val), kw("minimum"))
	case "number_gt":
		// exclusiveMinimum is a number from draft 6 on, a flag on minimum before.
		msg = fmt.Sprintf("%s is less than or equal to the minimum of %s", repr(val), limit("exclusiveMinimum", "minimum"))
	case "number_lte":
		msg = fmt.Sprintf("%s is greater than the maximum of %s", repr(val), kw("maximum"))
	case "number_lt":
		msg = fmt.Sprintf("%s is greater than or equal to the maximum of %s", repr(val), limit("exclusiveMaximum", "maximum"))
	case "string_gte":
		msg = fmt.Sprintf("%s is too short", repr(val))
	case "string_lte":
		msg = fmt.Sprintf("%s is too long", repr(val))
	case "pattern":
		msg = fmt.Sprintf("%s does not match %s", repr(val), kw("pattern"))
	case "multiple_of":
		msg = fmt.Sprintf("%s is not a multiple of %s", repr(val), kw("multipleOf"))
	case "format":
		msg = fmt.Sprintf("%s is not a %s", repr(val), kw("format"))
	default:
		return e.Description()
	}
	if !found {
		return e.Description()
	}
	return msg
}

func unexpectedMessage(extras []string) string {
	quoted := make([]string, len(extras))
	for i, x := range extras {
		quoted[i] = repr(x)
	}
	verb := "was"
	if len(extras) > 1 {
		verb = "were"
	}
	return fmt.Sprintf("Additional properties are not allowed (%s %s unexpected)", strings.Join(quoted, ", "), verb)
}

func issueCode(t string) string {
	switch t {
	case "invalid_type":
		return csvmodel.CodeInvalidType
	case "required":
		return csvmodel.CodeRequired
	default:
		return t
	}
}

// expectedTypes returns the types of the (sub)schema that raised a type error,
// which the checker renders as "integer" or "[integer,string]".
func expectedTypes(e gojsonschema.ResultError) []string {
	exp := strings.TrimSuffix(strings.TrimPrefix(detailString(e, "expected"), "["), "]")
	if exp == "" || exp == "undefined" {
		return nil
	}
	return strings.Split(exp, ",")
}

func detailString(e gojsonschema.ResultError, key string) string {
	s, _ := e.Details()[key].(string)
	return s
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return len(list)
}
