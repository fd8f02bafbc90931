package csvmodel

import "fmt"

// MissingPolicy controls how absent required columns are reported.
type MissingPolicy int

const (
	MissingPerColumn MissingPolicy = iota // One issue per missing column.
	MissingCount                          // One combined "missing N column(s)" issue.
)

// ParseMissingPolicy accepts "per-property" (or "per-column", "") and "count".
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch s {
	case "", "per-property", "per-column":
		return MissingPerColumn, nil
	case "count":
		return MissingCount, nil
	default:
		return 0, Errorf(ErrConfiguration, "parse missing-columns", s,
			"must be one of per-property, count")
	}
}

func (p MissingPolicy) String() string {
	switch p {
	case MissingPerColumn:
		return "per-property"
	case MissingCount:
		return "count"
	default:
		return fmt.Sprintf("MissingPolicy(%d)", int(p))
	}
}

// Unlimited is the LineLimit value that disables the row-count limit.
const Unlimited = 0

// Settings is the resolved configuration for validating one file.
type Settings struct {
	Validator      string        // Backend name, e.g. "jsonschema".
	Schema         SchemaSpec    // Where the schema lives.
	Separator      string        // Field delimiter.
	LineLimit      int           // Maximum data rows to read; Unlimited reads all.
	MissingColumns MissingPolicy // Reporting policy for absent required columns.
}

// BackendConfig is what a Factory receives.
type BackendConfig struct {
	Schema         SchemaSpec
	MissingColumns MissingPolicy
}
