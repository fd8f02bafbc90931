package csvmodel

import (
	"fmt"
	"strings"
)

// SchemaKind tells a backend where a schema definition lives.
type SchemaKind int

const (
	SchemaLiteral   SchemaKind = iota // Schema text embedded in the configuration.
	SchemaFile                        // Path to a file holding the schema.
	SchemaModuleRef                   // Reference to code already linked into the process.
)

var schemaKindNames = [...]string{
	SchemaLiteral:   "inline",
	SchemaFile:      "file",
	SchemaModuleRef: "module",
}

// String returns the prefix used for the kind in configuration strings.
func (k SchemaKind) String() string {
	if k < 0 || int(k) >= len(schemaKindNames) {
		return fmt.Sprintf("SchemaKind(%d)", int(k))
	}
	return schemaKindNames[k]
}

// SchemaSpec is a tagged description of where a schema is defined. Details are
// not validated here; backends interpret them when they are constructed.
type SchemaSpec struct {
	Kind    SchemaKind
	Details string
}

// ParseSchemaSpec parses a configuration string of the form
// "file:<path>", "inline:<text>" or "module:<module>:<symbol>". Any other
// string is taken as inline schema text in its entirety.
func ParseSchemaSpec(s string) SchemaSpec {
	if prefix, rest, ok := strings.Cut(s, ":"); ok {
		for k, name := range schemaKindNames {
			if prefix == name {
				return SchemaSpec{Kind: SchemaKind(k), Details: rest}
			}
		}
	}
	return SchemaSpec{Kind: SchemaLiteral, Details: s}
}

// String returns the canonical "<kind>:<details>" form accepted by ParseSchemaSpec.
func (s SchemaSpec) String() string {
	return s.Kind.String() + ":" + s.Details
}

// Symbol splits Details on the first ':' into an origin (file path or module
// name) and a symbol name. It fails when either half is empty.
func (s SchemaSpec) Symbol() (origin, symbol string, err error) {
	origin, symbol, ok := strings.Cut(s.Details, ":")
	if !ok || origin == "" || symbol == "" {
		return "", "", Errorf(ErrConfiguration, "parse schema reference", s.String(),
			"expected <%s>:<symbol>", originName(s.Kind))
	}
	return origin, symbol, nil
}

func originName(k SchemaKind) string {
	if k == SchemaModuleRef {
		return "module"
	}
	return "path"
}
