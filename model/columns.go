package model

import (
	"reflect"
	"strings"
)

// ResolveColumn applies the rule that maps a struct field to a column name.
// Priority: csv tag > json tag > field name; "-" skips the field. The csv tag
// accepts an ",optional" flag for non-pointer fields.
func ResolveColumn(sf reflect.StructField) (name string, optional bool) {
	if ct, ok := sf.Tag.Lookup("csv"); ok {
		n, rest, _ := strings.Cut(ct, ",")
		for _, p := range strings.Split(rest, ",") {
			if strings.TrimSpace(p) == "optional" {
				optional = true
			}
		}
		if n = strings.TrimSpace(n); n != "" {
			return n, optional
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-", optional
		}
		n, rest, _ := strings.Cut(jt, ",")
		if strings.Contains(rest, "omitempty") {
			optional = true
		}
		if n != "" {
			return n, optional
		}
	}
	return sf.Name, optional
}
