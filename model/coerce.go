package model

import (
	"encoding"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Reasons reported for fields that fail to coerce.
var (
	errRequired = errors.New("field required")
	errInt      = errors.New("value is not a valid integer")
	errUint     = errors.New("ensure this value is greater than or equal to 0")
	errFloat    = errors.New("value is not a valid float")
	errBool     = errors.New("value could not be parsed to a boolean")
	errTime     = errors.New("invalid datetime format")
	errDuration = errors.New("invalid duration format")
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// set coerces raw into dst, which has the field's element type. Strings are
// stored as written; every other kind parses the value with surrounding
// whitespace removed.
func (f *field) set(dst reflect.Value, raw string) error {
	s := strings.TrimSpace(raw)
	switch f.kind {
	case kindString:
		dst.SetString(raw)
	case kindBool:
		b, ok := parseBool(s)
		if !ok {
			return errBool
		}
		dst.SetBool(b)
	case kindInt:
		n, err := strconv.ParseInt(s, 10, f.typ.Bits())
		if err != nil {
			return errInt
		}
		dst.SetInt(n)
	case kindUint:
		if strings.HasPrefix(s, "-") {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				return errUint
			}
		}
		n, err := strconv.ParseUint(s, 10, f.typ.Bits())
		if err != nil {
			return errInt
		}
		dst.SetUint(n)
	case kindFloat:
		n, err := strconv.ParseFloat(s, f.typ.Bits())
		if err != nil {
			return errFloat
		}
		dst.SetFloat(n)
	case kindTime:
		t, ok := parseTime(s)
		if !ok {
			return errTime
		}
		dst.Set(reflect.ValueOf(t))
	case kindDuration:
		d, err := time.ParseDuration(s)
		if err != nil {
			return errDuration
		}
		dst.SetInt(int64(d))
	case kindText:
		u := dst.Addr().Interface().(encoding.TextUnmarshaler)
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return err
		}
	}
	return nil
}

// parseBool accepts the usual spellings of true and false, case-insensitively.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "true", "t", "yes", "y", "on":
		return true, true
	case "0", "false", "f", "no", "n", "off":
		return false, true
	}
	return false, false
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
