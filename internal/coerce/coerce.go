// Package coerce maps raw input text to the normalized text values written
// to the export files. Every text-returning function is total: empty or
// unparsable input yields the empty marker "", never an error. Errors from
// malformed fields are absorbed here and never surface past this boundary.
//
// Identifier columns are deliberately not handled by this package; they are
// passed through byte-for-byte by the pipelines.
package coerce

import (
	"strconv"
	"strings"
	"time"
)

const (
	// timestampLayout is the fixed input timestamp pattern.
	timestampLayout = "2006/01/02 15:04"
	// isoLayout is the output pattern the loader expects for datetime fields.
	isoLayout = "2006-01-02T15:04:05"
)

// ParseInt parses raw as a base-10 integer after trimming whitespace.
func ParseInt(raw string) (int64, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, false
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Int returns the normalized decimal text of raw ("007" -> "7"), or "" when
// raw is empty or not an integer.
func Int(raw string) string {
	i, ok := ParseInt(raw)
	if !ok {
		return ""
	}
	return strconv.FormatInt(i, 10)
}

// ParseFloat parses raw as a decimal literal after trimming whitespace.
func ParseFloat(raw string) (float64, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Float returns the shortest round-trip text of raw as a 64-bit float, or ""
// when raw is empty or unparsable.
func Float(raw string) string {
	f, ok := ParseFloat(raw)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FlagBool renders a source "1/0" style flag as boolean text: exactly "1"
// (after trimming) maps to "true", everything else, including empty, maps to
// "false". The rule is strict and one-directional; it intentionally does NOT
// accept "true"/"yes"/etc.; see Bool for the lenient parser.
func FlagBool(raw string) string {
	if strings.TrimSpace(raw) == "1" {
		return "true"
	}
	return "false"
}

// Bool is the lenient, case-insensitive boolean parser used for explicit
// true/false text (CLI flags, converter input). Unlike FlagBool it reports
// an error for anything outside the accepted sets.
func Bool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y", "t":
		return true, nil
	case "false", "0", "no", "n", "f":
		return false, nil
	}
	return false, &boolError{raw: raw}
}

// BoolLiteral accepts only the "true"/"false" literals, case-insensitively;
// ok reports whether raw was one of them. Stricter than Bool on purpose:
// typed re-encoding must not widen the set of values the row encoding
// produced, so "1" or "yes" is not a boolean here.
func BoolLiteral(raw string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

type boolError struct{ raw string }

func (e *boolError) Error() string {
	return "expected a boolean value (true/false), got " + strconv.Quote(e.raw)
}

// Timestamp converts "YYYY/MM/DD HH:MM" into ISO-8601
// "YYYY-MM-DDTHH:MM:SS". Empty or unparsable input yields "".
func Timestamp(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	t, err := time.Parse(timestampLayout, v)
	if err != nil {
		return ""
	}
	return t.Format(isoLayout)
}
