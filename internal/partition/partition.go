// Package partition derives the grouping key that decides which physical
// output file a row lands in. The derivation must stay pure and
// referentially transparent: identical input always yields the identical
// key, because the key determines file placement.
package partition

import (
	"strings"
	"time"
)

const (
	// All is the constant key used when date splitting is disabled. It never
	// appears in filenames; unpartitioned files simply carry no day prefix.
	All = "all"

	// Unknown is the sentinel key for timestamps whose date portion cannot
	// be parsed.
	Unknown = "unknown"
)

const dayLayout = "2006/01/02"

// DayKey extracts a calendar-day key from a raw "YYYY/MM/DD HH:MM"
// timestamp: the first 10 characters validated as "YYYY/MM/DD" with the
// separators replaced by underscores ("2022/01/15 08:30" -> "2022_01_15").
// Shorter or invalid input yields Unknown.
func DayKey(timestamp string) string {
	v := strings.TrimSpace(timestamp)
	if len(v) < 10 {
		return Unknown
	}
	datePart := v[:10]
	if _, err := time.Parse(dayLayout, datePart); err != nil {
		return Unknown
	}
	return strings.ReplaceAll(datePart, "/", "_")
}

// Key returns DayKey(timestamp) when splitting is enabled and All otherwise.
func Key(timestamp string, splitByDate bool) string {
	if !splitByDate {
		return All
	}
	return DayKey(timestamp)
}
