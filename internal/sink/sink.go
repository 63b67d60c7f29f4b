// Package sink implements the output side of the export pipelines: a common
// Sink abstraction with a row-oriented (CSV) and a columnar (Parquet)
// implementation, plus a Registry that lazily opens one sink per logical
// file role and partition key and closes everything exactly once.
package sink

import "fmt"

// Row maps row-encoding column names to text values. A missing key is
// written as empty text; writers never fail on absent columns.
type Row map[string]string

// Sink accepts rows for one output file. Implementations differ in physical
// encoding and buffering but share the schema naming contract.
type Sink interface {
	Write(Row) error
	Close() error
}

// Format selects the physical output encoding.
type Format int

const (
	// CSV writes one header line plus one line per row, unbuffered beyond
	// the writer's own buffering, using the full identifier-tagged headers.
	CSV Format = iota
	// Parquet buffers rows into fixed-size batches of string columns, using
	// the derived columnar headers.
	Parquet
)

// Ext returns the filename extension for the format, dot included.
func (f Format) Ext() string {
	if f == Parquet {
		return ".parquet"
	}
	return ".csv"
}

func (f Format) String() string {
	if f == Parquet {
		return "parquet"
	}
	return "csv"
}

// ParseFormat resolves a -format flag value.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "csv":
		return CSV, nil
	case "parquet":
		return Parquet, nil
	}
	return CSV, fmt.Errorf("unsupported output format %q (want csv or parquet)", s)
}

// DefaultBatchSize is the columnar sink's row-buffer size when the caller
// does not override it.
const DefaultBatchSize = 5000
