package sink

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVSink writes the row encoding: a header line at creation time listing
// the full identifier-tagged column names, then one line per Write.
type CSVSink struct {
	f      *os.File
	w      *csv.Writer
	fields []string
	rec    []string // scratch, reused across writes
}

// NewCSVSink creates path, writes the header line, and returns the sink.
func NewCSVSink(path string, fields []string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(fields); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return &CSVSink{
		f:      f,
		w:      w,
		fields: fields,
		rec:    make([]string, len(fields)),
	}, nil
}

// Write emits one line in header order. Missing keys become empty cells.
func (s *CSVSink) Write(row Row) error {
	for i, name := range s.fields {
		s.rec[i] = row[name]
	}
	if err := s.w.Write(s.rec); err != nil {
		return fmt.Errorf("write %s: %w", s.f.Name(), err)
	}
	return nil
}

// Close flushes buffered lines and closes the file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close %s: %w", s.f.Name(), err)
	}
	return nil
}
