package sink

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Registry owns every sink of one pipeline run. Sinks are opened on first
// use for a given file name and stay open until CloseAll; the arena+index
// shape (one map, one authoritative close loop) is what guarantees no sink
// leaks on any exit path.
//
// A Registry is not safe for concurrent use; one run mutates it from a
// single goroutine.
type Registry struct {
	dir       string
	format    Format
	batchSize int
	sinks     map[string]Sink
	names     []string // creation order, for deterministic close
}

// NewRegistry returns a Registry writing files under dir in the given
// format. batchSize applies to columnar sinks; <=0 selects the default.
func NewRegistry(dir string, format Format, batchSize int) *Registry {
	return &Registry{
		dir:       dir,
		format:    format,
		batchSize: batchSize,
		sinks:     make(map[string]Sink),
	}
}

// Get returns the open sink for name (a base filename without extension),
// opening it on first use. The first call creates parent directories and,
// for the row encoding, writes the header line before any data row. fields
// must be identical across calls for the same name.
func (r *Registry) Get(name string, fields []string) (Sink, error) {
	if s, ok := r.sinks[name]; ok {
		return s, nil
	}

	path := filepath.Join(r.dir, name+r.format.Ext())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir for %s: %w", path, err)
	}

	var (
		s   Sink
		err error
	)
	switch r.format {
	case Parquet:
		s, err = NewParquetSink(path, fields, r.batchSize)
	default:
		s, err = NewCSVSink(path, fields)
	}
	if err != nil {
		return nil, err
	}

	r.sinks[name] = s
	r.names = append(r.names, name)
	return s, nil
}

// Opened returns how many sinks have been created so far.
func (r *Registry) Opened() int { return len(r.names) }

// CloseAll closes every sink ever created, each exactly once, flushing
// buffered data. All sinks are attempted even when one fails; the first
// error wins. Subsequent calls are no-ops, so CloseAll is safe both in a
// defer and on the normal path.
func (r *Registry) CloseAll() error {
	var first error
	for _, name := range r.names {
		if err := r.sinks[name].Close(); err != nil {
			log.Printf("sink: close %s: %v", name, err)
			if first == nil {
				first = err
			}
		}
	}
	r.sinks = make(map[string]Sink)
	r.names = nil
	return first
}
