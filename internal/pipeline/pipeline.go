// Package pipeline implements the streaming transforms from flat financial
// records to graph bulk-import files.
//
// Each Run-style function owns all mutable state for one pass over one
// input stream: the dedup trackers and the sink registry are created inside
// the run and torn down before it returns, so concurrent runs (and tests)
// never share state. Processing is single-threaded; the only blocking is
// ordinary file I/O.
package pipeline

import (
	"context"
	"strings"
)

// Stats summarizes one pipeline run.
type Stats struct {
	Rows     int64 // input data rows read
	Skipped  int64 // rows dropped for a missing required identifier
	NodeRows int64 // node rows written across all node files
	RelRows  int64 // relationship rows written across all relationship files
	Sinks    int   // output sinks opened
}

// skipLogLimit caps per-row warnings so a pathological input cannot flood
// the log; the totals still land in Stats.
const skipLogLimit = 400

// progressEveryN is the reader heartbeat interval in rows.
const progressEveryN = 100_000

const utf8BOM = "\ufeff"

// stripBOM removes a UTF-8 BOM from the first header cell if present.
func stripBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return header
}

// canceled reports a cooperative cancellation check between rows.
func canceled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
