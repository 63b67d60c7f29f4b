package datadog

import (
	"testing"

	"github.com/chboudry/finance/internal/metrics"
)

func TestNewBackendRequiresAddr(t *testing.T) {
	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("empty Addr accepted")
	}
}

// DogStatsD is UDP, so constructing a client needs no running agent; this
// exercises the option-based configuration path end to end.
func TestNewBackendWithOptions(t *testing.T) {
	b, err := NewBackend(Config{
		Addr:       "127.0.0.1:8125",
		Namespace:  "finance",
		GlobalTags: []string{"env:test"},
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter("transform_rows_total", 1, metrics.Labels{"job": "transactions", "kind": "processed"})
	b.ObserveHistogram("transform_step_duration_seconds", 0.5, metrics.Labels{"job": "transactions"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
