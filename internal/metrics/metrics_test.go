package metrics

import (
	"errors"
	"testing"
	"time"
)

type captureBackend struct {
	counters map[string]float64
	observed map[string][]float64
}

func (c *captureBackend) IncCounter(name string, delta float64, labels Labels) {
	c.counters[name+"|"+labels["job"]+"|"+labels["kind"]+"|"+labels["step"]+"|"+labels["status"]] += delta
}

func (c *captureBackend) ObserveHistogram(name string, value float64, labels Labels) {
	c.observed[name] = append(c.observed[name], value)
}

func (c *captureBackend) Flush() error { return nil }

func TestRecordRows(t *testing.T) {
	cap := &captureBackend{counters: map[string]float64{}, observed: map[string][]float64{}}
	SetBackend(cap)
	defer SetBackend(nopBackend{})

	RecordRows("transactions", "processed", 3)
	RecordRows("transactions", "processed", 2)
	RecordRows("transactions", "skipped", 0) // zero deltas are dropped

	if got := cap.counters["transform_rows_total|transactions|processed||"]; got != 5 {
		t.Fatalf("processed counter = %v, want 5", got)
	}
	if got := cap.counters["transform_rows_total|transactions|skipped||"]; got != 0 {
		t.Fatalf("skipped counter = %v, want 0", got)
	}
}

func TestRecordStepStatus(t *testing.T) {
	cap := &captureBackend{counters: map[string]float64{}, observed: map[string][]float64{}}
	SetBackend(cap)
	defer SetBackend(nopBackend{})

	RecordStep("accounts", "transform", nil, 10*time.Millisecond)
	RecordStep("accounts", "transform", errors.New("boom"), time.Millisecond)

	if got := cap.counters["transform_step_total|accounts||transform|success"]; got != 1 {
		t.Fatalf("success counter = %v, want 1", got)
	}
	if got := cap.counters["transform_step_total|accounts||transform|failure"]; got != 1 {
		t.Fatalf("failure counter = %v, want 1", got)
	}
	if got := len(cap.observed["transform_step_duration_seconds"]); got != 2 {
		t.Fatalf("observations = %d, want 2", got)
	}
}
