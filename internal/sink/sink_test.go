package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return recs
}

// readParquetStrings loads a parquet file written by ParquetSink and returns
// its column names and per-column string values (nulls become "<null>").
func readParquetStrings(t *testing.T, path string) ([]string, map[string][]string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		t.Fatalf("parquet reader %s: %v", path, err)
	}
	rdr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		t.Fatalf("arrow reader %s: %v", path, err)
	}
	table, err := rdr.ReadTable(context.Background())
	if err != nil {
		t.Fatalf("read table %s: %v", path, err)
	}
	defer table.Release()

	names := make([]string, 0, table.NumCols())
	cols := make(map[string][]string, table.NumCols())
	for i := 0; i < int(table.NumCols()); i++ {
		name := table.Schema().Field(i).Name
		names = append(names, name)
		var vals []string
		for _, chunk := range table.Column(i).Data().Chunks() {
			sa := chunk.(*array.String)
			for j := 0; j < sa.Len(); j++ {
				if sa.IsNull(j) {
					vals = append(vals, "<null>")
					continue
				}
				vals = append(vals, sa.Value(j))
			}
		}
		cols[name] = vals
	}
	return names, cols
}

func TestCSVSinkHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.csv")
	fields := []string{"bank_id:ID(Bank){label:Bank}", "bank_name"}

	s, err := NewCSVSink(path, fields)
	if err != nil {
		t.Fatalf("NewCSVSink: %v", err)
	}
	if err := s.Write(Row{"bank_id:ID(Bank){label:Bank}": "B1", "bank_name": "Alpha"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Missing key is an empty cell, never an error.
	if err := s.Write(Row{"bank_id:ID(Bank){label:Bank}": "B2"}); err != nil {
		t.Fatalf("Write sparse: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := [][]string{
		{"bank_id:ID(Bank){label:Bank}", "bank_name"},
		{"B1", "Alpha"},
		{"B2", ""},
	}
	if got := readCSV(t, path); !reflect.DeepEqual(got, want) {
		t.Fatalf("csv content = %v, want %v", got, want)
	}
}

func TestParquetSinkDerivedHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.parquet")
	fields := []string{"bank_id:ID(Bank){label:Bank}", "bank_name"}

	s, err := NewParquetSink(path, fields, 2)
	if err != nil {
		t.Fatalf("NewParquetSink: %v", err)
	}
	rows := []Row{
		{"bank_id:ID(Bank){label:Bank}": "B1", "bank_name": "Alpha"},
		{"bank_id:ID(Bank){label:Bank}": "B2", "bank_name": "Beta"},
		{"bank_id:ID(Bank){label:Bank}": "B3"}, // crosses the batch boundary, sparse
	}
	for _, r := range rows {
		if err := s.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	names, cols := readParquetStrings(t, path)
	if want := []string{"bank_id:ID", "bank_name"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("columns = %v, want %v", names, want)
	}
	if want := []string{"B1", "B2", "B3"}; !reflect.DeepEqual(cols["bank_id:ID"], want) {
		t.Fatalf("ids = %v, want %v", cols["bank_id:ID"], want)
	}
	if want := []string{"Alpha", "Beta", ""}; !reflect.DeepEqual(cols["bank_name"], want) {
		t.Fatalf("names = %v, want %v", cols["bank_name"], want)
	}
}

// A columnar sink that never receives a row must still leave behind a valid,
// correctly-typed, empty file.
func TestParquetSinkEmptyFileValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.parquet")
	s, err := NewParquetSink(path, []string{"account_number:ID(Account){label:Account}"}, 0)
	if err != nil {
		t.Fatalf("NewParquetSink: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	names, cols := readParquetStrings(t, path)
	if want := []string{"account_number:ID"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("columns = %v, want %v", names, want)
	}
	if len(cols["account_number:ID"]) != 0 {
		t.Fatalf("expected zero rows, got %d", len(cols["account_number:ID"]))
	}
}

func TestRegistryLazyOpenAndCloseAll(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir, CSV, 0)

	a, err := reg.Get("2022_01_15_transactions", []string{"transaction_id:ID(Transaction)"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := reg.Get("2022_01_15_transactions", []string{"transaction_id:ID(Transaction)"})
	if err != nil {
		t.Fatalf("Get again: %v", err)
	}
	if a != b {
		t.Fatal("second Get returned a different sink")
	}
	if _, err := reg.Get("unknown_transactions", []string{"transaction_id:ID(Transaction)"}); err != nil {
		t.Fatalf("Get second role: %v", err)
	}
	if reg.Opened() != 2 {
		t.Fatalf("Opened = %d, want 2", reg.Opened())
	}

	if err := a.Write(Row{"transaction_id:ID(Transaction)": "2"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := reg.CloseAll(); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	// Idempotent: a second CloseAll (e.g. from a defer) must not fail.
	if err := reg.CloseAll(); err != nil {
		t.Fatalf("second CloseAll: %v", err)
	}

	for _, name := range []string{"2022_01_15_transactions.csv", "unknown_transactions.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
	}
}
