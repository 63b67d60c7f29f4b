package dedup

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSetFirstSeenOnce(t *testing.T) {
	s := NewSet()
	for i, id := range []string{"B1", "B2", "B1", "B1", "B3", "B2"} {
		first, err := s.FirstSeen(id)
		if err != nil {
			t.Fatalf("FirstSeen(%q): %v", id, err)
		}
		want := i == 0 || i == 1 || i == 4
		if first != want {
			t.Fatalf("call %d FirstSeen(%q) = %v, want %v", i, id, first, want)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
}

func TestSetDistinguishesIDs(t *testing.T) {
	s := NewSet()
	ids := []string{"", "0", "00", "B1", "b1", " B1"}
	for _, id := range ids {
		if first, _ := s.FirstSeen(id); !first {
			t.Fatalf("distinct id %q reported as seen", id)
		}
	}
	for _, id := range ids {
		if first, _ := s.FirstSeen(id); first {
			t.Fatalf("repeated id %q reported as first", id)
		}
	}
}

func TestIndexFirstSeen(t *testing.T) {
	ctx := context.Background()
	ix, err := OpenIndex(ctx, filepath.Join(t.TempDir(), "dedup.db"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer ix.Close()

	banks := ix.Kind("bank")
	entities := ix.Kind("entity")

	first, err := banks.FirstSeen("B1")
	if err != nil || !first {
		t.Fatalf("bank B1 first call = %v, %v", first, err)
	}
	first, err = banks.FirstSeen("B1")
	if err != nil || first {
		t.Fatalf("bank B1 second call = %v, %v", first, err)
	}

	// Same identifier under a different kind is a different entity.
	first, err = entities.FirstSeen("B1")
	if err != nil || !first {
		t.Fatalf("entity B1 first call = %v, %v", first, err)
	}
}
