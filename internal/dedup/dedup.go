// Package dedup tracks entity-identifier membership for one pipeline run so
// each node row is emitted at most once, in first-seen input order, no
// matter how many relationship rows reference the same identifier.
//
// Trackers are owned by the run that creates them; there is no package-level
// state, so concurrent runs (tests included) never interfere.
package dedup

import "github.com/zeebo/xxh3"

// Tracker reports whether an identifier value is being seen for the first
// time. Implementations return true exactly once per distinct value.
type Tracker interface {
	FirstSeen(id string) (bool, error)
	Close() error
}

// Set is the in-memory Tracker. Identifiers are stored as 128-bit xxh3
// hashes rather than the strings themselves, which keeps the per-entry cost
// fixed for long account numbers.
type Set struct {
	seen map[xxh3.Uint128]struct{}
}

// NewSet returns an empty in-memory tracker.
func NewSet() *Set {
	return &Set{seen: make(map[xxh3.Uint128]struct{})}
}

// FirstSeen implements Tracker. It never fails.
func (s *Set) FirstSeen(id string) (bool, error) {
	h := xxh3.HashString128(id)
	if _, ok := s.seen[h]; ok {
		return false, nil
	}
	s.seen[h] = struct{}{}
	return true, nil
}

// Len returns the number of distinct identifiers seen so far.
func (s *Set) Len() int { return len(s.seen) }

// Close implements Tracker. A Set holds no resources.
func (s *Set) Close() error { return nil }
