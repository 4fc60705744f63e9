package table

import (
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Sources is the enumeration snapshot served round-robin by fetch.
//
// A snapshot is served until it has answered refresh calls or is expire
// old, whichever comes first. Keys are kept sorted, so iteration order is
// stable between refreshes.
type Sources struct {
	keys   []string
	cursor int // index of the last key returned, -1 for none

	refreshed time.Time
	calls     int

	refresh int
	expire  time.Duration
	now     func() time.Time
}

// NewSources returns an empty snapshot that is stale immediately.
func NewSources(refresh int, expire time.Duration, now func() time.Time) *Sources {
	if now == nil {
		now = time.Now
	}
	return &Sources{cursor: -1, refresh: refresh, expire: expire, now: now}
}

// Stale reports whether the snapshot must be refreshed before serving.
func (s *Sources) Stale() bool {
	return s.calls >= s.refresh || s.now().Sub(s.refreshed) >= s.expire
}

// Replace swaps in a new key set and restarts iteration and counters.
func (s *Sources) Replace(keys mapset.Set[string]) {
	sorted := keys.ToSlice()
	slices.Sort(sorted)

	s.keys = sorted
	s.cursor = -1
	s.calls = 0
	s.refreshed = s.now()
}

// Next returns the key after the cursor, wrapping to the first key past the
// end. ok is false when the snapshot is empty. Every call counts toward
// the refresh threshold.
func (s *Sources) Next() (key string, ok bool) {
	s.calls++
	if len(s.keys) == 0 {
		return "", false
	}
	s.cursor = (s.cursor + 1) % len(s.keys)
	return s.keys[s.cursor], true
}

// Len returns the number of keys in the snapshot.
func (s *Sources) Len() int { return len(s.keys) }

// Calls returns the number of calls served since the last refresh.
func (s *Sources) Calls() int { return s.calls }

// Refreshed returns when the snapshot was last replaced.
func (s *Sources) Refreshed() time.Time { return s.refreshed }
