package registry

import (
	"math"
	"time"
)

// paramTable is the interning table of spec §4.5 ("param_tree"): entries
// are deduplicated by structural equality (sameParams) and refcounted.
//
// The spec models this as a tree ordered by "(data, handle-id)" so that
// watch_pgcd can do an "in-order fold". A GCD fold is commutative and
// associative, so any consistent iteration order yields the same
// result; a plain slice in insertion order satisfies that without
// needing a total order over Value payloads (Value contains a byte
// slice, so it cannot be a Go map key, and inventing an arbitrary total
// order over arbitrary level values would be guesswork the spec doesn't
// ask for).
type paramTable struct {
	entries []*WatchParams
}

func newParamTable() *paramTable {
	return &paramTable{}
}

// Intern finds an existing entry structurally equal to p and increments
// its use_count, or adopts p as a new entry with use_count = 1.
func (t *paramTable) Intern(p *WatchParams) *WatchParams {
	for _, e := range t.entries {
		if sameParams(e, p) {
			e.useCount++
			return e
		}
	}
	p.useCount = 1
	t.entries = append(t.entries, p)
	return p
}

// Release decrements p's use_count, removing the entry at zero (spec
// §4.5's "each remove decrements and, at zero, removes the entry").
func (t *paramTable) Release(p *WatchParams) {
	if p == nil {
		return
	}
	p.useCount--
	if p.useCount > 0 {
		return
	}
	for i, e := range t.entries {
		if e == p {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// Len reports the number of distinct interned entries (used by P2/
// scenario 3 tests).
func (t *paramTable) Len() int { return len(t.entries) }

// UseCount returns p's current reference count (0 if not present).
func (t *paramTable) UseCount(p *WatchParams) int {
	for _, e := range t.entries {
		if e == p {
			return e.useCount
		}
	}
	return 0
}

// GCD folds a rounded GCD of every interned interval, in milliseconds,
// at the given precision (spec §4.8 "watch_pgcd"). precision <= 0
// defaults to 1.0ms.
func (t *paramTable) GCD(precision float64) time.Duration {
	if precision <= 0 {
		precision = 1.0
	}
	var acc int64
	for _, e := range t.entries {
		ms := int64(math.Round(float64(e.Interval.Milliseconds()) / precision))
		if ms <= 0 {
			continue
		}
		if acc == 0 {
			acc = ms
			continue
		}
		acc = gcdInt64(acc, ms)
	}
	if acc == 0 {
		return 0
	}
	return time.Duration(float64(acc)*precision) * time.Millisecond
}

func gcdInt64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}
