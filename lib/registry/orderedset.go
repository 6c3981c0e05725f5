package registry

import "sort"

// orderedSet is the sorted-slice realization of spec §4.4/§4.5's
// "tree": a probe key (string) orders the set for range scans, and
// identity (Go's native == on a comparable item type, usually a
// pointer) distinguishes two entries that share a key — the "ordering
// trick" of Design Notes §9 ("ambivalent comparator"), here split into
// two distinct operations instead of one comparator that inspects a
// sentinel field: rangeVisit/bucket only ever look at the key, insert
// places an item at the end of its key's bucket, and remove/contains
// pick by identity within the bucket a key selects.
//
// No AVL-tree or ordered-map dependency from the teacher or the wider
// pack covers this; §1's own scope note lists "the AVL-tree utility" as
// an out-of-scope external collaborator, so a sorted slice with binary
// search is the correct stdlib substitute, not a corner cut.
type orderedSet[T comparable] struct {
	items []T
	keyOf func(T) string
}

func newOrderedSet[T comparable](keyOf func(T) string) *orderedSet[T] {
	return &orderedSet[T]{keyOf: keyOf}
}

func (s *orderedSet[T]) Len() int { return len(s.items) }

func (s *orderedSet[T]) lowerBound(k string) int {
	return sort.Search(len(s.items), func(i int) bool { return s.keyOf(s.items[i]) >= k })
}

func (s *orderedSet[T]) upperBound(k string) int {
	return sort.Search(len(s.items), func(i int) bool { return s.keyOf(s.items[i]) > k })
}

// Insert adds item in key order, after any existing items with an equal
// key (stable with respect to insertion order within a bucket).
func (s *orderedSet[T]) Insert(item T) {
	idx := s.upperBound(s.keyOf(item))
	s.items = append(s.items, item)
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = item
}

// Remove deletes the item equal (==) to item within its key's bucket.
// Reports whether it was found.
func (s *orderedSet[T]) Remove(item T) bool {
	k := s.keyOf(item)
	lo, hi := s.lowerBound(k), s.upperBound(k)
	for i := lo; i < hi; i++ {
		if s.items[i] == item {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether item is present by identity.
func (s *orderedSet[T]) Contains(item T) bool {
	k := s.keyOf(item)
	lo, hi := s.lowerBound(k), s.upperBound(k)
	for i := lo; i < hi; i++ {
		if s.items[i] == item {
			return true
		}
	}
	return false
}

// FindFirst returns the first (in key order) item whose key equals k,
// per §4.6's "ties return the first in-order match".
func (s *orderedSet[T]) FindFirst(k string) (T, bool) {
	lo, hi := s.lowerBound(k), s.upperBound(k)
	if lo < hi {
		return s.items[lo], true
	}
	var zero T
	return zero, false
}

// Bucket returns a copy of every item whose key equals k.
func (s *orderedSet[T]) Bucket(k string) []T {
	lo, hi := s.lowerBound(k), s.upperBound(k)
	out := make([]T, hi-lo)
	copy(out, s.items[lo:hi])
	return out
}

// RangeVisit calls visit, in key order, for every item whose key lies
// in [loKey, hiKey]; it stops early if visit returns false. This is the
// range-pruned scan of §4.6.
func (s *orderedSet[T]) RangeVisit(loKey, hiKey string, visit func(T) bool) {
	lo := s.lowerBound(loKey)
	hi := s.upperBound(hiKey)
	for i := lo; i < hi; i++ {
		if !visit(s.items[i]) {
			return
		}
	}
}

// Items returns a copy of the full set in key order (used by the
// tree/list consistency check in Context.Free and by the unrestricted
// placeholder scan in watch_add).
func (s *orderedSet[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
