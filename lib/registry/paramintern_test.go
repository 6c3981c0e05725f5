package registry

import (
	"testing"
	"time"
)

func TestParamTableInternsStructuralDuplicates(t *testing.T) {
	pt := newParamTable()
	a := pt.Intern(&WatchParams{Interval: 100 * time.Millisecond})
	b := pt.Intern(&WatchParams{Interval: 100 * time.Millisecond})
	if a != b {
		t.Fatal("two structurally equal WatchParams interned to distinct entries")
	}
	if pt.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", pt.Len())
	}
	if got := pt.UseCount(a); got != 2 {
		t.Fatalf("UseCount = %d, want 2", got)
	}
}

func TestParamTableDistinctIntervalsDontShare(t *testing.T) {
	pt := newParamTable()
	a := pt.Intern(&WatchParams{Interval: 100 * time.Millisecond})
	b := pt.Intern(&WatchParams{Interval: 200 * time.Millisecond})
	if a == b {
		t.Fatal("distinct intervals interned to the same entry")
	}
	if pt.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", pt.Len())
	}
}

func TestParamTableReleaseRemovesAtZero(t *testing.T) {
	pt := newParamTable()
	a := pt.Intern(&WatchParams{Interval: 50 * time.Millisecond})
	pt.Intern(&WatchParams{Interval: 50 * time.Millisecond})
	if pt.UseCount(a) != 2 {
		t.Fatalf("UseCount after two interns = %d, want 2", pt.UseCount(a))
	}
	pt.Release(a)
	if pt.Len() != 1 {
		t.Fatalf("Len() after one release = %d, want 1 (entry still referenced once)", pt.Len())
	}
	pt.Release(a)
	if pt.Len() != 0 {
		t.Fatalf("Len() after releasing last reference = %d, want 0", pt.Len())
	}
}

func TestParamTableGCD(t *testing.T) {
	pt := newParamTable()
	pt.Intern(&WatchParams{Interval: 250 * time.Millisecond})
	pt.Intern(&WatchParams{Interval: 100 * time.Millisecond})
	if got, want := pt.GCD(1.0), 50*time.Millisecond; got != want {
		t.Fatalf("GCD(1.0) = %v, want %v", got, want)
	}
}

func TestParamTableGCDEmpty(t *testing.T) {
	pt := newParamTable()
	if got := pt.GCD(1.0); got != 0 {
		t.Fatalf("GCD on empty table = %v, want 0", got)
	}
}
