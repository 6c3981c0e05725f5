package registry

import (
	"reflect"
	"time"

	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

// Callback is invoked on WATCH_UPDATED (spec §4.8 step 4's "if a
// callback is set, call it").
type Callback func(s *Sample, event family.WatchEvent)

// WatchParams is the sampling profile of spec §3 "Watch parameters":
// interval, three reserved level thresholds, and an optional callback.
// Distinct samples sharing the same structural content share one
// interned WatchParams entry (spec §4.5).
type WatchParams struct {
	Interval time.Duration
	Levels   [3]value.Value
	Callback Callback

	useCount int
}

// callbackIdentity returns a comparable handle for Callback, since Go
// function values are only comparable against nil. This is the "opaque
// handle with identity equality" of Design Notes §9's interning-table
// note; it is an approximation (two equivalent closures taken at
// different call sites get different pointers, which is the correct,
// conservative behavior for interning).
func callbackIdentity(fn Callback) uintptr {
	if fn == nil {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

// sameParams is the structural-equality test of §4.5: "lookup/insert is
// by structural equality over interval, callback pointer, and the three
// reserved-level values".
func sameParams(a, b *WatchParams) bool {
	if a.Interval != b.Interval {
		return false
	}
	if callbackIdentity(a.Callback) != callbackIdentity(b.Callback) {
		return false
	}
	for i := range a.Levels {
		if !value.Equal(&a.Levels[i], &b.Levels[i]) {
			return false
		}
	}
	return true
}

// Sample is the registry's concrete implementation of family.Sample
// (spec §3 "Sample / Watch"): an active subscription to a Descriptor
// with its current value, timing state, and interned parameters.
type Sample struct {
	desc     *family.Descriptor
	val      value.Value
	watch    *WatchParams
	nextTime time.Time
	userData interface{}
}

func (s *Sample) Descriptor() *family.Descriptor { return s.desc }
func (s *Sample) Value() *value.Value            { return &s.val }
func (s *Sample) UserData() interface{}          { return s.userData }

var _ family.Sample = (*Sample)(nil)
