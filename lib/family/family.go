package family

import (
	"time"

	"github.com/calmh/sensord/lib/value"
)

// Sample is the minimal view of a registry watch that a Family needs in
// order to refresh its value (spec §3 "Sample"). The registry's concrete
// sample type implements this interface; Family implementations never
// see registry internals, avoiding an import cycle between the family
// and registry packages (family is the lower layer, per spec §2's
// dataflow).
type Sample interface {
	Descriptor() *Descriptor
	Value() *value.Value
	UserData() interface{}
}

// Now is the Deadline of spec Design Notes §9: "Force-update via now =
// null. Replace with an explicit enum Deadline::Force | Deadline::At
// (Instant)." Force asks the family to refresh unconditionally,
// corresponding to the spec's "now == null forces update".
type Now struct {
	Force bool
	Time  time.Time
}

// At builds a Now carrying a concrete sample time.
func At(t time.Time) Now { return Now{Time: t} }

// ForceNow builds a Now that forces an unconditional update.
func ForceNow() Now { return Now{Force: true} }

// Family is the capability vtable a sensor plugin must expose (spec
// §4.2). Write and Notify are optional in the original spec ("may be
// absent"); callers type-assert for the Writer interface below, and
// Notify may be a no-op implementation rather than actually absent,
// since Go interfaces cannot omit a method conditionally.
type Family interface {
	// Init allocates backend state. Returns NotSupported if the
	// platform doesn't apply, Error on failure (in which case the
	// registry will not call Free).
	Init() (Status, error)

	// Free releases backend state. Must be idempotent.
	Free()

	// List returns a fresh slice of descriptors. It may return a single
	// placeholder Descriptor (Pending != nil) to signal that
	// enumeration is still running on a background task.
	List() ([]*Descriptor, error)

	// Update refreshes sample's value and reports what happened. See
	// Status for the full outcome vocabulary.
	Update(sample Sample, now Now) (Status, error)

	// Notify receives lifecycle events (WatchEvent bitmask).
	Notify(event WatchEvent, self *Info, sample Sample, eventData interface{}) (Status, error)
}

// Writer is implemented by families whose sensors accept writes (spec
// §4.2 "write(desc, &value) -> status ... optional").
type Writer interface {
	Write(desc *Descriptor, v *value.Value) (Status, error)
}
