package family

import "github.com/calmh/sensord/lib/value"

// Key is an opaque backend handle identifying a sensor within its
// family (spec §3 "Descriptor": "key: opaque backend pointer"). Real
// families can use whatever comparable type suits them (a string, an
// index, a platform handle); the registry never inspects it.
type Key interface{}

// PendingKey is the Key carried by a loading placeholder descriptor:
// the original pattern it stands in for, plus a monotonically
// increasing id distinguishing multiple concurrent placeholders for the
// same family (spec §3 "Loading placeholder").
type PendingKey struct {
	Pattern string
	ID      uint64
}

// Property is one element of a Descriptor's ordered property list
// (spec §3: "properties: optional ordered list of (name,Value)").
type Property struct {
	Name  string
	Value value.Value
}

// LoadingProperties is the reserved sentinel property list every
// placeholder descriptor carries (spec §3). Design Notes §9 prescribes
// representing the placeholder as an explicit variant rather than a
// sentinel-pointer comparison on Properties; we do both: Pending is the
// explicit discriminant, and LoadingProperties remains available for
// hosts that want to recognize a placeholder by its property list alone
// (e.g. when serializing a Descriptor across a boundary that drops the
// Pending field).
var LoadingProperties = []Property{{Name: "status", Value: mustString("loading")}}

func mustString(s string) value.Value {
	v, err := value.NewBuffer(value.TypeString, len(s)+1)
	if err != nil {
		panic(err)
	}
	if _, err := value.FromRaw(&v, []byte(s)); err != nil {
		panic(err)
	}
	return v
}

// Info identifies a registered family: its name (part of every
// descriptor's identity, spec §3 "Identity is (family.name, label)") and
// the backend implementation itself.
type Info struct {
	Name string
	Impl Family
}

// Descriptor is the immutable-after-registration schema entry for one
// sensor (spec §3 "Descriptor").
type Descriptor struct {
	Key        Key
	Label      string
	Properties []Property
	ValueType  value.Type
	Family     *Info

	// Pending is non-nil iff this Descriptor is a loading placeholder
	// standing in for an unresolved pattern (spec §3 "Loading
	// placeholder", Design Notes §9 "represent as a distinct descriptor
	// variant Pending{pattern, id}").
	Pending *PendingKey
}

// FullName returns the "family/label" identity string used throughout
// pattern matching (spec §1, §4.6).
func (d *Descriptor) FullName() string {
	name := "?"
	if d.Family != nil {
		name = d.Family.Name
	}
	return name + "/" + d.Label
}
