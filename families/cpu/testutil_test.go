package cpu

import (
	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

// stubSample is a minimal family.Sample for exercising a backend's
// Update method directly, without a full registry.Context.
type stubSample struct {
	desc *family.Descriptor
	val  value.Value
}

func (s *stubSample) Descriptor() *family.Descriptor { return s.desc }
func (s *stubSample) Value() *value.Value            { return &s.val }
func (s *stubSample) UserData() interface{}          { return nil }

var _ family.Sample = (*stubSample)(nil)

func newScalarFor(d *family.Descriptor) (value.Value, error) {
	if d.ValueType.IsBuffer() {
		return value.NewBuffer(d.ValueType, 64)
	}
	return value.New(d.ValueType)
}
