package registry

import (
	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

// fakeFamily is a minimal, fully scriptable family.Family used across
// this package's tests, in place of a real OS backend.
type fakeFamily struct {
	descs []*family.Descriptor

	updateFn func(s family.Sample, now family.Now) (family.Status, error)
	notifyFn func(event family.WatchEvent, self *family.Info, s family.Sample, data interface{}) (family.Status, error)

	initStatus family.Status
	initErr    error
	freed      bool
	notifies   []family.WatchEvent
}

func (f *fakeFamily) Init() (family.Status, error) {
	if f.initErr != nil {
		return family.Error, f.initErr
	}
	if f.initStatus == family.NotSupported {
		return family.NotSupported, nil
	}
	return family.Success, nil
}

func (f *fakeFamily) Free() { f.freed = true }

func (f *fakeFamily) List() ([]*family.Descriptor, error) {
	return f.descs, nil
}

func (f *fakeFamily) Update(s family.Sample, now family.Now) (family.Status, error) {
	if f.updateFn != nil {
		return f.updateFn(s, now)
	}
	return family.Unchanged, nil
}

func (f *fakeFamily) Notify(event family.WatchEvent, self *family.Info, s family.Sample, data interface{}) (family.Status, error) {
	f.notifies = append(f.notifies, event)
	if f.notifyFn != nil {
		return f.notifyFn(event, self, s, data)
	}
	return family.Success, nil
}

var _ family.Family = (*fakeFamily)(nil)

func newDescriptor(info *family.Info, label string, t value.Type) *family.Descriptor {
	return &family.Descriptor{Label: label, ValueType: t, Family: info}
}
