package registry

import (
	"github.com/calmh/sensord/internal/logger"
	"github.com/calmh/sensord/lib/events"
	"github.com/calmh/sensord/lib/family"
)

// CommonFamily is the "common" family of spec §4.3 ("family_common"):
// shared services every embedding gets for free, currently the event
// queue. Richer implementations (e.g. families/common, which adds a
// suture-supervised worker and a real hotplug source) satisfy this same
// interface and can be installed via WithCommonFamily.
type CommonFamily interface {
	family.Family
	Queue() *events.Queue
}

// defaultCommonFamily is the minimal built-in implementation Init
// installs when the caller doesn't supply one: it owns only the event
// queue, with List/Update/Notify as no-ops, matching spec §4.3's "the
// built-in common family... currently: the event queue and a worker
// thread" (the worker thread itself is families/common's job; this
// default exists so Context.FamilyCommon() is never nil).
type defaultCommonFamily struct {
	q *events.Queue
}

func newDefaultCommonFamily() *defaultCommonFamily {
	return &defaultCommonFamily{q: events.NewQueue()}
}

func (f *defaultCommonFamily) Init() (family.Status, error) { return family.Success, nil }
func (f *defaultCommonFamily) Free()                        {}
func (f *defaultCommonFamily) List() ([]*family.Descriptor, error) {
	return nil, nil
}
func (f *defaultCommonFamily) Update(family.Sample, family.Now) (family.Status, error) {
	return family.NotSupported, nil
}
func (f *defaultCommonFamily) Notify(family.WatchEvent, *family.Info, family.Sample, interface{}) (family.Status, error) {
	return family.Success, nil
}
func (f *defaultCommonFamily) Queue() *events.Queue { return f.q }

var _ CommonFamily = (*defaultCommonFamily)(nil)

// commonFamilyName is the reserved name of spec §4.3's built-in family,
// freed last by Context.Free.
const commonFamilyName = "common"

func notifyAll(families []*family.Info, event family.WatchEvent, self *family.Info, s family.Sample, data interface{}, log *logger.Logger) {
	for _, info := range families {
		status, err := info.Impl.Notify(event, self, s, data)
		if err != nil && status == family.Error {
			log.Warnf("notify %s -> %s: %v", info.Name, event, err)
		}
	}
}
