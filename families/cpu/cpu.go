// Package cpu is a reference Family backed by gopsutil's per-CPU percent
// counters: one descriptor per logical CPU plus a "total" average (spec
// §4 expansion "families/cpu"). It is the family §8 scenario 1 exercises
// verbatim (cpu/* glob, periodic sampling).
package cpu

import (
	"strconv"
	"time"

	gopsutilcpu "github.com/shirou/gopsutil/v4/cpu"

	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

// sampleInterval is how long gopsutil blocks measuring before returning
// a percent figure; 0 would return the instantaneous percent since the
// last call, which is too noisy for a demo reference family.
const sampleInterval = 200 * time.Millisecond

type backend struct {
	info *family.Info
}

// New returns a ready-to-register family.Info; pass the result to
// registry.WithFamily or registry.FamilyRegister.
func New() *family.Info {
	info := &family.Info{Name: "cpu"}
	info.Impl = &backend{info: info}
	return info
}

func (b *backend) Init() (family.Status, error) { return family.Success, nil }
func (b *backend) Free()                        {}

func (b *backend) List() ([]*family.Descriptor, error) {
	percents, err := gopsutilcpu.Percent(0, true)
	if err != nil {
		return nil, err
	}
	descs := make([]*family.Descriptor, 0, len(percents)+1)
	descs = append(descs, &family.Descriptor{Label: "total", ValueType: value.TypeUChar, Family: b.info})
	for i := range percents {
		descs = append(descs, &family.Descriptor{Label: strconv.Itoa(i), ValueType: value.TypeUChar, Family: b.info})
	}
	return descs, nil
}

func (b *backend) Update(s family.Sample, now family.Now) (family.Status, error) {
	percents, err := gopsutilcpu.Percent(sampleInterval, true)
	if err != nil {
		return family.Error, err
	}

	label := s.Descriptor().Label
	var pct float64
	if label == "total" {
		for _, p := range percents {
			pct += p
		}
		if len(percents) > 0 {
			pct /= float64(len(percents))
		}
	} else {
		idx, err := strconv.Atoi(label)
		if err != nil || idx < 0 || idx >= len(percents) {
			// The CPU topology changed (hot-unplug, container resize):
			// re-enumerate rather than report a stale index.
			return family.ReloadFamily, nil
		}
		pct = percents[idx]
	}
	if pct < 0 {
		pct = 0
	} else if pct > 255 {
		pct = 255
	}

	status, err := value.FromRaw(s.Value(), []byte{byte(pct)})
	if status == value.Updated {
		return family.Updated, err
	}
	return family.Unchanged, err
}

func (b *backend) Notify(family.WatchEvent, *family.Info, family.Sample, interface{}) (family.Status, error) {
	return family.Success, nil
}

var _ family.Family = (*backend)(nil)
