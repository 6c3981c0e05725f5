// Package mem is a reference Family backed by gopsutil's virtual memory
// counters: mem/total, mem/used, mem/free as uint64 byte counts (spec §4
// expansion "families/mem"). It exists to demonstrate a second,
// independently reloadable family coexisting with cpu in the same
// registry (§4.4's ordering trick across two families).
package mem

import (
	"encoding/binary"

	gopsutilmem "github.com/shirou/gopsutil/v4/mem"

	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

type backend struct {
	info *family.Info
}

// New returns a ready-to-register family.Info.
func New() *family.Info {
	info := &family.Info{Name: "mem"}
	info.Impl = &backend{info: info}
	return info
}

func (b *backend) Init() (family.Status, error) { return family.Success, nil }
func (b *backend) Free()                        {}

func (b *backend) List() ([]*family.Descriptor, error) {
	return []*family.Descriptor{
		{Label: "total", ValueType: value.TypeUint64, Family: b.info},
		{Label: "used", ValueType: value.TypeUint64, Family: b.info},
		{Label: "free", ValueType: value.TypeUint64, Family: b.info},
	}, nil
}

func (b *backend) Update(s family.Sample, now family.Now) (family.Status, error) {
	vm, err := gopsutilmem.VirtualMemory()
	if err != nil {
		return family.Error, err
	}

	var n uint64
	switch s.Descriptor().Label {
	case "total":
		n = vm.Total
	case "used":
		n = vm.Used
	case "free":
		n = vm.Free
	default:
		return family.ReloadFamily, nil
	}

	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, n)
	status, err := value.FromRaw(s.Value(), raw)
	if status == value.Updated {
		return family.Updated, err
	}
	return family.Unchanged, err
}

func (b *backend) Notify(family.WatchEvent, *family.Info, family.Sample, interface{}) (family.Status, error) {
	return family.Success, nil
}

var _ family.Family = (*backend)(nil)
