package registry

import (
	"testing"
	"time"

	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

func TestInitRegistersCommonFamily(t *testing.T) {
	ctx, err := Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer ctx.Free()

	if ctx.FamilyCommon() == nil {
		t.Fatal("FamilyCommon() = nil")
	}
	if _, ok := ctx.Family(commonFamilyName); !ok {
		t.Fatal("common family not registered under its reserved name")
	}
}

func TestFamilyRegisterBuildsSensorList(t *testing.T) {
	info := &family.Info{Name: "cpu"}
	fam := &fakeFamily{descs: []*family.Descriptor{
		newDescriptor(info, "load1", value.TypeFloat64),
		newDescriptor(info, "load5", value.TypeFloat64),
	}}
	info.Impl = fam

	ctx, err := Init(WithFamily(info))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer ctx.Free()

	list := ctx.SensorList()
	if len(list) != 2 {
		t.Fatalf("SensorList() has %d entries, want 2", len(list))
	}
	if _, ok := ctx.Family("cpu"); !ok {
		t.Fatal("cpu family not found by name")
	}
}

func TestWatchAddIdempotent(t *testing.T) {
	info := &family.Info{Name: "cpu"}
	fam := &fakeFamily{descs: []*family.Descriptor{newDescriptor(info, "load1", value.TypeFloat64)}}
	info.Impl = fam
	ctx, err := Init(WithFamily(info))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer ctx.Free()

	params := &WatchParams{Interval: 100 * time.Millisecond}
	if _, err := ctx.WatchAdd("cpu/load1", family.DefaultSearchFlags, params); err != nil {
		t.Fatalf("WatchAdd (1st): %v", err)
	}
	if _, err := ctx.WatchAdd("cpu/load1", family.DefaultSearchFlags, params); err != nil {
		t.Fatalf("WatchAdd (2nd): %v", err)
	}

	if n := len(ctx.WatchList()); n != 1 {
		t.Fatalf("WatchList() has %d entries after repeated watch_add, want 1", n)
	}
	if n := ctx.ParamCount(); n != 1 {
		t.Fatalf("ParamCount() = %d after repeated watch_add with identical params, want 1", n)
	}
}

func TestWatchAddAndUpdateGet(t *testing.T) {
	info := &family.Info{Name: "cpu"}
	calls := 0
	fam := &fakeFamily{
		descs: []*family.Descriptor{newDescriptor(info, "load1", value.TypeFloat64)},
		updateFn: func(s family.Sample, now family.Now) (family.Status, error) {
			calls++
			status, err := value.FromRaw(s.Value(), []byte{1, 0, 0, 0, 0, 0, 0, 0})
			if status == value.Updated {
				return family.Updated, err
			}
			return family.Unchanged, err
		},
	}
	info.Impl = fam
	ctx, err := Init(WithFamily(info))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer ctx.Free()

	if _, err := ctx.WatchAdd("cpu/load1", family.DefaultSearchFlags, &WatchParams{Interval: time.Millisecond}); err != nil {
		t.Fatalf("WatchAdd: %v", err)
	}

	updated, err := ctx.UpdateGet(family.ForceNow())
	if err != nil {
		t.Fatalf("UpdateGet: %v", err)
	}
	if len(updated) != 1 {
		t.Fatalf("UpdateGet returned %d updated samples, want 1", len(updated))
	}
	if calls != 1 {
		t.Fatalf("family.Update called %d times, want 1", calls)
	}

	updated, err = ctx.UpdateGet(family.ForceNow())
	if err != nil {
		t.Fatalf("UpdateGet (2nd): %v", err)
	}
	if len(updated) != 0 {
		t.Fatalf("UpdateGet (2nd) returned %d updated samples, want 0 (value unchanged)", len(updated))
	}
}

func TestWatchDelRemovesSampleAndReleasesParams(t *testing.T) {
	info := &family.Info{Name: "cpu"}
	fam := &fakeFamily{descs: []*family.Descriptor{newDescriptor(info, "load1", value.TypeFloat64)}}
	info.Impl = fam
	ctx, err := Init(WithFamily(info))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer ctx.Free()

	if _, err := ctx.WatchAdd("cpu/load1", family.DefaultSearchFlags, &WatchParams{Interval: time.Second}); err != nil {
		t.Fatalf("WatchAdd: %v", err)
	}
	n, err := ctx.WatchDel("cpu/load1", family.DefaultSearchFlags)
	if err != nil {
		t.Fatalf("WatchDel: %v", err)
	}
	if n != 1 {
		t.Fatalf("WatchDel removed %d samples, want 1", n)
	}
	if got := len(ctx.WatchList()); got != 0 {
		t.Fatalf("WatchList() has %d entries after WatchDel, want 0", got)
	}
	if got := ctx.ParamCount(); got != 0 {
		t.Fatalf("ParamCount() = %d after deleting the only watch referencing it, want 0", got)
	}
}

func TestPlaceholderMaterializeAndReload(t *testing.T) {
	info := &family.Info{Name: "asyncdemo"}
	fam := &fakeFamily{
		descs: []*family.Descriptor{
			{Label: "", Family: info, Pending: &family.PendingKey{Pattern: "*", ID: 0}},
		},
	}
	info.Impl = fam
	ctx, err := Init(WithFamily(info))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer ctx.Free()

	if _, err := ctx.WatchAdd("asyncdemo/load1", family.DefaultSearchFlags, &WatchParams{Interval: time.Second}); err != nil {
		t.Fatalf("WatchAdd: %v", err)
	}

	list := ctx.WatchList()
	if len(list) != 1 {
		t.Fatalf("WatchList() has %d entries after watching an unresolved pattern, want 1 (the synthetic placeholder)", len(list))
	}
	if list[0].Descriptor().Pending == nil {
		t.Fatal("synthetic sample's descriptor should be a placeholder (Pending != nil) before the family reloads")
	}
	fam.descs = []*family.Descriptor{newDescriptor(info, "load1", value.TypeFloat64)}
	fam.updateFn = func(s family.Sample, now family.Now) (family.Status, error) {
		return family.ReloadFamily, nil
	}

	_, err = ctx.UpdateGet(family.ForceNow())
	if err != ErrFamilyReloaded {
		t.Fatalf("UpdateGet after RELOAD_FAMILY = %v, want ErrFamilyReloaded", err)
	}

	list = ctx.WatchList()
	if len(list) != 1 {
		t.Fatalf("WatchList() has %d entries after reload, want 1 (watch re-added against the real descriptor)", len(list))
	}
	if list[0].Descriptor().Pending != nil {
		t.Fatal("watch should be re-attached to the real descriptor after reload, not the placeholder")
	}
	if list[0].Descriptor().Label != "load1" {
		t.Fatalf("re-added watch's descriptor label = %q, want load1", list[0].Descriptor().Label)
	}
}

func TestFreeRunsConsistencyCheckAndFreesFamilies(t *testing.T) {
	info := &family.Info{Name: "cpu"}
	fam := &fakeFamily{descs: []*family.Descriptor{newDescriptor(info, "load1", value.TypeFloat64)}}
	info.Impl = fam
	ctx, err := Init(WithFamily(info))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := ctx.WatchAdd("cpu/load1", family.DefaultSearchFlags, &WatchParams{}); err != nil {
		t.Fatalf("WatchAdd: %v", err)
	}
	ctx.Free()
	if !fam.freed {
		t.Fatal("family.Free() was not called by Context.Free()")
	}
}
