package registry

import (
	"testing"

	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

func TestRangeBoundsLiteralFamilyAndLabel(t *testing.T) {
	lo, hi := rangeBounds("cpu/load1")
	wantLo := descKey("cpu", "load1")
	if lo != wantLo {
		t.Fatalf("loKey = %q, want %q", lo, wantLo)
	}
	if hi <= lo {
		t.Fatalf("hiKey %q must sort after loKey %q", hi, lo)
	}
}

func TestRangeBoundsWildcardLabel(t *testing.T) {
	lo, hi := rangeBounds("cpu/load*")
	wantLo := descKey("cpu", "load")
	if lo != wantLo {
		t.Fatalf("loKey = %q, want %q", lo, wantLo)
	}
	if hi <= lo {
		t.Fatalf("hiKey %q must sort after loKey %q", hi, lo)
	}
}

func TestRangeBoundsWildcardFamily(t *testing.T) {
	lo, hi := rangeBounds("c*/load1")
	wantLo := descKey("c", "")
	if lo != wantLo {
		t.Fatalf("loKey = %q, want %q", lo, wantLo)
	}
	if hi <= lo {
		t.Fatalf("hiKey %q must sort after loKey %q", hi, lo)
	}
}

func TestMatchDescriptorNoPatternRequiresExactFullName(t *testing.T) {
	info := &family.Info{Name: "cpu"}
	d := newDescriptor(info, "load1", value.TypeFloat64)
	ok, err := matchDescriptor("cpu/load1", d, family.NOPATTERN|family.CASEFOLD)
	if err != nil || !ok {
		t.Fatalf("matchDescriptor(NOPATTERN, exact) = %v, %v, want true, nil", ok, err)
	}
	ok, err = matchDescriptor("cpu/load*", d, family.NOPATTERN|family.CASEFOLD)
	if err != nil || ok {
		t.Fatalf("matchDescriptor(NOPATTERN, wildcard) = %v, %v, want false, nil", ok, err)
	}
}

func TestMatchDescriptorCasefold(t *testing.T) {
	info := &family.Info{Name: "CPU"}
	d := newDescriptor(info, "Load1", value.TypeFloat64)
	ok, err := matchDescriptor("cpu/load1", d, family.CASEFOLD)
	if err != nil || !ok {
		t.Fatalf("matchDescriptor(CASEFOLD) = %v, %v, want true, nil", ok, err)
	}
	ok, err = matchDescriptor("cpu/load1", d, 0)
	if err != nil || ok {
		t.Fatalf("matchDescriptor(no CASEFOLD) = %v, %v, want false, nil", ok, err)
	}
}

func TestMatchDescriptorPlaceholderSwapsArguments(t *testing.T) {
	info := &family.Info{Name: "net"}
	d := &family.Descriptor{
		Label:   "eth*",
		Family:  info,
		Pending: &family.PendingKey{Pattern: "net/eth*", ID: 1},
	}
	ok, err := matchDescriptor("net/eth0", d, family.CASEFOLD)
	if err != nil || !ok {
		t.Fatalf("matchDescriptor(placeholder) = %v, %v, want true, nil", ok, err)
	}
}
