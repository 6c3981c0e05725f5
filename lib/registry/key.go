package registry

import (
	"strings"

	"github.com/calmh/sensord/lib/family"
)

// pad is the lexicographic upper-bound suffix of §4.6's range pruning
// ("max suffix pad = CHAR_MAX bytes"): 0xff sorts after any byte a real
// family or label name would use.
const pad = "\xff\xff\xff\xff"

// descKey builds the probe/storage key a descriptor or sample is
// ordered by: case-folded "family\x00label". The NUL separator (rather
// than '/', which can itself appear inside a label) keeps family and
// label from ever colliding across a boundary.
func descKey(familyName, label string) string {
	return strings.ToLower(familyName) + "\x00" + strings.ToLower(label)
}

func descriptorKey(d *family.Descriptor) string {
	name := "?"
	if d.Family != nil {
		name = d.Family.Name
	}
	return descKey(name, d.Label)
}

func sampleKey(s *Sample) string {
	return descriptorKey(s.desc)
}
