package registry

import (
	"strings"

	"github.com/calmh/sensord/internal/fnmatch"
	"github.com/calmh/sensord/lib/family"
)

// rangeBounds computes the min/max probe keys for pattern per §4.6's
// range pruning: the literal prefix of the family segment, and (if a
// literal '/' precedes any wildcard) the literal prefix of the label
// segment, each padded to a lexicographic upper bound on the max side.
func rangeBounds(pattern string) (loKey, hiKey string) {
	slash := strings.IndexByte(pattern, '/')
	meta := fnmatch.FirstMeta(pattern)

	if slash >= 0 && slash < meta {
		familyPrefix := pattern[:slash]
		labelPart := pattern[slash+1:]
		labelMeta := fnmatch.FirstMeta(labelPart)
		labelPrefix := labelPart[:labelMeta]
		return descKey(familyPrefix, labelPrefix), descKey(familyPrefix+pad, labelPrefix+pad)
	}

	familyPrefix := pattern[:meta]
	return descKey(familyPrefix, ""), descKey(familyPrefix+pad, pad)
}

// matchDescriptor tests pattern against d under flags, per §4.6. A
// placeholder descriptor (d.Pending != nil) is matched with fnmatch's
// arguments swapped: its stored pattern plays the pattern role and the
// caller's search pattern plays the string role, per §4.6's "a
// placeholder descriptor matches by invoking fnmatch with arguments
// swapped".
func matchDescriptor(pattern string, d *family.Descriptor, flags family.SearchFlag) (bool, error) {
	fnflags := 0
	if flags&family.CASEFOLD != 0 {
		fnflags |= fnmatch.FNM_CASEFOLD
	}

	if flags&family.NOPATTERN != 0 {
		if !strings.Contains(pattern, "/") {
			return false, nil
		}
		a, b := pattern, d.FullName()
		if flags&family.CASEFOLD != 0 {
			a, b = strings.ToLower(a), strings.ToLower(b)
		}
		return a == b, nil
	}

	if d.Pending != nil {
		return fnmatch.MatchCached(d.Pending.Pattern, pattern, fnflags)
	}
	return fnmatch.MatchCached(pattern, d.FullName(), fnflags)
}

// visitSensors runs the range-pruned scan of §4.6 over the sensor tree,
// calling visit for each candidate descriptor within pattern's computed
// bounds that actually matches. visit's bool return works like
// orderedSet.RangeVisit: false stops the scan early (used to
// short-circuit on RELOAD_FAMILY).
func (c *Context) visitSensors(pattern string, flags family.SearchFlag, visit func(*family.Descriptor) bool) error {
	lo, hi := rangeBounds(pattern)
	var firstErr error
	c.sensorTree.RangeVisit(lo, hi, func(d *family.Descriptor) bool {
		ok, err := matchDescriptor(pattern, d, flags)
		if err != nil {
			firstErr = err
			return false
		}
		if !ok {
			return true
		}
		return visit(d)
	})
	return firstErr
}

// findSensor returns the first in-order descriptor matching pattern
// (§4.6 "ties for sensor_find return the first in-order match").
func (c *Context) findSensor(pattern string, flags family.SearchFlag) (*family.Descriptor, error) {
	var found *family.Descriptor
	err := c.visitSensors(pattern, flags, func(d *family.Descriptor) bool {
		found = d
		return false
	})
	return found, err
}

// visitWatches is the watch_tree analogue of visitSensors.
func (c *Context) visitWatches(pattern string, flags family.SearchFlag, visit func(*Sample) bool) error {
	lo, hi := rangeBounds(pattern)
	var firstErr error
	c.watchTree.RangeVisit(lo, hi, func(s *Sample) bool {
		ok, err := matchDescriptor(pattern, s.desc, flags)
		if err != nil {
			firstErr = err
			return false
		}
		if !ok {
			return true
		}
		return visit(s)
	})
	return firstErr
}
