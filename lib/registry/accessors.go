package registry

import "github.com/calmh/sensord/lib/family"

// lockFor acquires either side of the rwlock per flags' LOCK_WRITE bit
// (spec §4.6: "LOCK_WRITE (acquire writer lock instead of reader)").
func (c *Context) lockFor(flags family.SearchFlag) (unlock func()) {
	if flags&family.LOCK_WRITE != 0 {
		c.lock.Lock()
		return c.lock.Unlock
	}
	c.lock.RLock()
	return c.lock.RUnlock
}

// SensorFind returns the first descriptor matching pattern (§4.6
// "sensor_find").
func (c *Context) SensorFind(pattern string, flags family.SearchFlag) (*family.Descriptor, error) {
	unlock := c.lockFor(flags)
	defer unlock()
	return c.findSensor(pattern, flags)
}

// SensorVisit calls visit for every descriptor matching pattern, in
// in-order-tree order, stopping early if visit returns false.
func (c *Context) SensorVisit(pattern string, flags family.SearchFlag, visit func(*family.Descriptor) bool) error {
	unlock := c.lockFor(flags)
	defer unlock()
	return c.visitSensors(pattern, flags, visit)
}

// WatchFind returns the first watched sample matching pattern.
func (c *Context) WatchFind(pattern string, flags family.SearchFlag) (*Sample, error) {
	unlock := c.lockFor(flags)
	defer unlock()
	var found *Sample
	err := c.visitWatches(pattern, flags, func(s *Sample) bool {
		found = s
		return false
	})
	return found, err
}

// WatchVisit calls visit for every watched sample matching pattern.
func (c *Context) WatchVisit(pattern string, flags family.SearchFlag, visit func(*Sample) bool) error {
	unlock := c.lockFor(flags)
	defer unlock()
	return c.visitWatches(pattern, flags, visit)
}

// SensorList returns a snapshot of the insertion-ordered sensor list.
func (c *Context) SensorList() []*family.Descriptor {
	c.lock.RLock()
	defer c.lock.RUnlock()
	out := make([]*family.Descriptor, len(c.sensorList))
	copy(out, c.sensorList)
	return out
}

// WatchList returns a snapshot of the insertion-ordered watch list.
func (c *Context) WatchList() []*Sample {
	c.lock.RLock()
	defer c.lock.RUnlock()
	out := make([]*Sample, len(c.watchList))
	copy(out, c.watchList)
	return out
}

// ParamCount returns the number of distinct interned watch-parameter
// entries (used by P2 and scenario 3 tests).
func (c *Context) ParamCount() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.params.Len()
}

// ParamUseCount returns p's current reference count.
func (c *Context) ParamUseCount(p *WatchParams) int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.params.UseCount(p)
}
