package registry

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/calmh/sensord/internal/metrics"
	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

// ErrFamilyReloaded is returned by UpdateGet when a sample's update
// triggered a family reload mid-scan: the spec requires the caller to
// discard whatever was accumulated and re-fetch the watch list (§4.8
// "On any sample returning RELOAD_FAMILY, the accumulated list is
// discarded and the iteration terminates").
var ErrFamilyReloaded = errors.New("registry: family reloaded, re-fetch watch list")

// UpdateCheck implements spec §4.8 "update_check": refreshes one sample
// under at least a reader lock, upgrading to the writer lock internally
// if the family signals RELOAD_FAMILY.
func (c *Context) UpdateCheck(s *Sample, now family.Now) (family.Status, error) {
	c.lock.RLock()
	heldWrite := false
	status, err := c.updateOneLocked(s, now, &heldWrite)
	if heldWrite {
		c.lock.Unlock()
	} else {
		c.lock.RUnlock()
	}
	return status, err
}

func (c *Context) runCallbackLocked(s *Sample, event family.WatchEvent) {
	if s.watch != nil && s.watch.Callback != nil {
		s.watch.Callback(s, event)
	}
}

func (c *Context) advanceLocked(s *Sample, now family.Now) {
	var interval time.Duration
	if s.watch != nil {
		interval = s.watch.Interval
	}
	base := now.Time
	if now.Force || base.IsZero() {
		base = time.Now()
	}
	s.nextTime = base.Add(interval)
}

// updateOneLocked implements §4.8 steps 1-5. heldWrite tracks whether
// this call (or an earlier one in the same UpdateGet scan) has already
// upgraded to the writer lock, so a second RELOAD_FAMILY within one scan
// doesn't try to re-upgrade a lock it already holds.
func (c *Context) updateOneLocked(s *Sample, now family.Now, heldWrite *bool) (family.Status, error) {
	info := s.desc.Family
	if info == nil || info.Impl == nil {
		return family.NotSupported, nil
	}

	if !now.Force && !s.nextTime.IsZero() && now.Time.Before(s.nextTime) {
		return family.WaitTimer, nil
	}

	firstTime := s.nextTime.IsZero()
	prior := value.Clone(&s.val)

	status, err := info.Impl.Update(s, now)
	defer func() { metrics.ObserveUpdate(status.String()) }()
	switch status {
	case family.Updated:
		c.runCallbackLocked(s, family.WatchUpdated)
		c.advanceLocked(s, now)
		return family.Updated, err

	case family.Unchanged:
		c.advanceLocked(s, now)
		return family.Unchanged, err

	case family.Success, family.Loading:
		changed := !value.Equal(&prior, &s.val)
		out := family.Unchanged
		if firstTime || changed {
			out = family.Updated
			c.runCallbackLocked(s, family.WatchUpdated)
		}
		if status == family.Success {
			c.advanceLocked(s, now)
		}
		// LOADING: timer deliberately left as-is so the next tick retries.
		return out, err

	case family.ReloadFamily:
		if !*heldWrite {
			c.lock.Upgrade()
			*heldWrite = true
		}
		if rerr := c.reloadFamilyLocked(info); rerr != nil {
			return family.Error, rerr
		}
		metrics.ObserveFamilyReload(info.Name)
		notifyAll(c.familyOrder, family.FamilyReloaded, info, nil, nil, c.log)
		return family.ReloadFamily, nil

	case family.WaitTimer:
		return family.WaitTimer, nil

	case family.NotSupported:
		return family.NotSupported, err

	default:
		return family.Error, err
	}
}

// UpdateGet implements spec §4.8 "update_get": a reader-locked scan of
// the whole watch list, returning every sample that became UPDATED.
func (c *Context) UpdateGet(now family.Now) ([]*Sample, error) {
	c.lock.RLock()
	heldWrite := false
	defer func() {
		if heldWrite {
			c.lock.Unlock()
		} else {
			c.lock.RUnlock()
		}
	}()

	var updated []*Sample
	samples := append([]*Sample(nil), c.watchList...)
	for _, s := range samples {
		status, err := c.updateOneLocked(s, now, &heldWrite)
		switch status {
		case family.Updated:
			updated = append(updated, s)
		case family.ReloadFamily:
			return nil, ErrFamilyReloaded
		case family.Error:
			c.log.Warnf("update %s: %v", s.desc.FullName(), err)
		}
	}
	return updated, nil
}

type savedWatch struct {
	pattern       string
	params        *WatchParams
	placeholderID uint64
}

// reloadFamilyLocked implements §4.8's "family reload protocol": save
// every current watch on info (by pattern, ordered so earlier
// placeholders restore first), drop them and info's descriptors, re-run
// info.List, then re-run watch_add for every saved pattern against the
// refreshed descriptors.
func (c *Context) reloadFamilyLocked(info *family.Info) error {
	var saved []savedWatch
	for _, s := range c.watchList {
		if s.desc.Family != info {
			continue
		}
		pattern := s.desc.FullName()
		var pid uint64
		if s.desc.Pending != nil {
			pattern = s.desc.Pending.Pattern
			pid = s.desc.Pending.ID
		}
		saved = append(saved, savedWatch{pattern: pattern, params: copyParams(s.watch), placeholderID: pid})
	}
	sort.SliceStable(saved, func(i, j int) bool { return saved[i].placeholderID < saved[j].placeholderID })

	var toDelete []*Sample
	for _, s := range c.watchList {
		if s.desc.Family == info {
			toDelete = append(toDelete, s)
		}
	}
	for _, s := range toDelete {
		c.deleteSampleLocked(s, family.DefaultSearchFlags)
	}

	keep := c.sensorList[:0:0]
	for _, d := range c.sensorList {
		if d.Family == info {
			c.sensorTree.Remove(d)
			continue
		}
		keep = append(keep, d)
	}
	c.sensorList = keep

	descs, err := info.Impl.List()
	if err != nil {
		return err
	}
	c.insertDescriptorsLocked(descs)

	for _, sv := range saved {
		if _, err := c.watchAddLocked(sv.pattern, family.DefaultSearchFlags, sv.params); err != nil {
			c.log.Warnf("reload %s: re-add %q: %v", info.Name, sv.pattern, err)
		}
	}
	return nil
}

func (c *Context) sampleForDescriptorLocked(d *family.Descriptor) *Sample {
	for _, s := range c.watchTree.Bucket(descriptorKey(d)) {
		if s.desc == d {
			return s
		}
	}
	return nil
}

func (c *Context) hasSampleLocked(d *family.Descriptor) bool {
	return c.sampleForDescriptorLocked(d) != nil
}

// InitWait implements spec §4.8 "init_wait" with context.Background(),
// for callers that don't need cancellation.
func (c *Context) InitWait(watchedOnly bool) error {
	return c.InitWaitContext(context.Background(), watchedOnly)
}

// InitWaitContext is InitWait with cooperative cancellation (spec §5
// expansion's "Cancellation"): each placeholder's LOADING poll loop
// checks ctx between iterations, so a caller enforcing a boot deadline
// can abort a wedged background enumeration instead of hanging forever.
func (c *Context) InitWaitContext(ctx context.Context, watchedOnly bool) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	skip := make(map[*family.Info]bool)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := c.nextPendingPlaceholderLocked(watchedOnly, skip)
		if target == nil {
			return nil
		}
		reloaded, err := c.driveOnePlaceholderLocked(ctx, target)
		if err != nil {
			return err
		}
		if !reloaded {
			skip[target.Family] = true
		}
	}
}

func (c *Context) nextPendingPlaceholderLocked(watchedOnly bool, skip map[*family.Info]bool) *family.Descriptor {
	for _, d := range c.sensorList {
		if d.Pending == nil || skip[d.Family] {
			continue
		}
		if watchedOnly && !c.hasSampleLocked(d) {
			continue
		}
		return d
	}
	return nil
}

// driveOnePlaceholderLocked drives a single placeholder's owning family
// through FAMILY_WAIT_LOAD and repeated Update calls until it resolves
// (reloaded=true) or gives up without reloading. ctx lets a caller with a
// boot deadline abort a family whose background enumeration never
// finishes.
func (c *Context) driveOnePlaceholderLocked(ctx context.Context, d *family.Descriptor) (reloaded bool, err error) {
	info := d.Family
	if _, nerr := info.Impl.Notify(family.FamilyWaitLoad, info, nil, nil); nerr != nil {
		return false, nerr
	}

	s := c.sampleForDescriptorLocked(d)
	temp := false
	if s == nil {
		s = c.attachSampleLocked(d, &WatchParams{})
		temp = true
	}
	defer func() {
		if temp && !reloaded {
			c.deleteSampleLocked(s, family.DefaultSearchFlags)
		}
	}()

	for {
		status, uerr := info.Impl.Update(s, family.ForceNow())
		switch status {
		case family.Loading:
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(time.Millisecond):
			}
			continue
		case family.ReloadFamily:
			if rerr := c.reloadFamilyLocked(info); rerr != nil {
				return false, rerr
			}
			metrics.ObserveFamilyReload(info.Name)
			notifyAll(c.familyOrder, family.FamilyReloaded, info, nil, nil, c.log)
			return true, nil
		case family.Error:
			return false, uerr
		default:
			return false, nil
		}
	}
}

// WatchPGCD implements spec §4.8 "watch_pgcd": rounded GCD of every
// interned watch interval, in milliseconds, at the given precision
// (<=0 defaults to 1.0ms).
func (c *Context) WatchPGCD(precision float64) time.Duration {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.params.GCD(precision)
}
