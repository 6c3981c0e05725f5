package registry

import (
	"strings"
	"time"

	"github.com/calmh/sensord/internal/fnmatch"
	"github.com/calmh/sensord/internal/logger"
	"github.com/calmh/sensord/internal/metrics"
	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

func copyParams(p *WatchParams) *WatchParams {
	return &WatchParams{Interval: p.Interval, Levels: p.Levels, Callback: p.Callback}
}

// newSampleValue allocates the initial value for a freshly watched
// sensor, capacity per Flags.ScratchSize for buffer types (spec §4.7
// "allocate a new sample... assign type from descriptor"); FromBuffer
// grows it on demand during updates (spec §5 "Value buffers... grown as
// needed").
func (c *Context) newSampleValue(t value.Type) (value.Value, error) {
	var v value.Value
	var err error
	if t.IsBuffer() {
		v, err = value.NewBuffer(t, c.flags.ScratchSize)
	} else {
		v, err = value.New(t)
	}
	if err != nil {
		return value.Value{}, err
	}
	v.Reset()
	return v, nil
}

func notifyFamily(info *family.Info, event family.WatchEvent, s family.Sample, data interface{}, log *logger.Logger) {
	if info == nil || info.Impl == nil {
		return
	}
	if _, err := info.Impl.Notify(event, info, s, data); err != nil {
		log.Warnf("notify %s -> %s: %v", info.Name, event, err)
	}
}

// splitPattern separates pattern into its family and label segments on
// the first literal '/', per §4.7's "label = suffix after / (or full
// pattern)".
func splitPattern(pattern string) (familyPart, labelPart string) {
	if i := strings.IndexByte(pattern, '/'); i >= 0 {
		return pattern[:i], pattern[i+1:]
	}
	return pattern, ""
}

// WatchAdd implements spec §4.7 "watch_add": expands pattern against the
// sensor list, attaching or replacing a sample for each match, and
// materializes loading placeholders for families that could still
// resolve the pattern once their enumeration completes.
func (c *Context) WatchAdd(pattern string, flags family.SearchFlag, params *WatchParams) ([]*Sample, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.watchAddLocked(pattern, flags, params)
}

// WatchAddDesc is the by-pointer variant of §4.7 ("watch_add_desc"),
// skipping pattern expansion entirely.
func (c *Context) WatchAddDesc(d *family.Descriptor, params *WatchParams) *Sample {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.attachSampleLocked(d, params)
}

func (c *Context) watchAddLocked(pattern string, flags family.SearchFlag, params *WatchParams) ([]*Sample, error) {
	var added []*Sample
	err := c.visitSensors(pattern, flags, func(d *family.Descriptor) bool {
		added = append(added, c.attachSampleLocked(d, params))
		return true
	})
	if err != nil {
		return added, err
	}
	if err := c.materializePlaceholdersLocked(pattern, flags, params); err != nil {
		return added, err
	}
	return added, nil
}

// attachSampleLocked implements §4.7 step 2: replace an existing sample
// for descriptor d (found by identity in watch_tree), or allocate a new
// one.
func (c *Context) attachSampleLocked(d *family.Descriptor, params *WatchParams) *Sample {
	key := descriptorKey(d)
	for _, s := range c.watchTree.Bucket(key) {
		if s.desc == d {
			c.params.Release(s.watch)
			s.watch = c.params.Intern(copyParams(params))
			s.nextTime = time.Time{}
			s.val.Reset()
			metrics.SetParamTableEntries(c.params.Len())
			notifyFamily(d.Family, family.WatchReplaced, s, nil, c.log)
			return s
		}
	}

	val, err := c.newSampleValue(d.ValueType)
	if err != nil {
		c.log.Warnf("watch_add %s: %v", d.FullName(), err)
	}
	s := &Sample{desc: d, val: val, watch: c.params.Intern(copyParams(params))}
	c.watchList = append(c.watchList, s)
	c.watchTree.Insert(s)
	metrics.SetWatches(len(c.watchList))
	metrics.SetParamTableEntries(c.params.Len())
	notifyFamily(d.Family, family.WatchAdded, s, nil, c.log)
	return s
}

// materializePlaceholdersLocked implements §4.7 step 3: for every family
// that still has an outstanding loading placeholder and whose name could
// satisfy pattern's family segment, synthesize a placeholder descriptor
// (unless an equivalent one already exists) and attach a "Loading..."
// sample to it.
//
// "could match" is read as: fnmatch(pattern's family segment, family
// name) succeeds — the same wildcard grammar used everywhere else in
// §4.6, applied to just the family side since the family hasn't
// enumerated labels yet. This reading isn't spelled out further in the
// spec; see DESIGN.md's Open Question Decisions.
func (c *Context) materializePlaceholdersLocked(pattern string, flags family.SearchFlag, params *WatchParams) error {
	famPattern, labelPart := splitPattern(pattern)
	fnflags := 0
	if flags&family.CASEFOLD != 0 {
		fnflags |= fnmatch.FNM_CASEFOLD
	}

	equivalentExists := make(map[*family.Info]bool)
	pendingFamilies := make(map[*family.Info]bool)
	for _, d := range c.sensorTree.Items() {
		if d.Pending == nil {
			continue
		}
		pendingFamilies[d.Family] = true
		if d.Pending.Pattern == pattern {
			equivalentExists[d.Family] = true
		}
	}

	for info := range pendingFamilies {
		if equivalentExists[info] {
			continue
		}
		ok, err := fnmatch.MatchCached(famPattern, info.Name, fnflags)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		label := labelPart
		if label == "" {
			label = pattern
		}
		id := c.nextID()
		pd := &family.Descriptor{
			Key:        family.PendingKey{Pattern: pattern, ID: id},
			Label:      label,
			Properties: family.LoadingProperties,
			ValueType:  value.TypeString,
			Family:     info,
			Pending:    &family.PendingKey{Pattern: pattern, ID: id},
		}
		c.sensorList = append(c.sensorList, pd)
		c.sensorTree.Insert(pd)

		s := c.attachSampleLocked(pd, params)
		if _, err := value.FromBuffer(&s.val, []byte("Loading...")); err != nil {
			return err
		}
	}
	return nil
}

// WatchDel implements spec §4.7 "watch_del": matches as in §4.6, then
// for each matched sample notifies WATCH_DELETING, releases its interned
// parameters, and removes it from both the tree and the list. Matches
// are collected before any deletion so that mutating watch_tree mid-scan
// cannot skip or double-visit an entry.
func (c *Context) WatchDel(pattern string, flags family.SearchFlag) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	var matches []*Sample
	if err := c.visitWatches(pattern, flags, func(s *Sample) bool {
		matches = append(matches, s)
		return true
	}); err != nil {
		return 0, err
	}
	for _, s := range matches {
		c.deleteSampleLocked(s, flags)
	}
	return len(matches), nil
}

func (c *Context) deleteSampleLocked(s *Sample, flags family.SearchFlag) {
	notifyFamily(s.desc.Family, family.WatchDeleting, s, nil, c.log)
	c.params.Release(s.watch)
	c.watchTree.Remove(s)
	for i, w := range c.watchList {
		if w == s {
			c.watchList = append(c.watchList[:i], c.watchList[i+1:]...)
			break
		}
	}
	metrics.SetWatches(len(c.watchList))
	metrics.SetParamTableEntries(c.params.Len())
}
