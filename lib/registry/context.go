// Package registry implements the registry/context core of spec
// §4.3–4.8: the Context, its sensor and watch indices, pattern search,
// watch add/delete, and the update engine.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/calmh/sensord/internal/logger"
	"github.com/calmh/sensord/lib/family"
)

// tuneProcsOnce runs automaxprocs exactly once per process: every Context
// shares one GOMAXPROCS setting, and repeated tuning on every Init call
// would just re-log the same decision (spec §1 expansion: "invoked once
// from Context.Init, exactly as the teacher's cmd/syncthing main does").
var tuneProcsOnce sync.Once

// defaultScratchSize is the default capacity given to a freshly watched
// buffer-typed sample (spec §4.3: "a bytes buffer of a fixed working
// size, default 512"). The spec models this as two scratch Values fixed
// to the Context for change-detection without allocation; that design
// assumes update_check is never called concurrently for two samples at
// once. §5 explicitly allows multiple simultaneous reader-locked
// callers, so a single mutable Context-level scratch would race between
// them. update_check (update.go) instead clones the sample's prior value
// locally for the duration of one call — still no allocation that
// outlives the call, just not shared Context state. ScratchSize survives
// as the default buffer-typed sample capacity, the other half of what
// the spec's scratch sizing was for.
const defaultScratchSize = 512

// Flags carries the boot-time options of spec §4.3's "init(log_pool_opt,
// flags)".
type Flags struct {
	ScratchSize int
}

// Option configures a Context at Init time.
type Option func(*Context)

// WithLogger installs a log sink other than the package default (spec
// §4.3: "if log_pool_opt is absent a private one is created").
func WithLogger(l *logger.Logger) Option {
	return func(c *Context) { c.log = l }
}

// WithScratchSize overrides the default 512-byte sample buffer capacity.
func WithScratchSize(n int) Option {
	return func(c *Context) { c.flags.ScratchSize = n }
}

// WithCommonFamily installs a richer CommonFamily (e.g. families/common)
// in place of the minimal built-in one.
func WithCommonFamily(cf CommonFamily) Option {
	return func(c *Context) { c.common = cf }
}

// WithFamily registers an additional family at Init time, in the same
// way compiled-in families are registered (spec §4.3's "registers each
// compiled-in family").
func WithFamily(info *family.Info) Option {
	return func(c *Context) { c.initFamilies = append(c.initFamilies, info) }
}

// Context is the registry core of spec §4.3: locks, trees, lists, the
// family registry, and the interned watch-parameter table. It holds no
// scratch values; see defaultScratchSize.
type Context struct {
	lock *rwlock
	log  *logger.Logger
	flags Flags

	families     *xsync.MapOf[string, *family.Info]
	familyOrder  []*family.Info // registration order, for Free's reverse teardown
	common       CommonFamily
	initFamilies []*family.Info

	sensorList []*family.Descriptor
	sensorTree *orderedSet[*family.Descriptor]

	watchList []*Sample
	watchTree *orderedSet[*Sample]

	params *paramTable

	nextPlaceholderID uint64

	freed bool
}

// Init creates a Context, registers every family passed via WithFamily,
// and builds the initial sensor list (spec §4.3 "init").
func Init(opts ...Option) (*Context, error) {
	tuneProcsOnce.Do(func() {
		if _, err := maxprocs.Set(maxprocs.Logger(logger.Default.Infof)); err != nil {
			logger.Default.Warnf("automaxprocs: %v", err)
		}
	})

	c := &Context{
		lock:       newRWLock(),
		flags:      Flags{ScratchSize: defaultScratchSize},
		families:   xsync.NewMapOf[string, *family.Info](),
		sensorTree: newOrderedSet[*family.Descriptor](descriptorKey),
		watchTree:  newOrderedSet[*Sample](sampleKey),
		params:     newParamTable(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.New()
		c.log.SetPrefix("sensors: ")
	}
	if c.common == nil {
		c.common = newDefaultCommonFamily()
	}

	commonInfo := &family.Info{Name: commonFamilyName, Impl: c.common}
	if err := c.registerFamilyLocked(commonInfo); err != nil {
		return nil, err
	}
	for _, info := range c.initFamilies {
		if err := c.registerFamilyLocked(info); err != nil {
			c.Free()
			return nil, err
		}
	}
	return c, nil
}

// Lock acquires ctx's rwlock in the given mode (spec §4.3/§5 "lock(ctx,
// mode)"). Recursive acquisition by the current writer is supported;
// see lock.go.
func (c *Context) Lock(mode family.SearchFlag) {
	if mode&family.LOCK_WRITE != 0 {
		c.lock.Lock()
	} else {
		c.lock.RLock()
	}
}

// Unlock releases what the matching Lock call acquired.
func (c *Context) Unlock(mode family.SearchFlag) {
	if mode&family.LOCK_WRITE != 0 {
		c.lock.Unlock()
	} else {
		c.lock.RUnlock()
	}
}

// LockUpgrade implements §5's lock_upgrade: release the reader side,
// reacquire the writer side. Not ABA-free; callers must restart any
// pattern-scan state afterward.
func (c *Context) LockUpgrade() { c.lock.Upgrade() }

// FamilyCommon returns the built-in "common" family (spec §4.3
// "family_common").
func (c *Context) FamilyCommon() CommonFamily { return c.common }

// FamilyRegister is the late-registration path of spec §4.3
// ("family_register"): mirrors Init-time registration, and if the
// sensor list already exists, appends the new family's descriptors.
func (c *Context) FamilyRegister(info *family.Info) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.registerFamilyLocked(info)
}

func (c *Context) registerFamilyLocked(info *family.Info) error {
	if info == nil || info.Name == "" {
		return errors.New("registry: family must have a name")
	}
	status, err := info.Impl.Init()
	if err != nil || status == family.Error {
		return fmt.Errorf("registry: init family %q: %w", info.Name, err)
	}
	if status == family.NotSupported {
		c.log.Infof("family %q not supported on this host", info.Name)
		return nil
	}
	c.families.Store(info.Name, info)
	c.familyOrder = append(c.familyOrder, info)

	descs, err := info.Impl.List()
	if err != nil {
		return fmt.Errorf("registry: list family %q: %w", info.Name, err)
	}
	c.insertDescriptorsLocked(descs)
	return nil
}

func (c *Context) insertDescriptorsLocked(descs []*family.Descriptor) {
	for _, d := range descs {
		c.sensorList = append(c.sensorList, d)
		c.sensorTree.Insert(d)
	}
}

// Family looks up a registered family by name without taking the main
// rwlock (spec §5 expansion: the family-by-name index is a lock-free
// map sitting outside the four trees/two lists the rwlock protects).
func (c *Context) Family(name string) (*family.Info, bool) {
	return c.families.Load(name)
}

// Free implements spec §4.3 "free": acquires the writer lock, checks
// tree/list agreement (P1), drops all watches and descriptors, then
// frees each family (the reserved common family last).
func (c *Context) Free() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.freed {
		return
	}
	c.freed = true

	if err := c.checkConsistencyLocked(); err != nil {
		c.log.Warnf("consistency check at free: %v", err)
	}

	for _, s := range append([]*Sample(nil), c.watchList...) {
		c.deleteSampleLocked(s, family.DefaultSearchFlags)
	}
	c.sensorList = nil
	c.sensorTree = newOrderedSet[*family.Descriptor](descriptorKey)

	for i := len(c.familyOrder) - 1; i >= 0; i-- {
		info := c.familyOrder[i]
		if info.Name == commonFamilyName {
			continue
		}
		info.Impl.Free()
	}
	c.common.Free()
}

// checkConsistencyLocked implements P1: an in-order walk of sensor_tree
// must equal sensor_list sorted by the tree's comparator, and likewise
// for watch_tree vs watchlist.
func (c *Context) checkConsistencyLocked() error {
	sortedSensors := append([]*family.Descriptor(nil), c.sensorList...)
	sort.SliceStable(sortedSensors, func(i, j int) bool {
		return descriptorKey(sortedSensors[i]) < descriptorKey(sortedSensors[j])
	})
	treeSensors := c.sensorTree.Items()
	if len(treeSensors) != len(sortedSensors) {
		return fmt.Errorf("sensor_tree has %d entries, sensor_list has %d", len(treeSensors), len(sortedSensors))
	}
	for i := range treeSensors {
		if treeSensors[i] != sortedSensors[i] {
			return fmt.Errorf("sensor_tree/sensor_list disagree at position %d", i)
		}
	}

	sortedWatches := append([]*Sample(nil), c.watchList...)
	sort.SliceStable(sortedWatches, func(i, j int) bool {
		return sampleKey(sortedWatches[i]) < sampleKey(sortedWatches[j])
	})
	treeWatches := c.watchTree.Items()
	if len(treeWatches) != len(sortedWatches) {
		return fmt.Errorf("watch_tree has %d entries, watchlist has %d", len(treeWatches), len(sortedWatches))
	}
	for i := range treeWatches {
		if treeWatches[i] != sortedWatches[i] {
			return fmt.Errorf("watch_tree/watchlist disagree at position %d", i)
		}
	}
	return nil
}

func (c *Context) nextID() uint64 {
	return atomic.AddUint64(&c.nextPlaceholderID, 1)
}
