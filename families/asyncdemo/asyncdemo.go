// Package asyncdemo is a reference Family demonstrating the loading
// placeholder / RELOAD_FAMILY lifecycle (spec §3 "Loading placeholder",
// §4.8's family reload protocol) without needing real hardware: List
// reports a placeholder until a simulated background enumeration
// completes, then Update signals RELOAD_FAMILY once. This is §8
// scenario 2 made concrete and testable.
package asyncdemo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/value"
)

type backend struct {
	info  *family.Info
	delay time.Duration
	count int

	mu     sync.Mutex
	loaded bool
	names  []string

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New returns a ready-to-register family.Info whose enumeration
// "completes" after delay, reporting count demo sensors.
func New(delay time.Duration, count int) *family.Info {
	if count <= 0 {
		count = 1
	}
	info := &family.Info{Name: "asyncdemo"}
	info.Impl = &backend{info: info, delay: delay, count: count}
	return info
}

// Init starts the background enumeration under an errgroup.Group so
// Free can cancel and join it deterministically (spec §5 expansion
// "Cancellation").
func (b *backend) Init() (family.Status, error) {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	b.group = g
	g.Go(func() error {
		select {
		case <-time.After(b.delay):
		case <-gctx.Done():
			return gctx.Err()
		}
		names := make([]string, b.count)
		for i := range names {
			names[i] = fmt.Sprintf("sensor%d", i)
		}
		b.mu.Lock()
		b.names = names
		b.loaded = true
		b.mu.Unlock()
		return nil
	})
	return family.Success, nil
}

func (b *backend) Free() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.group != nil {
		_ = b.group.Wait()
	}
}

func (b *backend) List() ([]*family.Descriptor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return []*family.Descriptor{{
			Label:      "",
			Properties: family.LoadingProperties,
			ValueType:  value.TypeString,
			Family:     b.info,
			Pending:    &family.PendingKey{Pattern: "*"},
		}}, nil
	}
	descs := make([]*family.Descriptor, len(b.names))
	for i, name := range b.names {
		descs[i] = &family.Descriptor{Label: name, ValueType: value.TypeUint32, Family: b.info}
	}
	return descs, nil
}

func (b *backend) Update(s family.Sample, now family.Now) (family.Status, error) {
	if s.Descriptor().Pending != nil {
		b.mu.Lock()
		loaded := b.loaded
		b.mu.Unlock()
		if !loaded {
			return family.Loading, nil
		}
		return family.ReloadFamily, nil
	}

	status, err := value.FromRaw(s.Value(), []byte{1, 0, 0, 0})
	if status == value.Updated {
		return family.Updated, err
	}
	return family.Unchanged, err
}

func (b *backend) Notify(family.WatchEvent, *family.Info, family.Sample, interface{}) (family.Status, error) {
	return family.Success, nil
}

var _ family.Family = (*backend)(nil)
