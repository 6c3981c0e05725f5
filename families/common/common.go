// Package common is the richer "common" family of spec §4.3
// (family_common): it owns the event queue (§4.9) plus a
// suture-supervised worker that turns filesystem hotplug notifications
// into queued events, standing in for the udev/SMC hotplug sources the
// spec treats as out-of-scope external collaborators. Install it via
// registry.WithCommonFamily in place of the package's minimal built-in
// default.
package common

import (
	"context"
	"path/filepath"

	"github.com/syncthing/notify"
	"github.com/thejerf/suture/v4"

	"github.com/calmh/sensord/internal/logger"
	"github.com/calmh/sensord/lib/events"
	"github.com/calmh/sensord/lib/family"
	"github.com/calmh/sensord/lib/registry"
)

// Family is the suture-supervised common family.
type Family struct {
	log   *logger.Logger
	paths []string

	q   *events.Queue
	sup *suture.Supervisor

	cancel context.CancelFunc
	done   chan error
}

// New creates a common family that watches paths for filesystem
// hotplug-style changes (create/remove/rename), turning each into a
// queued events.DeviceEvent. With no paths, the worker idles until
// Free, matching the built-in default's "currently: event queue and a
// worker thread" description for an embedding with nothing to watch.
func New(log *logger.Logger, paths ...string) *Family {
	if log == nil {
		log = logger.Default
	}
	return &Family{
		log:   log,
		paths: paths,
		q:     events.NewQueue(),
		sup:   suture.New("families/common", suture.Spec{}),
	}
}

func (f *Family) Init() (family.Status, error) {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.sup.Add(&hotplugWorker{paths: f.paths, queue: f.q, log: f.log})
	f.done = make(chan error, 1)
	go func() { f.done <- f.sup.Serve(ctx) }()
	return family.Success, nil
}

// Free stops the supervised worker and waits for it to exit, keeping
// Context.Free's teardown deterministic.
func (f *Family) Free() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}

func (f *Family) List() ([]*family.Descriptor, error) { return nil, nil }

func (f *Family) Update(family.Sample, family.Now) (family.Status, error) {
	return family.NotSupported, nil
}

func (f *Family) Notify(family.WatchEvent, *family.Info, family.Sample, interface{}) (family.Status, error) {
	return family.Success, nil
}

// Queue exposes the event queue families drain via events.Queue.Process
// (spec §4.9).
func (f *Family) Queue() *events.Queue { return f.q }

var _ registry.CommonFamily = (*Family)(nil)

// hotplugWorker is the suture.Service that feeds f.q from filesystem
// notifications.
type hotplugWorker struct {
	paths []string
	queue *events.Queue
	log   *logger.Logger
}

func (w *hotplugWorker) Serve(ctx context.Context) error {
	if len(w.paths) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	c := make(chan notify.EventInfo, 32)
	watching := 0
	for _, p := range w.paths {
		if err := notify.Watch(filepath.Join(p, "..."), c, notify.All); err != nil {
			w.log.Warnf("common: watch %s: %v", p, err)
			continue
		}
		watching++
	}
	defer notify.Stop(c)
	if watching == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ei := <-c:
			w.queue.Add(events.NewDeviceEvent(ei.Path(), "fs", actionFor(ei.Event())))
		}
	}
}

func actionFor(e notify.Event) events.Action {
	switch e {
	case notify.Create:
		return events.ActionAdd
	case notify.Remove:
		return events.ActionRemove
	default:
		return events.ActionChange
	}
}
