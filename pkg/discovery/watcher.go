package discovery

import (
	"fmt"

	"github.com/go-ipcx/ipcx/pkg/config"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/pubsub"
	"github.com/go-ipcx/ipcx/pkg/service"
)

// Watcher receives the Change stream published by any Tracker on cfg's
// root path, without itself polling the filesystem.
type Watcher struct {
	n   *node.Node
	sub *pubsub.Subscriber[Change]
}

// NewWatcher attaches a Watcher to the well-known discovery service,
// creating it (with no publisher yet attached) if no Tracker has been
// created there first. bufferSize bounds how many undelivered changes
// the watcher's connection queue can hold before the tracker's overflow
// policy kicks in.
func NewWatcher(n *node.Node, cfg config.Config, bufferSize int) (*Watcher, error) {
	name, err := service.NewName(trackerServiceName)
	if err != nil {
		return nil, err
	}
	sc := service.NewPublishSubscribeStaticConfig(cfg, name, "discovery.Change")
	svc, err := service.NewBuilder(cfg, n).OpenOrCreate(service.PublishSubscribe, sc)
	if err != nil {
		return nil, fmt.Errorf("discovery: open tracker service: %w", err)
	}
	if svc.Static.Pattern != service.PublishSubscribe {
		return nil, ErrTrackerNameTaken
	}

	sub, err := pubsub.NewSubscriber[Change](n, svc, bufferSize)
	if err != nil {
		return nil, fmt.Errorf("discovery: create watcher subscriber: %w", err)
	}
	return &Watcher{n: n, sub: sub}, nil
}

// ID returns the watcher's unique port id.
func (w *Watcher) ID() node.UniqueSubscriberID { return w.sub.ID() }

// Next returns the next queued Change, or (zero, false, nil) if none is
// currently queued.
func (w *Watcher) Next() (Change, bool, error) {
	sample, err := w.sub.Receive()
	if err != nil {
		return Change{}, false, err
	}
	if sample == nil {
		return Change{}, false, nil
	}
	defer sample.Release()
	return *sample.Value(), true, nil
}

// Close detaches the watcher.
func (w *Watcher) Close() error {
	return w.sub.Close()
}
