package discovery

import (
	"fmt"

	"github.com/go-ipcx/ipcx/internal/obslog"
	"github.com/go-ipcx/ipcx/pkg/config"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/pubsub"
	"github.com/go-ipcx/ipcx/pkg/service"
)

var log = obslog.Named(nil, "discovery")

// trackerServiceName is the one well-known publish-subscribe service
// every Tracker publishes Change samples on and every Watcher attaches
// to - analogous to the teacher's reserved CANopen broadcast COB-IDs
// (NMT, SYNC) that every node on the network agrees on without
// discovering them first.
const trackerServiceName = "__ipcx_discovery"

// Tracker periodically re-lists every service recorded under cfg's
// service directory, other than the discovery service itself, and
// publishes a Change for each one that has newly appeared or disappeared
// since the previous poll.
type Tracker struct {
	n   *node.Node
	cfg config.Config
	pub *pubsub.Publisher[Change]

	known map[service.ID]service.StaticConfig
}

// NewTracker creates a Tracker owned by n. Only one Tracker is normally
// created per node set sharing cfg's root path, but nothing prevents
// more - each publishes independently into the same well-known service,
// and a redundant Added/Removed pair is harmless for a Watcher to
// observe twice.
func NewTracker(n *node.Node, cfg config.Config) (*Tracker, error) {
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

	pub, err := pubsub.NewPublisher[Change](n, svc, pubsub.DiscardSample)
	if err != nil {
		return nil, fmt.Errorf("discovery: create tracker publisher: %w", err)
	}

	t := &Tracker{n: n, cfg: cfg, pub: pub, known: map[service.ID]service.StaticConfig{}}
	if _, err := t.Poll(); err != nil {
		pub.Close()
		return nil, err
	}
	return t, nil
}

// Poll re-lists every service except the discovery service itself,
// publishes a Change for each newly seen or newly absent one, and returns
// those changes.
func (t *Tracker) Poll() ([]Change, error) {
	current, err := service.ListServices(t.cfg)
	if err != nil {
		return nil, fmt.Errorf("discovery: list services: %w", err)
	}

	seen := make(map[service.ID]service.StaticConfig, len(current))
	var changes []Change
	for _, sc := range current {
		if sc.Name == trackerServiceName {
			continue
		}
		seen[sc.ID] = sc
		if _, ok := t.known[sc.ID]; !ok {
			changes = append(changes, newChange(Added, sc))
		}
	}
	for id, sc := range t.known {
		if _, ok := seen[id]; !ok {
			changes = append(changes, newChange(Removed, sc))
		}
	}
	t.known = seen

	for _, c := range changes {
		if _, err := t.pub.SendCopy(c); err != nil {
			log.Error("failed to publish service change", "kind", c.Kind.String(), "id", string(c.ID()), "err", err)
		}
	}
	return changes, nil
}

// Services returns every service known as of the last Poll.
func (t *Tracker) Services() []service.StaticConfig {
	out := make([]service.StaticConfig, 0, len(t.known))
	for _, sc := range t.known {
		out = append(out, sc)
	}
	return out
}

// Close releases the tracker's publisher. The underlying roster data on
// disk is untouched - closing a Tracker stops this node from announcing
// changes, it does not remove any service.
func (t *Tracker) Close() error {
	return t.pub.Close()
}
