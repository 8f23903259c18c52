// Package config is the structured configuration layer: a process-wide
// Config value object (global prefix, root path, per-pattern defaults)
// and the generic static-config persistence helpers every service's
// immutable configuration is built on top of. Loading is always
// explicit and parameter-passed - nothing in this package reads from a
// well-known path on its own, matching the teacher's stance that config
// file discovery is the surrounding CLI's job, not the library's
//.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Global holds the two settings that affect every object name this
// module constructs: the {prefix} every shared-memory
// object and lock file name starts with, and the root directory under
// which node records, service static configs and dynamic storage live.
type Global struct {
	Prefix string
	RootPath string
}

// PublishSubscribeDefaults are the fallback values a service's
// PublishSubscribeConfig takes for any field the creator did not
// override explicitly.
type PublishSubscribeDefaults struct {
	MaxPublishers int
	MaxSubscribers int
	MaxNodes int
	PublisherMaxLoanedSamples int
	PublisherHistorySize int
	SubscriberMaxBufferSize int
	SubscriberMaxBorrowed int
	EnableSafeOverflow bool
}

// EventDefaults are the fallbacks for EventConfig.
type EventDefaults struct {
	MaxNotifiers int
	MaxListeners int
	MaxNodes int
	EventIDMaxValue uint64
}

// RequestResponseDefaults are the fallbacks for RequestResponseConfig.
type RequestResponseDefaults struct {
	MaxClients int
	MaxServers int
	MaxNodes int
	MaxActiveRequestsPerClient int
	MaxBorrowedResponsesPerPendingResponse int
	EnableSafeOverflow bool
}

// BlackboardDefaults are the fallbacks for BlackboardConfig.
type BlackboardDefaults struct {
	MaxReaders int
	MaxWriters int
	MaxNodes int
	MaxEntries int
}

// Config is the value object a Node.Builder is constructed with
//. The zero value is not valid; use Default or Load.
type Config struct {
	Global Global
	PublishSubscribe PublishSubscribeDefaults
	Event EventDefaults
	RequestResponse RequestResponseDefaults
	Blackboard BlackboardDefaults
}

// Default returns the built-in fallback configuration, matching the
// constants a fresh node.Builder uses when the caller supplies no
// override ( "unspecified StaticConfig fields fall back to
// Config's corresponding default").
func Default() Config {
	return Config{
		Global: Global{Prefix: "iox2_", RootPath: "/tmp/ipcx"},
		PublishSubscribe: PublishSubscribeDefaults{
			MaxPublishers: 16,
			MaxSubscribers: 16,
			MaxNodes: 64,
			PublisherMaxLoanedSamples: 4,
			PublisherHistorySize: 20,
			SubscriberMaxBufferSize: 2,
			SubscriberMaxBorrowed: 2,
			EnableSafeOverflow: true,
		},
		Event: EventDefaults{
			MaxNotifiers: 16,
			MaxListeners: 16,
			MaxNodes: 64,
			EventIDMaxValue: 1<<64 - 1,
		},
		RequestResponse: RequestResponseDefaults{
			MaxClients: 16,
			MaxServers: 16,
			MaxNodes: 64,
			MaxActiveRequestsPerClient: 8,
			MaxBorrowedResponsesPerPendingResponse: 8,
			EnableSafeOverflow: true,
		},
		Blackboard: BlackboardDefaults{
			MaxReaders: 16,
			MaxWriters: 1,
			MaxNodes: 64,
			MaxEntries: 64,
		},
	}
}

// Load reads a Config from an ini file at path, starting from Default
// and overriding only the keys present (: partial files are
// valid, missing keys keep their default).
func Load(path string) (Config, error) {
	cfg := Default()
	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}

	if s, err := file.GetSection("global"); err == nil {
		cfg.Global.Prefix = s.Key("prefix").MustString(cfg.Global.Prefix)
		cfg.Global.RootPath = s.Key("root-path").MustString(cfg.Global.RootPath)
	}
	if s, err := file.GetSection("publish-subscribe"); err == nil {
		cfg.PublishSubscribe.MaxPublishers = s.Key("max-publishers").MustInt(cfg.PublishSubscribe.MaxPublishers)
		cfg.PublishSubscribe.MaxSubscribers = s.Key("max-subscribers").MustInt(cfg.PublishSubscribe.MaxSubscribers)
		cfg.PublishSubscribe.MaxNodes = s.Key("max-nodes").MustInt(cfg.PublishSubscribe.MaxNodes)
		cfg.PublishSubscribe.PublisherMaxLoanedSamples = s.Key("publisher-max-loaned-samples").MustInt(cfg.PublishSubscribe.PublisherMaxLoanedSamples)
		cfg.PublishSubscribe.PublisherHistorySize = s.Key("publisher-history-size").MustInt(cfg.PublishSubscribe.PublisherHistorySize)
		cfg.PublishSubscribe.SubscriberMaxBufferSize = s.Key("subscriber-max-buffer-size").MustInt(cfg.PublishSubscribe.SubscriberMaxBufferSize)
		cfg.PublishSubscribe.SubscriberMaxBorrowed = s.Key("subscriber-max-borrowed").MustInt(cfg.PublishSubscribe.SubscriberMaxBorrowed)
		cfg.PublishSubscribe.EnableSafeOverflow = s.Key("enable-safe-overflow").MustBool(cfg.PublishSubscribe.EnableSafeOverflow)
	}
	if s, err := file.GetSection("event"); err == nil {
		cfg.Event.MaxNotifiers = s.Key("max-notifiers").MustInt(cfg.Event.MaxNotifiers)
		cfg.Event.MaxListeners = s.Key("max-listeners").MustInt(cfg.Event.MaxListeners)
		cfg.Event.MaxNodes = s.Key("max-nodes").MustInt(cfg.Event.MaxNodes)
		cfg.Event.EventIDMaxValue = uint64(s.Key("event-id-max-value").MustUint64(cfg.Event.EventIDMaxValue))
	}
	if s, err := file.GetSection("request-response"); err == nil {
		cfg.RequestResponse.MaxClients = s.Key("max-clients").MustInt(cfg.RequestResponse.MaxClients)
		cfg.RequestResponse.MaxServers = s.Key("max-servers").MustInt(cfg.RequestResponse.MaxServers)
		cfg.RequestResponse.MaxNodes = s.Key("max-nodes").MustInt(cfg.RequestResponse.MaxNodes)
		cfg.RequestResponse.MaxActiveRequestsPerClient = s.Key("max-active-requests-per-client").MustInt(cfg.RequestResponse.MaxActiveRequestsPerClient)
		cfg.RequestResponse.MaxBorrowedResponsesPerPendingResponse = s.Key("max-borrowed-responses-per-pending-response").MustInt(cfg.RequestResponse.MaxBorrowedResponsesPerPendingResponse)
		cfg.RequestResponse.EnableSafeOverflow = s.Key("enable-safe-overflow").MustBool(cfg.RequestResponse.EnableSafeOverflow)
	}
	if s, err := file.GetSection("blackboard"); err == nil {
		cfg.Blackboard.MaxReaders = s.Key("max-readers").MustInt(cfg.Blackboard.MaxReaders)
		cfg.Blackboard.MaxWriters = s.Key("max-writers").MustInt(cfg.Blackboard.MaxWriters)
		cfg.Blackboard.MaxNodes = s.Key("max-nodes").MustInt(cfg.Blackboard.MaxNodes)
		cfg.Blackboard.MaxEntries = s.Key("max-entries").MustInt(cfg.Blackboard.MaxEntries)
	}
	return cfg, nil
}

// Persist writes cfg to path as an ini file, the counterpart to Load.
func Persist(cfg Config, path string) error {
	file := ini.Empty()

	g, _ := file.NewSection("global")
	g.NewKey("prefix", cfg.Global.Prefix)
	g.NewKey("root-path", cfg.Global.RootPath)

	ps, _ := file.NewSection("publish-subscribe")
	ps.NewKey("max-publishers", fmt.Sprint(cfg.PublishSubscribe.MaxPublishers))
	ps.NewKey("max-subscribers", fmt.Sprint(cfg.PublishSubscribe.MaxSubscribers))
	ps.NewKey("max-nodes", fmt.Sprint(cfg.PublishSubscribe.MaxNodes))
	ps.NewKey("publisher-max-loaned-samples", fmt.Sprint(cfg.PublishSubscribe.PublisherMaxLoanedSamples))
	ps.NewKey("publisher-history-size", fmt.Sprint(cfg.PublishSubscribe.PublisherHistorySize))
	ps.NewKey("subscriber-max-buffer-size", fmt.Sprint(cfg.PublishSubscribe.SubscriberMaxBufferSize))
	ps.NewKey("subscriber-max-borrowed", fmt.Sprint(cfg.PublishSubscribe.SubscriberMaxBorrowed))
	ps.NewKey("enable-safe-overflow", fmt.Sprint(cfg.PublishSubscribe.EnableSafeOverflow))

	ev, _ := file.NewSection("event")
	ev.NewKey("max-notifiers", fmt.Sprint(cfg.Event.MaxNotifiers))
	ev.NewKey("max-listeners", fmt.Sprint(cfg.Event.MaxListeners))
	ev.NewKey("max-nodes", fmt.Sprint(cfg.Event.MaxNodes))
	ev.NewKey("event-id-max-value", fmt.Sprint(cfg.Event.EventIDMaxValue))

	rr, _ := file.NewSection("request-response")
	rr.NewKey("max-clients", fmt.Sprint(cfg.RequestResponse.MaxClients))
	rr.NewKey("max-servers", fmt.Sprint(cfg.RequestResponse.MaxServers))
	rr.NewKey("max-nodes", fmt.Sprint(cfg.RequestResponse.MaxNodes))
	rr.NewKey("max-active-requests-per-client", fmt.Sprint(cfg.RequestResponse.MaxActiveRequestsPerClient))
	rr.NewKey("max-borrowed-responses-per-pending-response", fmt.Sprint(cfg.RequestResponse.MaxBorrowedResponsesPerPendingResponse))
	rr.NewKey("enable-safe-overflow", fmt.Sprint(cfg.RequestResponse.EnableSafeOverflow))

	bb, _ := file.NewSection("blackboard")
	bb.NewKey("max-readers", fmt.Sprint(cfg.Blackboard.MaxReaders))
	bb.NewKey("max-writers", fmt.Sprint(cfg.Blackboard.MaxWriters))
	bb.NewKey("max-nodes", fmt.Sprint(cfg.Blackboard.MaxNodes))
	bb.NewKey("max-entries", fmt.Sprint(cfg.Blackboard.MaxEntries))

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("config: persist %s: %w", path, err)
	}
	return nil
}
