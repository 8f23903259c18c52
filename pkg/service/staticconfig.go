package service

import (
	"fmt"
	"strconv"

	"github.com/go-ipcx/ipcx/pkg/config"
)

// PublishSubscribeConfig is the immutable, service-wide configuration a
// publish-subscribe service is created with.
type PublishSubscribeConfig struct {
	TypeDetails string
	MaxPublishers int
	MaxSubscribers int
	MaxNodes int
	PublisherMaxLoanedSamples int
	PublisherHistorySize int
	SubscriberMaxBufferSize int
	SubscriberMaxBorrowed int
	EnableSafeOverflow bool
}

// EventConfig is the immutable configuration of an event service.
type EventConfig struct {
	MaxNotifiers int
	MaxListeners int
	MaxNodes int
	EventIDMaxValue uint64
}

// RequestResponseConfig is the immutable configuration of a
// request-response service.
type RequestResponseConfig struct {
	RequestTypeDetails string
	ResponseTypeDetails string
	MaxClients int
	MaxServers int
	MaxNodes int
	MaxActiveRequestsPerClient int
	MaxBorrowedResponsesPerPendingResponse int
	EnableSafeOverflow bool
}

// BlackboardConfig is the immutable configuration of a blackboard
// service.
type BlackboardConfig struct {
	KeyTypeDetails string
	ValueTypeDetails string
	MaxReaders int
	MaxWriters int
	MaxNodes int
	MaxEntries int
}

// StaticConfig is the one immutable struct persisted at service-creation
// time and re-read (never re-written) by every later opener (
// "Static config"). Exactly one of the pattern-specific fields is
// populated, matching Pattern.
type StaticConfig struct {
	Name Name
	ID ID
	Pattern Pattern

	PublishSubscribe *PublishSubscribeConfig
	Event *EventConfig
	RequestResponse *RequestResponseConfig
	Blackboard *BlackboardConfig
}

// NewPublishSubscribeStaticConfig builds a StaticConfig for a
// publish-subscribe service from cfg's defaults, deriving the service id
// from (pattern, typeDetails, name).
func NewPublishSubscribeStaticConfig(cfg config.Config, name Name, typeDetails string) StaticConfig {
	d := cfg.PublishSubscribe
	return StaticConfig{
		Name: name,
		ID: DeriveID(PublishSubscribe, typeDetails, name),
		Pattern: PublishSubscribe,
		PublishSubscribe: &PublishSubscribeConfig{
			TypeDetails: typeDetails,
			MaxPublishers: d.MaxPublishers,
			MaxSubscribers: d.MaxSubscribers,
			MaxNodes: d.MaxNodes,
			PublisherMaxLoanedSamples: d.PublisherMaxLoanedSamples,
			PublisherHistorySize: d.PublisherHistorySize,
			SubscriberMaxBufferSize: d.SubscriberMaxBufferSize,
			SubscriberMaxBorrowed: d.SubscriberMaxBorrowed,
			EnableSafeOverflow: d.EnableSafeOverflow,
		},
	}
}

// NewEventStaticConfig builds a StaticConfig for an event service.
func NewEventStaticConfig(cfg config.Config, name Name) StaticConfig {
	d := cfg.Event
	return StaticConfig{
		Name: name,
		ID: DeriveID(Event, "event-id-u64", name),
		Pattern: Event,
		Event: &EventConfig{
			MaxNotifiers: d.MaxNotifiers,
			MaxListeners: d.MaxListeners,
			MaxNodes: d.MaxNodes,
			EventIDMaxValue: d.EventIDMaxValue,
		},
	}
}

// NewRequestResponseStaticConfig builds a StaticConfig for a
// request-response service.
func NewRequestResponseStaticConfig(cfg config.Config, name Name, requestType, responseType string) StaticConfig {
	d := cfg.RequestResponse
	return StaticConfig{
		Name: name,
		ID: DeriveID(RequestResponse, requestType+"|"+responseType, name),
		Pattern: RequestResponse,
		RequestResponse: &RequestResponseConfig{
			RequestTypeDetails: requestType,
			ResponseTypeDetails: responseType,
			MaxClients: d.MaxClients,
			MaxServers: d.MaxServers,
			MaxNodes: d.MaxNodes,
			MaxActiveRequestsPerClient: d.MaxActiveRequestsPerClient,
			MaxBorrowedResponsesPerPendingResponse: d.MaxBorrowedResponsesPerPendingResponse,
			EnableSafeOverflow: d.EnableSafeOverflow,
		},
	}
}

// NewBlackboardStaticConfig builds a StaticConfig for a blackboard
// service.
func NewBlackboardStaticConfig(cfg config.Config, name Name, keyType, valueType string) StaticConfig {
	d := cfg.Blackboard
	return StaticConfig{
		Name: name,
		ID: DeriveID(Blackboard, keyType+"|"+valueType, name),
		Pattern: Blackboard,
		Blackboard: &BlackboardConfig{
			KeyTypeDetails: keyType,
			ValueTypeDetails: valueType,
			MaxReaders: d.MaxReaders,
			MaxWriters: d.MaxWriters,
			MaxNodes: d.MaxNodes,
			MaxEntries: d.MaxEntries,
		},
	}
}

// TypeDetails returns the type-compatibility string carried by whichever
// pattern-specific config is populated, used by Open to check
// ErrIncompatibleTypes.
func (sc StaticConfig) TypeDetails() string {
	switch sc.Pattern {
	case PublishSubscribe:
		return sc.PublishSubscribe.TypeDetails
	case RequestResponse:
		return sc.RequestResponse.RequestTypeDetails + "|" + sc.RequestResponse.ResponseTypeDetails
	case Blackboard:
		return sc.Blackboard.KeyTypeDetails + "|" + sc.Blackboard.ValueTypeDetails
	case Event:
		return "event-id-u64"
	default:
		return ""
	}
}

// maxNodes returns whichever pattern-specific config is populated's
// MaxNodes, used to size the service's node roster at Create time.
func (sc StaticConfig) maxNodes() int {
	switch sc.Pattern {
	case PublishSubscribe:
		return sc.PublishSubscribe.MaxNodes
	case Event:
		return sc.Event.MaxNodes
	case RequestResponse:
		return sc.RequestResponse.MaxNodes
	case Blackboard:
		return sc.Blackboard.MaxNodes
	default:
		return 0
	}
}

// Validate rejects a StaticConfig whose maxima can never admit a single
// port or node - the build-time boundary "creating a service with
// max_publishers = 0 is rejected at build time" generalized to every
// pattern's capacity fields. Create calls this before persisting
// anything, so a malformed config never reaches disk.
func (sc StaticConfig) Validate() error {
	if sc.maxNodes() <= 0 {
		return fmt.Errorf("%w: max-nodes must be > 0", ErrInvalidStaticConfig)
	}
	switch sc.Pattern {
	case PublishSubscribe:
		p := sc.PublishSubscribe
		if p.MaxPublishers <= 0 {
			return fmt.Errorf("%w: max-publishers must be > 0", ErrInvalidStaticConfig)
		}
		if p.MaxSubscribers <= 0 {
			return fmt.Errorf("%w: max-subscribers must be > 0", ErrInvalidStaticConfig)
		}
	case Event:
		e := sc.Event
		if e.MaxNotifiers <= 0 {
			return fmt.Errorf("%w: max-notifiers must be > 0", ErrInvalidStaticConfig)
		}
		if e.MaxListeners <= 0 {
			return fmt.Errorf("%w: max-listeners must be > 0", ErrInvalidStaticConfig)
		}
	case RequestResponse:
		r := sc.RequestResponse
		if r.MaxClients <= 0 {
			return fmt.Errorf("%w: max-clients must be > 0", ErrInvalidStaticConfig)
		}
		if r.MaxServers <= 0 {
			return fmt.Errorf("%w: max-servers must be > 0", ErrInvalidStaticConfig)
		}
	case Blackboard:
		b := sc.Blackboard
		if b.MaxReaders <= 0 {
			return fmt.Errorf("%w: max-readers must be > 0", ErrInvalidStaticConfig)
		}
		if b.MaxWriters <= 0 {
			return fmt.Errorf("%w: max-writers must be > 0", ErrInvalidStaticConfig)
		}
		if b.MaxEntries <= 0 {
			return fmt.Errorf("%w: max-entries must be > 0", ErrInvalidStaticConfig)
		}
	default:
		return fmt.Errorf("%w: unknown pattern", ErrInvalidStaticConfig)
	}
	return nil
}

// ToSections serializes sc into the generic config.Section form
// pkg/config.PersistStatic writes to disk.
func (sc StaticConfig) ToSections() []config.Section {
	sections := []config.Section{{
		Name: "service",
		Keys: map[string]string{
			"name": string(sc.Name),
			"id": string(sc.ID),
			"pattern": sc.Pattern.String(),
		},
	}}

	switch sc.Pattern {
	case PublishSubscribe:
		p := sc.PublishSubscribe
		sections = append(sections, config.Section{Name: "publish-subscribe", Keys: map[string]string{
			"type-details": p.TypeDetails,
			"max-publishers": strconv.Itoa(p.MaxPublishers),
			"max-subscribers": strconv.Itoa(p.MaxSubscribers),
			"max-nodes": strconv.Itoa(p.MaxNodes),
			"publisher-max-loaned-samples": strconv.Itoa(p.PublisherMaxLoanedSamples),
			"publisher-history-size": strconv.Itoa(p.PublisherHistorySize),
			"subscriber-max-buffer-size": strconv.Itoa(p.SubscriberMaxBufferSize),
			"subscriber-max-borrowed": strconv.Itoa(p.SubscriberMaxBorrowed),
			"enable-safe-overflow": strconv.FormatBool(p.EnableSafeOverflow),
		}})
	case Event:
		e := sc.Event
		sections = append(sections, config.Section{Name: "event", Keys: map[string]string{
			"max-notifiers": strconv.Itoa(e.MaxNotifiers),
			"max-listeners": strconv.Itoa(e.MaxListeners),
			"max-nodes": strconv.Itoa(e.MaxNodes),
			"event-id-max-value": strconv.FormatUint(e.EventIDMaxValue, 10),
		}})
	case RequestResponse:
		r := sc.RequestResponse
		sections = append(sections, config.Section{Name: "request-response", Keys: map[string]string{
			"request-type-details": r.RequestTypeDetails,
			"response-type-details": r.ResponseTypeDetails,
			"max-clients": strconv.Itoa(r.MaxClients),
			"max-servers": strconv.Itoa(r.MaxServers),
			"max-nodes": strconv.Itoa(r.MaxNodes),
			"max-active-requests-per-client": strconv.Itoa(r.MaxActiveRequestsPerClient),
			"max-borrowed-responses-per-pending-response": strconv.Itoa(r.MaxBorrowedResponsesPerPendingResponse),
			"enable-safe-overflow": strconv.FormatBool(r.EnableSafeOverflow),
		}})
	case Blackboard:
		b := sc.Blackboard
		sections = append(sections, config.Section{Name: "blackboard", Keys: map[string]string{
			"key-type-details": b.KeyTypeDetails,
			"value-type-details": b.ValueTypeDetails,
			"max-readers": strconv.Itoa(b.MaxReaders),
			"max-writers": strconv.Itoa(b.MaxWriters),
			"max-nodes": strconv.Itoa(b.MaxNodes),
			"max-entries": strconv.Itoa(b.MaxEntries),
		}})
	}
	return sections
}

// StaticConfigFromSections parses sections back into a StaticConfig,
// the inverse of ToSections. Returns ErrCorruptedStaticConfig if the
// "service" section or any field required by its named pattern is
// missing or fails to parse.
func StaticConfigFromSections(sections []config.Section) (StaticConfig, error) {
	byName := map[string]config.Section{}
	for _, s := range sections {
		byName[s.Name] = s
	}

	svc, ok := byName["service"]
	if !ok {
		return StaticConfig{}, fmt.Errorf("%w: missing [service] section", ErrCorruptedStaticConfig)
	}

	sc := StaticConfig{
		Name: Name(svc.Keys["name"]),
		ID: ID(svc.Keys["id"]),
	}
	switch svc.Keys["pattern"] {
	case PublishSubscribe.String():
		sc.Pattern = PublishSubscribe
	case Event.String():
		sc.Pattern = Event
	case RequestResponse.String():
		sc.Pattern = RequestResponse
	case Blackboard.String():
		sc.Pattern = Blackboard
	default:
		return StaticConfig{}, fmt.Errorf("%w: unknown pattern %q", ErrCorruptedStaticConfig, svc.Keys["pattern"])
	}

	switch sc.Pattern {
	case PublishSubscribe:
		p, ok := byName["publish-subscribe"]
		if !ok {
			return StaticConfig{}, fmt.Errorf("%w: missing [publish-subscribe] section", ErrCorruptedStaticConfig)
		}
		cfg, err := parsePublishSubscribe(p)
		if err != nil {
			return StaticConfig{}, err
		}
		sc.PublishSubscribe = cfg
	case Event:
		e, ok := byName["event"]
		if !ok {
			return StaticConfig{}, fmt.Errorf("%w: missing [event] section", ErrCorruptedStaticConfig)
		}
		cfg, err := parseEvent(e)
		if err != nil {
			return StaticConfig{}, err
		}
		sc.Event = cfg
	case RequestResponse:
		r, ok := byName["request-response"]
		if !ok {
			return StaticConfig{}, fmt.Errorf("%w: missing [request-response] section", ErrCorruptedStaticConfig)
		}
		cfg, err := parseRequestResponse(r)
		if err != nil {
			return StaticConfig{}, err
		}
		sc.RequestResponse = cfg
	case Blackboard:
		b, ok := byName["blackboard"]
		if !ok {
			return StaticConfig{}, fmt.Errorf("%w: missing [blackboard] section", ErrCorruptedStaticConfig)
		}
		cfg, err := parseBlackboard(b)
		if err != nil {
			return StaticConfig{}, err
		}
		sc.Blackboard = cfg
	}
	return sc, nil
}

func parseInt(s config.Section, key string) (int, error) {
	v, err := strconv.Atoi(s.Keys[key])
	if err != nil {
		return 0, fmt.Errorf("%w: [%s] %s: %v", ErrCorruptedStaticConfig, s.Name, key, err)
	}
	return v, nil
}

func parseBool(s config.Section, key string) (bool, error) {
	v, err := strconv.ParseBool(s.Keys[key])
	if err != nil {
		return false, fmt.Errorf("%w: [%s] %s: %v", ErrCorruptedStaticConfig, s.Name, key, err)
	}
	return v, nil
}

func parsePublishSubscribe(s config.Section) (*PublishSubscribeConfig, error) {
	maxPub, err := parseInt(s, "max-publishers")
	if err != nil {
		return nil, err
	}
	maxSub, err := parseInt(s, "max-subscribers")
	if err != nil {
		return nil, err
	}
	maxNodes, err := parseInt(s, "max-nodes")
	if err != nil {
		return nil, err
	}
	maxLoaned, err := parseInt(s, "publisher-max-loaned-samples")
	if err != nil {
		return nil, err
	}
	history, err := parseInt(s, "publisher-history-size")
	if err != nil {
		return nil, err
	}
	bufSize, err := parseInt(s, "subscriber-max-buffer-size")
	if err != nil {
		return nil, err
	}
	borrowed, err := parseInt(s, "subscriber-max-borrowed")
	if err != nil {
		return nil, err
	}
	overflow, err := parseBool(s, "enable-safe-overflow")
	if err != nil {
		return nil, err
	}
	return &PublishSubscribeConfig{
		TypeDetails: s.Keys["type-details"],
		MaxPublishers: maxPub,
		MaxSubscribers: maxSub,
		MaxNodes: maxNodes,
		PublisherMaxLoanedSamples: maxLoaned,
		PublisherHistorySize: history,
		SubscriberMaxBufferSize: bufSize,
		SubscriberMaxBorrowed: borrowed,
		EnableSafeOverflow: overflow,
	}, nil
}

func parseEvent(s config.Section) (*EventConfig, error) {
	maxNotifiers, err := parseInt(s, "max-notifiers")
	if err != nil {
		return nil, err
	}
	maxListeners, err := parseInt(s, "max-listeners")
	if err != nil {
		return nil, err
	}
	maxNodes, err := parseInt(s, "max-nodes")
	if err != nil {
		return nil, err
	}
	maxVal, err := strconv.ParseUint(s.Keys["event-id-max-value"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: [event] event-id-max-value: %v", ErrCorruptedStaticConfig, err)
	}
	return &EventConfig{MaxNotifiers: maxNotifiers, MaxListeners: maxListeners, MaxNodes: maxNodes, EventIDMaxValue: maxVal}, nil
}

func parseRequestResponse(s config.Section) (*RequestResponseConfig, error) {
	maxClients, err := parseInt(s, "max-clients")
	if err != nil {
		return nil, err
	}
	maxServers, err := parseInt(s, "max-servers")
	if err != nil {
		return nil, err
	}
	maxNodes, err := parseInt(s, "max-nodes")
	if err != nil {
		return nil, err
	}
	maxActive, err := parseInt(s, "max-active-requests-per-client")
	if err != nil {
		return nil, err
	}
	maxBorrowed, err := parseInt(s, "max-borrowed-responses-per-pending-response")
	if err != nil {
		return nil, err
	}
	overflow, err := parseBool(s, "enable-safe-overflow")
	if err != nil {
		return nil, err
	}
	return &RequestResponseConfig{
		RequestTypeDetails: s.Keys["request-type-details"],
		ResponseTypeDetails: s.Keys["response-type-details"],
		MaxClients: maxClients,
		MaxServers: maxServers,
		MaxNodes: maxNodes,
		MaxActiveRequestsPerClient: maxActive,
		MaxBorrowedResponsesPerPendingResponse: maxBorrowed,
		EnableSafeOverflow: overflow,
	}, nil
}

func parseBlackboard(s config.Section) (*BlackboardConfig, error) {
	maxReaders, err := parseInt(s, "max-readers")
	if err != nil {
		return nil, err
	}
	maxWriters, err := parseInt(s, "max-writers")
	if err != nil {
		return nil, err
	}
	maxNodes, err := parseInt(s, "max-nodes")
	if err != nil {
		return nil, err
	}
	maxEntries, err := parseInt(s, "max-entries")
	if err != nil {
		return nil, err
	}
	return &BlackboardConfig{
		KeyTypeDetails: s.Keys["key-type-details"],
		ValueTypeDetails: s.Keys["value-type-details"],
		MaxReaders: maxReaders,
		MaxWriters: maxWriters,
		MaxNodes: maxNodes,
		MaxEntries: maxEntries,
	}, nil
}
