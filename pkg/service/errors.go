package service

import "errors"

var (
	// ErrNameInvalid is returned by Name.Validate for an empty name, a
	// name longer than MaxNameLength, or one containing '/' or a control
	// byte.
	ErrNameInvalid = errors.New("service: name is invalid")

	// ErrAlreadyExists is returned by Create (and by OpenOrCreate's
	// create step) when the service's creation lock already exists -
	// another caller, in this or another process, created it first
	//.
	ErrAlreadyExists = errors.New("service: already exists")

	// ErrDoesNotExist is returned by Open (and by OpenOrCreate's open
	// step) when no static config file exists for the given name/pattern.
	ErrDoesNotExist = errors.New("service: does not exist")

	// ErrIncompatiblePattern is returned when an existing service's
	// static config names a different messaging pattern than requested
	//.
	ErrIncompatiblePattern = errors.New("service: incompatible messaging pattern")

	// ErrIncompatibleTypes is returned when an existing service's static
	// config type details hash does not match the type details derived
	// from the caller's requested payload/event/key/value types (
	// IncompatibleTypes).
	ErrIncompatibleTypes = errors.New("service: incompatible types")

	// ErrCorruptedStaticConfig is returned when a service's static config
	// file exists but fails to parse or is missing required keys -
	// exactly the "corrupted static config" fatal condition of SPEC_FULL
	//, surfaced here as a normal error so the caller (not this
	// package) decides whether it is fatal.
	ErrCorruptedStaticConfig = errors.New("service: corrupted static config")

	// ErrInvalidStaticConfig is returned by StaticConfig.Validate (and
	// hence by Create) when a pattern's capacity fields can never admit a
	// single port or node - max_publishers = 0 and friends.
	ErrInvalidStaticConfig = errors.New("service: invalid static config")

	// ErrExceedsMaxSupportedNodes is returned by Open when a service's
	// node roster is already at the capacity fixed by its static config's
	// max-nodes at creation time.
	ErrExceedsMaxSupportedNodes = errors.New("service: exceeds max supported nodes")
)
