package service

import "github.com/go-ipcx/ipcx/internal/ospal"

// ID is a service's base64url identity, deterministically derived from
// (pattern, type details, name) so any two nodes that agree on those
// three values agree on the id without communicating.
type ID string

// DeriveID implements exact byte sequence: pattern tag,
// then length-prefixed type details, then length-prefixed name, hashed
// and base64url-encoded by internal/ospal.
func DeriveID(pattern Pattern, typeDetails string, name Name) ID {
	buf := ospal.AppendUint32(nil, uint32(pattern))
	buf = ospal.AppendString(buf, typeDetails)
	buf = ospal.AppendString(buf, string(name))
	return ID(ospal.HashToBase64URL(buf))
}

func (id ID) String() string { return string(id) }
