package ospal

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
)

// HashToBase64URL computes a deterministic 160-bit digest over an exact
// byte sequence, base64url-encoded without padding so the result is
// filesystem-safe. SHA-1 needs no third-party hash package: it is a
// stdlib one-liner with no tunable parameters, so there is nothing an
// external crate would add (see DESIGN.md).
func HashToBase64URL(data []byte) string {
	sum := sha1.Sum(data)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// AppendUint32 / AppendUint64 / AppendString append the wire encodings
// used when building the exact byte sequence that gets hashed
// (length-prefixed strings, little-endian-agnostic since only byte
// identity matters, not numeric interpretation - but we fix little-endian
// for determinism across architectures).
func AppendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func AppendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func AppendString(buf []byte, s string) []byte {
	buf = AppendUint64(buf, uint64(len(s)))
	return append(buf, s...)
}
