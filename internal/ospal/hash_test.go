package ospal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashToBase64URLIsDeterministic(t *testing.T) {
	buf := AppendString(nil, "my_service")
	buf = AppendUint32(buf, 1)

	a := HashToBase64URL(buf)
	b := HashToBase64URL(buf)
	assert.Equal(t, a, b)
	assert.NotContains(t, a, "=") // RawURLEncoding: no padding
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestHashToBase64URLDiffersOnInput(t *testing.T) {
	a := HashToBase64URL(AppendString(nil, "service_a"))
	b := HashToBase64URL(AppendString(nil, "service_b"))
	assert.NotEqual(t, a, b)
}

func TestAppendStringIsLengthPrefixed(t *testing.T) {
	buf := AppendString(nil, "ab")
	buf2 := AppendString(nil, "a") // same prefix bytes, different length
	buf2 = append(buf2, 'b')
	assert.NotEqual(t, buf, buf2)
}
