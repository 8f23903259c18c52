package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistStaticThenLoadStaticRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.service")
	sections := []Section{
		{Name: "service", Keys: map[string]string{"name": "my_topic", "id": "abc123"}},
		{Name: "publish-subscribe", Keys: map[string]string{"max-publishers": "4"}},
	}
	require.NoError(t, PersistStatic(path, sections))

	loaded, err := LoadStatic(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byName := map[string]Section{}
	for _, s := range loaded {
		byName[s.Name] = s
	}
	assert.Equal(t, "my_topic", byName["service"].Keys["name"])
	assert.Equal(t, "abc123", byName["service"].Keys["id"])
	assert.Equal(t, "4", byName["publish-subscribe"].Keys["max-publishers"])
}

func TestLoadStaticMissingFileErrors(t *testing.T) {
	_, err := LoadStatic(filepath.Join(t.TempDir(), "missing.service"))
	assert.Error(t, err)
}
