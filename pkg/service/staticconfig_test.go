package service

import (
	"testing"

	"github.com/go-ipcx/ipcx/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribeStaticConfigRoundTripThroughSections(t *testing.T) {
	name, _ := NewName("temperature")
	sc := NewPublishSubscribeStaticConfig(config.Default(), name, "float64")

	sections := sc.ToSections()
	got, err := StaticConfigFromSections(sections)
	require.NoError(t, err)

	assert.Equal(t, sc.Name, got.Name)
	assert.Equal(t, sc.ID, got.ID)
	assert.Equal(t, sc.Pattern, got.Pattern)
	assert.Equal(t, *sc.PublishSubscribe, *got.PublishSubscribe)
}

func TestEventStaticConfigRoundTrip(t *testing.T) {
	name, _ := NewName("button_pressed")
	sc := NewEventStaticConfig(config.Default(), name)
	got, err := StaticConfigFromSections(sc.ToSections())
	require.NoError(t, err)
	assert.Equal(t, *sc.Event, *got.Event)
}

func TestRequestResponseStaticConfigRoundTrip(t *testing.T) {
	name, _ := NewName("add_numbers")
	sc := NewRequestResponseStaticConfig(config.Default(), name, "AddRequest", "AddResponse")
	got, err := StaticConfigFromSections(sc.ToSections())
	require.NoError(t, err)
	assert.Equal(t, *sc.RequestResponse, *got.RequestResponse)
}

func TestBlackboardStaticConfigRoundTrip(t *testing.T) {
	name, _ := NewName("robot_state")
	sc := NewBlackboardStaticConfig(config.Default(), name, "string", "float64")
	got, err := StaticConfigFromSections(sc.ToSections())
	require.NoError(t, err)
	assert.Equal(t, *sc.Blackboard, *got.Blackboard)
}

func TestStaticConfigFromSectionsRejectsMissingServiceSection(t *testing.T) {
	_, err := StaticConfigFromSections(nil)
	assert.ErrorIs(t, err, ErrCorruptedStaticConfig)
}

func TestStaticConfigFromSectionsRejectsUnknownPattern(t *testing.T) {
	sections := []config.Section{{Name: "service", Keys: map[string]string{
		"name": "x", "id": "y", "pattern": "not-a-real-pattern",
	}}}
	_, err := StaticConfigFromSections(sections)
	assert.ErrorIs(t, err, ErrCorruptedStaticConfig)
}
