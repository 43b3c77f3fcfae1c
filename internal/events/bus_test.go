package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()

	var received []*Event
	bus.Subscribe(AlertEmitted, func(e *Event) {
		received = append(received, e)
	})

	bus.Publish(AlertEmitted, "signals", map[string]string{"ticker": "NVDA"})
	bus.Publish(RunCompleted, "analysis", nil) // no subscriber

	require.Len(t, received, 1)
	assert.Equal(t, AlertEmitted, received[0].Type)
	assert.Equal(t, "signals", received[0].Module)
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()

	count := 0
	bus.Subscribe(RunStarted, func(*Event) { count++ })
	bus.Subscribe(RunStarted, func(*Event) { count++ })

	bus.Publish(RunStarted, "analysis", nil)
	assert.Equal(t, 2, count)
}
