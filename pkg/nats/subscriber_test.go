package nats

import (
	"testing"
	"time"

	"ai-masterbrain-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	body := []byte(`{"user_id":"u","occurred_at":"` + at.Format(time.RFC3339Nano) + `","confidence":0.8}`)

	event, err := DecodeEvent(Subject(events.TypeQueryOrchestrated), body)
	require.NoError(t, err)

	assert.Equal(t, events.TypeQueryOrchestrated, event.EventType())
	assert.True(t, at.Equal(event.Timestamp()))
	assert.Equal(t, 0.8, event.Payload()["confidence"])
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent("events.X", []byte("{not json"))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.BRAIN_QUERY_ORCHESTRATED", Subject(events.TypeQueryOrchestrated))
}
