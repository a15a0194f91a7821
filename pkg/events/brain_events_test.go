package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryOrchestratedSurvivesTheWire(t *testing.T) {
	event := QueryOrchestrated{
		UserId:     uuid.New(),
		RoutingId:  uuid.New(),
		Domains:    []SelectedDomain{{DomainId: uuid.New(), RelevanceScore: 0.82}},
		Confidence: 0.98,
		TokensUsed: 410,
		LatencyMs:  1200,
		OccurredAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(event.Payload())
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	got, err := ParseQueryOrchestrated(decoded)

	require.NoError(t, err)
	assert.Equal(t, event, got)
	assert.Equal(t, TypeQueryOrchestrated, got.EventType())
}

func TestParseQueryOrchestratedRejectsBadIds(t *testing.T) {
	_, err := ParseQueryOrchestrated(map[string]interface{}{"user_id": "nope"})
	assert.Error(t, err)

	_, err = ParseQueryOrchestrated(map[string]interface{}{
		"user_id":    uuid.NewString(),
		"routing_id": uuid.NewString(),
		"domains":    []interface{}{"not an object"},
	})
	assert.Error(t, err)
}
