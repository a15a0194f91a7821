package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/testutil"
	"ai-masterbrain-be/pkg/events"
	pktNats "ai-masterbrain-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSubscriber struct {
	mock.Mock
}

func (m *mockSubscriber) Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error {
	return m.Called(ctx, eventType, durableName, handler).Error(0)
}

func TestRoutingProjectionStartSubscribes(t *testing.T) {
	sub := &mockSubscriber{}
	sub.On("Subscribe", mock.Anything, events.TypeQueryOrchestrated, "brain-routing-projection", mock.Anything).Return(nil).Once()

	svc := NewRoutingProjectionService(sub, testutil.NewFixture().Factory, logger.NewNopLogger())
	require.NoError(t, svc.Start(context.Background()))
	sub.AssertExpectations(t)
}

func TestRoutingProjectionRecordsSelections(t *testing.T) {
	fx := testutil.NewFixture()
	svc := NewRoutingProjectionService(&mockSubscriber{}, fx.Factory, logger.NewNopLogger())
	ctx := context.Background()
	domainId := uuid.New()

	event := events.QueryOrchestrated{
		UserId:     fx.UserId,
		RoutingId:  uuid.New(),
		Domains:    []events.SelectedDomain{{DomainId: domainId, RelevanceScore: 0.8}},
		OccurredAt: time.Now(),
	}
	wire := events.BaseEvent{Type: event.EventType(), Data: roundTrip(t, event.Payload())}

	require.NoError(t, svc.handleEvent(ctx, wire))
	require.NoError(t, svc.handleEvent(ctx, wire))

	stats, err := fx.Factory.NewUnitOfWork(ctx).RoutingPerformanceRepository().FindByUser(ctx, fx.UserId)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].TimesSelected)
	assert.InDelta(t, 1.6, stats[0].TotalRelevance, 1e-9)
}

func TestRoutingProjectionIgnoresMalformedEvents(t *testing.T) {
	svc := NewRoutingProjectionService(&mockSubscriber{}, testutil.NewFixture().Factory, logger.NewNopLogger())
	bad := events.BaseEvent{Type: events.TypeQueryOrchestrated, Data: map[string]interface{}{"user_id": "nope"}}
	assert.NoError(t, svc.handleEvent(context.Background(), bad))
}

// roundTrip decodes the payload the way it arrives off the wire.
func roundTrip(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
