package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-masterbrain-be/internal/dto"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/testutil"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextMessage(t *testing.T, msg dto.PublishSessionContextMessage) []byte {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return raw
}

func TestConsumerStoresEmbeddedContext(t *testing.T) {
	fx := testutil.NewFixture()
	embedder := testutil.NewStubEmbedder([]float32{0.5, 0.5})
	cs := NewConsumerService(nil, "", fx.Factory, embedder, logger.NewNopLogger()).(*consumerService)
	sessionId, domainId := uuid.New(), uuid.New()

	done := cs.handle(context.Background(), contextMessage(t, dto.PublishSessionContextMessage{
		SessionId:   sessionId,
		DomainId:    domainId,
		UserId:      fx.UserId,
		ContextText: "Goroutines: lightweight threads",
		ContextType: "query",
	}))
	require.True(t, done)

	stored, err := fx.Factory.NewUnitOfWork(context.Background()).SessionContextRepository().FindRecent(context.Background(), sessionId, fx.UserId, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domainId, stored[0].DomainId)
	assert.Equal(t, []float32{0.5, 0.5}, stored[0].Embedding)
	assert.Equal(t, "query", stored[0].ContextType)
}

func TestConsumerAcksMalformedAndRetriesTransient(t *testing.T) {
	fx := testutil.NewFixture()
	embedder := testutil.NewStubEmbedder(nil)
	embedder.Err = testutil.ErrStub
	cs := NewConsumerService(nil, "", fx.Factory, embedder, logger.NewNopLogger()).(*consumerService)

	assert.True(t, cs.handle(context.Background(), []byte("{broken")), "malformed payloads are dropped")
	assert.True(t, cs.handle(context.Background(), contextMessage(t, dto.PublishSessionContextMessage{SessionId: uuid.New()})), "empty text is dropped")
	assert.False(t, cs.handle(context.Background(), contextMessage(t, dto.PublishSessionContextMessage{
		SessionId:   uuid.New(),
		ContextText: "text",
	})), "embedding failures are redelivered")
}

func TestPublisherFeedsConsumer(t *testing.T) {
	fx := testutil.NewFixture()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	consumer := NewConsumerService(pubSub, "contexts", fx.Factory, testutil.NewStubEmbedder([]float32{1, 0}), logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	sessionId := uuid.New()
	publisher := NewPublisherService("contexts", pubSub)
	require.NoError(t, publisher.Publish(ctx, contextMessage(t, dto.PublishSessionContextMessage{
		SessionId:   sessionId,
		DomainId:    uuid.New(),
		UserId:      fx.UserId,
		ContextText: "Channels: typed conduits",
		ContextType: "query",
	})))

	assert.Eventually(t, func() bool {
		stored, err := fx.Factory.NewUnitOfWork(ctx).SessionContextRepository().FindRecent(ctx, sessionId, fx.UserId, 10)
		return err == nil && len(stored) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
