package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ai-masterbrain-be/internal/dto"
	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/unitofwork"
	"ai-masterbrain-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService embeds the per-domain context of each session turn and
// stores it for later session lookups.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	if cs.handle(ctx, msg.Payload) {
		msg.Ack()
		return
	}
	msg.Nack()
}

// handle reports whether the message is done with. Malformed payloads are
// done with too; only transient failures ask for redelivery.
func (cs *consumerService) handle(ctx context.Context, raw []byte) bool {
	var payload dto.PublishSessionContextMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal session context", map[string]interface{}{"error": err.Error()})
		return true
	}
	if strings.TrimSpace(payload.ContextText) == "" || payload.SessionId == uuid.Nil {
		cs.logger.Warn("CONSUMER", "Skipping empty session context", map[string]interface{}{
			"session_id": payload.SessionId.String(),
		})
		return true
	}

	res, err := cs.embeddingProvider.Generate(ctx, payload.ContextText, embedding.TaskRetrievalDocument)
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to embed session context", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
		return false
	}

	sessionContext := &entity.SessionContext{
		Id:          uuid.New(),
		SessionId:   payload.SessionId,
		DomainId:    payload.DomainId,
		UserId:      payload.UserId,
		ContextText: payload.ContextText,
		ContextType: payload.ContextType,
		Embedding:   res.Embedding.Values,
		CreatedAt:   time.Now(),
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SessionContextRepository().Create(ctx, sessionContext); err != nil {
		cs.logger.Error("CONSUMER", "Failed to store session context", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"error":      err.Error(),
		})
		return false
	}

	cs.logger.Debug("CONSUMER", "Session context stored", map[string]interface{}{
		"session_id": payload.SessionId.String(),
		"domain_id":  payload.DomainId.String(),
	})
	return true
}
