package service

import (
	"context"

	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/unitofwork"
	"ai-masterbrain-be/pkg/events"
	pktNats "ai-masterbrain-be/pkg/nats"
)

// EventSubscriber attaches a durable handler to one event type.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

// RoutingProjectionService folds orchestration events into per-domain
// routing statistics.
type RoutingProjectionService struct {
	subscriber EventSubscriber
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewRoutingProjectionService(sub EventSubscriber, uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *RoutingProjectionService {
	return &RoutingProjectionService{
		subscriber: sub,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *RoutingProjectionService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, events.TypeQueryOrchestrated, "brain-routing-projection", s.handleEvent); err != nil {
		s.logger.Error("PROJECTION", "Failed to start routing projection", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("PROJECTION", "Routing projection started", nil)
	return nil
}

func (s *RoutingProjectionService) handleEvent(ctx context.Context, event events.Event) error {
	if event.EventType() != events.TypeQueryOrchestrated {
		return nil
	}

	parsed, err := events.ParseQueryOrchestrated(event.Payload())
	if err != nil {
		// Redelivery cannot fix a malformed payload.
		s.logger.Warn("PROJECTION", "Ignoring malformed event", map[string]interface{}{"error": err.Error()})
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	for _, d := range parsed.Domains {
		if err := uow.RoutingPerformanceRepository().Record(ctx, d.DomainId, parsed.UserId, d.RelevanceScore); err != nil {
			return err
		}
	}

	s.logger.Debug("PROJECTION", "Routing recorded", map[string]interface{}{
		"routing_id": parsed.RoutingId.String(),
		"domains":    len(parsed.Domains),
	})
	return nil
}
