package contract

import (
	"context"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RoutingDecisionRepository interface {
	Create(ctx context.Context, decision *entity.RoutingDecision) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RoutingDecision, error)
}

type RoutingPerformanceRepository interface {
	// Record adds one selection with the given relevance to the domain's tally.
	Record(ctx context.Context, domainId, userId uuid.UUID, relevance float64) error
	FindByUser(ctx context.Context, userId uuid.UUID) ([]*entity.RoutingPerformance, error)
}
