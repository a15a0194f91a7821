package contract

import (
	"context"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DomainRepository interface {
	Create(ctx context.Context, domain *entity.Domain) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Domain, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Domain, error)
	// ScoreRelevance returns 1 - cosine distance between the query vector and
	// every profiled domain the user owns, unsorted and unfiltered.
	ScoreRelevance(ctx context.Context, embedding []float32, userId uuid.UUID) ([]entity.DomainScore, error)
}
