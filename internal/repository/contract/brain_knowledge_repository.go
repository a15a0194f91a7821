package contract

import (
	"context"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredKnowledge wraps Knowledge with its similarity score
type ScoredKnowledge struct {
	Knowledge  *entity.Knowledge
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

// KnowledgeSearch scopes a similarity search to one domain of one user.
type KnowledgeSearch struct {
	DomainId  uuid.UUID
	UserId    uuid.UUID
	Threshold float64
	Limit     int
}

type KnowledgeRepository interface {
	Create(ctx context.Context, knowledge *entity.Knowledge) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Knowledge, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, filter KnowledgeSearch) ([]*ScoredKnowledge, error)
	SearchKeyword(ctx context.Context, keyword string, domainId, userId uuid.UUID, limit int) ([]*entity.Knowledge, error)
}
