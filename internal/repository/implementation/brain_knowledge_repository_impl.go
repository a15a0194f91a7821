package implementation

import (
	"context"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/mapper"
	"ai-masterbrain-be/internal/model"
	"ai-masterbrain-be/internal/repository/contract"
	"ai-masterbrain-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BrainMapper
}

func NewKnowledgeRepository(db *gorm.DB) contract.KnowledgeRepository {
	return &KnowledgeRepositoryImpl{
		db:     db,
		mapper: mapper.NewBrainMapper(),
	}
}

func (r *KnowledgeRepositoryImpl) Create(ctx context.Context, knowledge *entity.Knowledge) error {
	m := r.mapper.KnowledgeToModel(knowledge)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*knowledge = *r.mapper.KnowledgeToEntity(m)
	return nil
}

func (r *KnowledgeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Knowledge, error) {
	var models []*model.BrainKnowledge
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Knowledge, len(models))
	for i, m := range models {
		entities[i] = r.mapper.KnowledgeToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.BrainKnowledge{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchSimilarWithScore returns knowledge with similarity scores, filtered by threshold
func (r *KnowledgeRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, filter contract.KnowledgeSearch) ([]*contract.ScoredKnowledge, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		model.BrainKnowledge
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("brain_knowledge").
		Select("brain_knowledge.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("domain_id = ? AND user_id = ?", filter.DomainId, filter.UserId).
		Where("embedding IS NOT NULL").
		Where("1 - (embedding <=> ?) >= ?", queryVector, filter.Threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredKnowledge, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredKnowledge{
			Knowledge:  r.mapper.KnowledgeToEntity(&res.BrainKnowledge),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *KnowledgeRepositoryImpl) SearchKeyword(ctx context.Context, keyword string, domainId, userId uuid.UUID, limit int) ([]*entity.Knowledge, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.FindAll(ctx,
		specification.InDomain{DomainID: domainId},
		specification.UserOwnedBy{UserID: userId},
		specification.KeywordMatch{Keyword: keyword},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
}
