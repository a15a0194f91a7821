package implementation

import (
	"context"
	"errors"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/mapper"
	"ai-masterbrain-be/internal/model"
	"ai-masterbrain-be/internal/repository/contract"
	"ai-masterbrain-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DomainRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BrainMapper
}

func NewDomainRepository(db *gorm.DB) contract.DomainRepository {
	return &DomainRepositoryImpl{
		db:     db,
		mapper: mapper.NewBrainMapper(),
	}
}

func (r *DomainRepositoryImpl) Create(ctx context.Context, domain *entity.Domain) error {
	m := r.mapper.DomainToModel(domain)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*domain = *r.mapper.DomainToEntity(m)
	return nil
}

func (r *DomainRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Domain, error) {
	var m model.BrainDomain
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DomainToEntity(&m), nil
}

func (r *DomainRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Domain, error) {
	var models []*model.BrainDomain
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Domain, len(models))
	for i, m := range models {
		entities[i] = r.mapper.DomainToEntity(m)
	}
	return entities, nil
}

func (r *DomainRepositoryImpl) ScoreRelevance(ctx context.Context, embedding []float32, userId uuid.UUID) ([]entity.DomainScore, error) {
	type result struct {
		Id         uuid.UUID
		Name       string
		Similarity float64
	}
	var results []result

	// Cosine distance in pgvector is: 1 - cosine_similarity
	err := r.db.WithContext(ctx).
		Table("brain_domains").
		Select("id, name, 1 - (embedding_profile <=> ?) as similarity", pgvector.NewVector(embedding)).
		Where("user_id = ?", userId).
		Where("embedding_profile IS NOT NULL").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scores := make([]entity.DomainScore, len(results))
	for i, res := range results {
		scores[i] = entity.DomainScore{
			DomainId:       res.Id,
			DomainName:     res.Name,
			RelevanceScore: res.Similarity,
		}
	}
	return scores, nil
}
