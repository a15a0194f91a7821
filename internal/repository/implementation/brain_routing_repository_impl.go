package implementation

import (
	"context"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/mapper"
	"ai-masterbrain-be/internal/model"
	"ai-masterbrain-be/internal/repository/contract"
	"ai-masterbrain-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoutingDecisionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BrainMapper
}

func NewRoutingDecisionRepository(db *gorm.DB) contract.RoutingDecisionRepository {
	return &RoutingDecisionRepositoryImpl{
		db:     db,
		mapper: mapper.NewBrainMapper(),
	}
}

func (r *RoutingDecisionRepositoryImpl) Create(ctx context.Context, decision *entity.RoutingDecision) error {
	m := r.mapper.RoutingDecisionToModel(decision)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	decision.CreatedAt = m.CreatedAt
	return nil
}

func (r *RoutingDecisionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RoutingDecision, error) {
	var models []*model.BrainQueryRouting
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.RoutingDecision, len(models))
	for i, m := range models {
		entities[i] = r.mapper.RoutingDecisionToEntity(m)
	}
	return entities, nil
}

type RoutingPerformanceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BrainMapper
}

func NewRoutingPerformanceRepository(db *gorm.DB) contract.RoutingPerformanceRepository {
	return &RoutingPerformanceRepositoryImpl{
		db:     db,
		mapper: mapper.NewBrainMapper(),
	}
}

func (r *RoutingPerformanceRepositoryImpl) Record(ctx context.Context, domainId, userId uuid.UUID, relevance float64) error {
	now := time.Now()
	row := &model.BrainRoutingPerformance{
		DomainId:       domainId,
		UserId:         userId,
		TimesSelected:  1,
		TotalRelevance: relevance,
		LastSelectedAt: now,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domain_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"times_selected":   gorm.Expr("brain_routing_performance.times_selected + 1"),
			"total_relevance":  gorm.Expr("brain_routing_performance.total_relevance + ?", relevance),
			"last_selected_at": now,
		}),
	}).Create(row).Error
}

func (r *RoutingPerformanceRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID) ([]*entity.RoutingPerformance, error) {
	var models []*model.BrainRoutingPerformance
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("times_selected DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.RoutingPerformance, len(models))
	for i, m := range models {
		entities[i] = r.mapper.RoutingPerformanceToEntity(m)
	}
	return entities, nil
}
