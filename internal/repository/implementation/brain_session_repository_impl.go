package implementation

import (
	"context"
	"errors"
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

type MasterSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BrainMapper
}

func NewMasterSessionRepository(db *gorm.DB) contract.MasterSessionRepository {
	return &MasterSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewBrainMapper(),
	}
}

func (r *MasterSessionRepositoryImpl) Create(ctx context.Context, session *entity.MasterSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *MasterSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MasterSession, error) {
	var m model.BrainMasterSession
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *MasterSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MasterSession, error) {
	var models []*model.BrainMasterSession
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.MasterSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *MasterSessionRepositoryImpl) UpdateWithVersion(ctx context.Context, session *entity.MasterSession, expectedVersion int) error {
	m := r.mapper.SessionToModel(session)

	result := r.db.WithContext(ctx).
		Model(&model.BrainMasterSession{}).
		Where("id = ? AND user_id = ? AND version = ? AND status = ?",
			session.Id, session.UserId, expectedVersion, string(entity.SessionStatusActive)).
		Updates(map[string]interface{}{
			"conversation_history":  m.ConversationHistory,
			"accumulated_knowledge": m.AccumulatedKnowledge,
			"total_queries":         m.TotalQueries,
			"total_tokens_used":     m.TotalTokensUsed,
			"last_activity_at":      m.LastActivityAt,
			"version":               expectedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrVersionConflict
	}

	session.Version = expectedVersion + 1
	return nil
}

func (r *MasterSessionRepositoryImpl) End(ctx context.Context, sessionId, userId uuid.UUID, rating *int, feedback string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.BrainMasterSession{}).
		Where("id = ? AND user_id = ? AND status = ?", sessionId, userId, string(entity.SessionStatusActive)).
		Updates(map[string]interface{}{
			"status":           string(entity.SessionStatusEnded),
			"rating":           rating,
			"feedback":         feedback,
			"ended_at":         now,
			"last_activity_at": now,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrVersionConflict
	}
	return nil
}

type SessionContextRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BrainMapper
}

func NewSessionContextRepository(db *gorm.DB) contract.SessionContextRepository {
	return &SessionContextRepositoryImpl{
		db:     db,
		mapper: mapper.NewBrainMapper(),
	}
}

func (r *SessionContextRepositoryImpl) Create(ctx context.Context, sessionContext *entity.SessionContext) error {
	m := r.mapper.SessionContextToModel(sessionContext)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*sessionContext = *r.mapper.SessionContextToEntity(m)
	return nil
}

func (r *SessionContextRepositoryImpl) FindRecent(ctx context.Context, sessionId, userId uuid.UUID, limit int) ([]*entity.SessionContext, error) {
	var models []*model.BrainSessionContext
	query := applySpecifications(r.db.WithContext(ctx),
		specification.BySession{SessionID: sessionId},
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.SessionContext, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionContextToEntity(m)
	}
	return entities, nil
}

type OrchestrationStateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BrainMapper
}

func NewOrchestrationStateRepository(db *gorm.DB) contract.OrchestrationStateRepository {
	return &OrchestrationStateRepositoryImpl{
		db:     db,
		mapper: mapper.NewBrainMapper(),
	}
}

func (r *OrchestrationStateRepositoryImpl) Upsert(ctx context.Context, state *entity.OrchestrationState) error {
	m := r.mapper.OrchestrationStateToModel(state)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "brain_orchestration_state.user_id = excluded.user_id"},
		}},
		DoUpdates: clause.AssignmentColumns([]string{"current_step", "step_progress", "gathered_context", "analysis_results", "synthesis_data", "updated_at"}),
	}).Create(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrForeignState
	}
	return nil
}

func (r *OrchestrationStateRepositoryImpl) FindBySession(ctx context.Context, sessionId, userId uuid.UUID) (*entity.OrchestrationState, error) {
	var m model.BrainOrchestrationState
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionId, userId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.OrchestrationStateToEntity(&m), nil
}

type CoreLogicRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BrainMapper
}

func NewCoreLogicRepository(db *gorm.DB) contract.CoreLogicRepository {
	return &CoreLogicRepositoryImpl{
		db:     db,
		mapper: mapper.NewBrainMapper(),
	}
}

func (r *CoreLogicRepositoryImpl) Create(ctx context.Context, logic *entity.CoreLogic) error {
	m := r.mapper.CoreLogicToModel(logic)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*logic = *r.mapper.CoreLogicToEntity(m)
	return nil
}

func (r *CoreLogicRepositoryImpl) FindLatestActive(ctx context.Context, domainId, userId uuid.UUID) (*entity.CoreLogic, error) {
	var m model.BrainCoreLogic
	query := applySpecifications(r.db.WithContext(ctx),
		specification.InDomain{DomainID: domainId},
		specification.UserOwnedBy{UserID: userId},
		specification.Filter("is_active", true),
		specification.OrderBy{Field: "version", Desc: true},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.CoreLogicToEntity(&m), nil
}
