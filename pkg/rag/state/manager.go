package state

import (
	"context"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Update carries the blobs written alongside a step. Nil fields keep the
// previously stored value.
type Update struct {
	Progress  map[string]interface{}
	Gathered  map[string]interface{}
	Analysis  map[string]interface{}
	Synthesis map[string]interface{}
}

// Manager records the orchestration step of a session. Writes are
// best-effort: a failure is logged and never reaches the caller.
type Manager struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	now        func() time.Time
}

func NewManager(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *Manager {
	return &Manager{
		uowFactory: uowFactory,
		logger:     log,
		now:        time.Now,
	}
}

// Transition overwrites the session's state with step and the given blobs.
func (m *Manager) Transition(ctx context.Context, sessionId, userId uuid.UUID, step entity.OrchestrationStep, update Update) {
	if m == nil || m.uowFactory == nil || sessionId == uuid.Nil {
		return
	}

	uow := m.uowFactory.NewUnitOfWork(ctx)
	repo := uow.OrchestrationStateRepository()

	current, err := repo.FindBySession(ctx, sessionId, userId)
	if err != nil {
		m.logger.Warn("STATE", "Failed to load orchestration state", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return
	}
	if current == nil {
		current = &entity.OrchestrationState{SessionId: sessionId, UserId: userId}
	}

	current.CurrentStep = step
	if update.Progress != nil {
		current.StepProgress = update.Progress
	}
	if update.Gathered != nil {
		current.GatheredContext = update.Gathered
	}
	if update.Analysis != nil {
		current.AnalysisResults = update.Analysis
	}
	if update.Synthesis != nil {
		current.SynthesisData = update.Synthesis
	}
	current.UpdatedAt = m.now()

	if err := repo.Upsert(ctx, current); err != nil {
		m.logger.Warn("STATE", "Failed to write orchestration state", map[string]interface{}{
			"session_id": sessionId.String(),
			"step":       string(step),
			"error":      err.Error(),
		})
		return
	}

	m.logger.Debug("STATE", "Transitioned", map[string]interface{}{
		"session_id": sessionId.String(),
		"step":       string(step),
	})
}
