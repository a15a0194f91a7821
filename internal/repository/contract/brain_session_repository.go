package contract

import (
	"context"
	"errors"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrVersionConflict is returned when a compare-and-swap update finds a
// different version, or a session that is no longer active.
var ErrVersionConflict = errors.New("session version conflict")

// ErrForeignState is returned when an upsert targets orchestration state
// owned by another user.
var ErrForeignState = errors.New("orchestration state owned by another user")

type MasterSessionRepository interface {
	Create(ctx context.Context, session *entity.MasterSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MasterSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MasterSession, error)
	// UpdateWithVersion persists session if its stored version equals
	// expectedVersion and it is still active. On success session.Version is
	// advanced by one.
	UpdateWithVersion(ctx context.Context, session *entity.MasterSession, expectedVersion int) error
	// End moves an active session to ended. Returns ErrVersionConflict when
	// the session is already ended.
	End(ctx context.Context, sessionId, userId uuid.UUID, rating *int, feedback string) error
}

type SessionContextRepository interface {
	Create(ctx context.Context, sessionContext *entity.SessionContext) error
	FindRecent(ctx context.Context, sessionId, userId uuid.UUID, limit int) ([]*entity.SessionContext, error)
}

type OrchestrationStateRepository interface {
	// Upsert never overwrites a row owned by a different user; it returns
	// ErrForeignState instead.
	Upsert(ctx context.Context, state *entity.OrchestrationState) error
	FindBySession(ctx context.Context, sessionId, userId uuid.UUID) (*entity.OrchestrationState, error)
}

type CoreLogicRepository interface {
	Create(ctx context.Context, logic *entity.CoreLogic) error
	// FindLatestActive returns the highest active version, or nil when none exists.
	FindLatestActive(ctx context.Context, domainId, userId uuid.UUID) (*entity.CoreLogic, error)
}
