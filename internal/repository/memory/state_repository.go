package memory

import (
	"context"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// OrchestrationStateRepository keeps one progress marker per session in a
// TTL cache; stale sessions age out on their own.
type OrchestrationStateRepository struct {
	store *Store
}

func NewOrchestrationStateRepository(store *Store) contract.OrchestrationStateRepository {
	return &OrchestrationStateRepository{store: store}
}

func (r *OrchestrationStateRepository) Upsert(ctx context.Context, state *entity.OrchestrationState) error {
	copied := *state
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if x, found := r.store.states.Get(state.SessionId.String()); found && x.(*entity.OrchestrationState).UserId != state.UserId {
		return contract.ErrForeignState
	}
	r.store.states.Set(state.SessionId.String(), &copied, cache.DefaultExpiration)
	return nil
}

func (r *OrchestrationStateRepository) FindBySession(ctx context.Context, sessionId, userId uuid.UUID) (*entity.OrchestrationState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	x, found := r.store.states.Get(sessionId.String())
	if !found {
		return nil, nil
	}
	state := x.(*entity.OrchestrationState)
	if state.UserId != userId {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}
