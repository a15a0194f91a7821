package memory

import (
	"context"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/repository/contract"

	"github.com/google/uuid"
)

type CoreLogicRepository struct {
	store *Store
}

func NewCoreLogicRepository(store *Store) contract.CoreLogicRepository {
	return &CoreLogicRepository{store: store}
}

func (r *CoreLogicRepository) Create(ctx context.Context, logic *entity.CoreLogic) error {
	if logic.Id == uuid.Nil {
		logic.Id = uuid.New()
	}
	if logic.LastDistilledAt.IsZero() {
		logic.LastDistilledAt = time.Now()
	}
	stored := *logic

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.coreLogic = append(r.store.coreLogic, &stored)
	return nil
}

func (r *CoreLogicRepository) FindLatestActive(ctx context.Context, domainId, userId uuid.UUID) (*entity.CoreLogic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var latest *entity.CoreLogic
	for _, c := range r.store.coreLogic {
		if c.DomainId != domainId || c.UserId != userId || !c.IsActive {
			continue
		}
		if latest == nil || c.Version > latest.Version {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}
