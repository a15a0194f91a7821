package memory

import (
	"context"
	"sort"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/repository/contract"
	"ai-masterbrain-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RoutingDecisionRepository struct {
	store *Store
}

func NewRoutingDecisionRepository(store *Store) contract.RoutingDecisionRepository {
	return &RoutingDecisionRepository{store: store}
}

func decisionField(d *entity.RoutingDecision, column string) interface{} {
	switch column {
	case "id":
		return d.Id
	case "user_id":
		return d.UserId
	case "created_at":
		return d.CreatedAt
	case "confidence":
		return d.Confidence
	}
	return nil
}

func (r *RoutingDecisionRepository) Create(ctx context.Context, decision *entity.RoutingDecision) error {
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now()
	}
	stored := *decision
	stored.SelectedDomains = append([]entity.DomainScore(nil), decision.SelectedDomains...)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.decisions = append(r.store.decisions, &stored)
	return nil
}

func (r *RoutingDecisionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RoutingDecision, error) {
	r.store.mu.RLock()
	items := make([]*entity.RoutingDecision, len(r.store.decisions))
	for i, d := range r.store.decisions {
		copied := *d
		items[i] = &copied
	}
	r.store.mu.RUnlock()

	return query(items, decisionField, specs...)
}

type RoutingPerformanceRepository struct {
	store *Store
}

func NewRoutingPerformanceRepository(store *Store) contract.RoutingPerformanceRepository {
	return &RoutingPerformanceRepository{store: store}
}

func (r *RoutingPerformanceRepository) Record(ctx context.Context, domainId, userId uuid.UUID, relevance float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := perfKey{domainId: domainId, userId: userId}
	next := entity.RoutingPerformance{DomainId: domainId, UserId: userId}
	if current, ok := r.store.performance[key]; ok {
		next = *current
	}
	next.TimesSelected++
	next.TotalRelevance += relevance
	next.LastSelectedAt = time.Now()
	r.store.performance[key] = &next
	return nil
}

func (r *RoutingPerformanceRepository) FindByUser(ctx context.Context, userId uuid.UUID) ([]*entity.RoutingPerformance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var items []*entity.RoutingPerformance
	for key, p := range r.store.performance {
		if key.userId != userId {
			continue
		}
		copied := *p
		items = append(items, &copied)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].TimesSelected != items[j].TimesSelected {
			return items[i].TimesSelected > items[j].TimesSelected
		}
		return items[i].DomainId.String() < items[j].DomainId.String()
	})
	return items, nil
}
