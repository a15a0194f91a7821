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

type DomainRepository struct {
	store *Store
}

func NewDomainRepository(store *Store) contract.DomainRepository {
	return &DomainRepository{store: store}
}

func domainField(d *entity.Domain, column string) interface{} {
	switch column {
	case "id":
		return d.Id
	case "user_id":
		return d.UserId
	case "name":
		return d.Name
	case "created_at":
		return d.CreatedAt
	}
	return nil
}

func (r *DomainRepository) Create(ctx context.Context, domain *entity.Domain) error {
	if domain.Id == uuid.Nil {
		domain.Id = uuid.New()
	}
	if domain.CreatedAt.IsZero() {
		domain.CreatedAt = time.Now()
	}
	stored := *domain
	stored.EmbeddingProfile = append([]float32(nil), domain.EmbeddingProfile...)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.domains[stored.Id] = &stored
	return nil
}

func (r *DomainRepository) list() []*entity.Domain {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := make([]*entity.Domain, 0, len(r.store.domains))
	for _, d := range r.store.domains {
		copied := *d
		items = append(items, &copied)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].Id.String() < items[j].Id.String()
	})
	return items
}

func (r *DomainRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Domain, error) {
	found, err := query(r.list(), domainField, specs...)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *DomainRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Domain, error) {
	return query(r.list(), domainField, specs...)
}

func (r *DomainRepository) ScoreRelevance(ctx context.Context, embedding []float32, userId uuid.UUID) ([]entity.DomainScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var scores []entity.DomainScore
	for _, d := range r.list() {
		if d.UserId != userId || len(d.EmbeddingProfile) == 0 {
			continue
		}
		scores = append(scores, entity.DomainScore{
			DomainId:       d.Id,
			DomainName:     d.Name,
			RelevanceScore: cosine(embedding, d.EmbeddingProfile),
		})
	}
	return scores, nil
}
