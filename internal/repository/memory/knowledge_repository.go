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

type KnowledgeRepository struct {
	store *Store
}

func NewKnowledgeRepository(store *Store) contract.KnowledgeRepository {
	return &KnowledgeRepository{store: store}
}

func knowledgeField(k *entity.Knowledge, column string) interface{} {
	switch column {
	case "id":
		return k.Id
	case "domain_id":
		return k.DomainId
	case "user_id":
		return k.UserId
	case "title":
		return k.Title
	case "content":
		return k.Content
	case "created_at":
		return k.CreatedAt
	}
	return nil
}

func (r *KnowledgeRepository) Create(ctx context.Context, knowledge *entity.Knowledge) error {
	if knowledge.Id == uuid.Nil {
		knowledge.Id = uuid.New()
	}
	if knowledge.CreatedAt.IsZero() {
		knowledge.CreatedAt = time.Now()
	}
	stored := *knowledge
	stored.Embedding = append([]float32(nil), knowledge.Embedding...)
	stored.Tags = append([]string(nil), knowledge.Tags...)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.knowledge[stored.Id] = &stored
	return nil
}

func (r *KnowledgeRepository) list() []*entity.Knowledge {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := make([]*entity.Knowledge, 0, len(r.store.knowledge))
	for _, k := range r.store.knowledge {
		copied := *k
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

func (r *KnowledgeRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Knowledge, error) {
	return query(r.list(), knowledgeField, specs...)
}

func (r *KnowledgeRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	found, err := query(r.list(), knowledgeField, specs...)
	return int64(len(found)), err
}

func (r *KnowledgeRepository) SearchSimilarWithScore(ctx context.Context, embedding []float32, filter contract.KnowledgeSearch) ([]*contract.ScoredKnowledge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	var scored []*contract.ScoredKnowledge
	for _, k := range r.list() {
		if k.DomainId != filter.DomainId || k.UserId != filter.UserId || len(k.Embedding) == 0 {
			continue
		}
		similarity := cosine(embedding, k.Embedding)
		if similarity < filter.Threshold {
			continue
		}
		scored = append(scored, &contract.ScoredKnowledge{Knowledge: k, Similarity: similarity})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (r *KnowledgeRepository) SearchKeyword(ctx context.Context, keyword string, domainId, userId uuid.UUID, limit int) ([]*entity.Knowledge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	return query(r.list(), knowledgeField,
		specification.InDomain{DomainID: domainId},
		specification.UserOwnedBy{UserID: userId},
		specification.KeywordMatch{Keyword: keyword},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
}
