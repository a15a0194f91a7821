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

type MasterSessionRepository struct {
	store *Store
}

func NewMasterSessionRepository(store *Store) contract.MasterSessionRepository {
	return &MasterSessionRepository{store: store}
}

func sessionField(s *entity.MasterSession, column string) interface{} {
	switch column {
	case "id":
		return s.Id
	case "user_id":
		return s.UserId
	case "status":
		return string(s.Status)
	case "session_type":
		return s.SessionType
	case "created_at":
		return s.CreatedAt
	case "last_activity_at":
		return s.LastActivityAt
	}
	return nil
}

// cloneSession deep-copies the mutable parts so callers never alias stored rows.
func cloneSession(s *entity.MasterSession) *entity.MasterSession {
	copied := *s
	copied.DomainIds = append([]uuid.UUID(nil), s.DomainIds...)
	copied.ConversationHistory = append([]entity.ConversationEntry(nil), s.ConversationHistory...)
	copied.AccumulatedKnowledge = make(map[uuid.UUID]*entity.DomainUsage, len(s.AccumulatedKnowledge))
	for id, usage := range s.AccumulatedKnowledge {
		u := *usage
		u.Queries = append([]entity.QueryMark(nil), usage.Queries...)
		copied.AccumulatedKnowledge[id] = &u
	}
	if s.Rating != nil {
		rating := *s.Rating
		copied.Rating = &rating
	}
	return &copied
}

func (r *MasterSessionRepository) Create(ctx context.Context, session *entity.MasterSession) error {
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.Version == 0 {
		session.Version = 1
	}
	if session.Status == "" {
		session.Status = entity.SessionStatusActive
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.sessions[session.Id] = cloneSession(session)
	return nil
}

func (r *MasterSessionRepository) list() []*entity.MasterSession {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := make([]*entity.MasterSession, 0, len(r.store.sessions))
	for _, s := range r.store.sessions {
		items = append(items, cloneSession(s))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].Id.String() < items[j].Id.String()
	})
	return items
}

func (r *MasterSessionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MasterSession, error) {
	found, err := query(r.list(), sessionField, specs...)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *MasterSessionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MasterSession, error) {
	return query(r.list(), sessionField, specs...)
}

func (r *MasterSessionRepository) UpdateWithVersion(ctx context.Context, session *entity.MasterSession, expectedVersion int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.sessions[session.Id]
	if !ok || current.UserId != session.UserId || current.Version != expectedVersion || !current.IsActive() {
		return contract.ErrVersionConflict
	}

	next := cloneSession(current)
	next.ConversationHistory = append([]entity.ConversationEntry(nil), session.ConversationHistory...)
	next.AccumulatedKnowledge = cloneSession(session).AccumulatedKnowledge
	next.TotalQueries = session.TotalQueries
	next.TotalTokensUsed = session.TotalTokensUsed
	next.LastActivityAt = session.LastActivityAt
	next.Version = expectedVersion + 1
	r.store.sessions[session.Id] = next

	session.Version = next.Version
	return nil
}

func (r *MasterSessionRepository) End(ctx context.Context, sessionId, userId uuid.UUID, rating *int, feedback string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.sessions[sessionId]
	if !ok || current.UserId != userId || !current.IsActive() {
		return contract.ErrVersionConflict
	}

	now := time.Now()
	next := cloneSession(current)
	next.Status = entity.SessionStatusEnded
	if rating != nil {
		value := *rating
		next.Rating = &value
	}
	next.Feedback = feedback
	next.EndedAt = &now
	next.LastActivityAt = now
	next.Version++
	r.store.sessions[sessionId] = next
	return nil
}

type SessionContextRepository struct {
	store *Store
}

func NewSessionContextRepository(store *Store) contract.SessionContextRepository {
	return &SessionContextRepository{store: store}
}

func (r *SessionContextRepository) Create(ctx context.Context, sessionContext *entity.SessionContext) error {
	if sessionContext.Id == uuid.Nil {
		sessionContext.Id = uuid.New()
	}
	if sessionContext.CreatedAt.IsZero() {
		sessionContext.CreatedAt = time.Now()
	}
	stored := *sessionContext
	stored.Embedding = append([]float32(nil), sessionContext.Embedding...)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.contexts = append(r.store.contexts, &stored)
	return nil
}

func (r *SessionContextRepository) FindRecent(ctx context.Context, sessionId, userId uuid.UUID, limit int) ([]*entity.SessionContext, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var items []*entity.SessionContext
	// Newest first; contexts are appended in creation order.
	for i := len(r.store.contexts) - 1; i >= 0; i-- {
		c := r.store.contexts[i]
		if c.SessionId != sessionId || c.UserId != userId {
			continue
		}
		copied := *c
		items = append(items, &copied)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}
