package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-masterbrain-be/internal/dto"
	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/contract"
	"ai-masterbrain-be/internal/repository/specification"
	"ai-masterbrain-be/internal/repository/unitofwork"
	"ai-masterbrain-be/pkg/apperror"
	"ai-masterbrain-be/pkg/metrics"

	"github.com/google/uuid"
)

const (
	contextExcerptRunes = 300
	contextTypeQuery    = "query"
)

// ContextPublisher hands serialized session-context messages to the
// embedding consumer.
type ContextPublisher interface {
	Publish(ctx context.Context, payload []byte) error
}

type Config struct {
	ContextLimit  int // Contexts returned by GetSessionState
	UpdateRetries int // Extra attempts after a version conflict
}

func DefaultConfig() Config {
	return Config{
		ContextLimit:  50,
		UpdateRetries: 3,
	}
}

type CreateOptions struct {
	SessionType string
}

// State is everything known about one session.
type State struct {
	Session       *entity.MasterSession
	Contexts      []*entity.SessionContext
	Orchestration *entity.OrchestrationState
}

// DomainContribution is the evidence one domain supplied to a turn.
type DomainContribution struct {
	DomainId   uuid.UUID
	DomainName string
	Evidence   []entity.CandidateResult
}

// Turn is one answered query.
type Turn struct {
	Query      string
	Response   string
	TokensUsed int
	Domains    []DomainContribution
}

// Store manages master sessions. Updates use optimistic concurrency on the
// session version, so concurrent turns never lose each other's entries.
type Store struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  ContextPublisher
	config     Config
	metrics    *metrics.Collector
	logger     logger.ILogger
	now        func() time.Time
}

func NewStore(
	uowFactory unitofwork.RepositoryFactory,
	publisher ContextPublisher,
	config Config,
	collector *metrics.Collector,
	log logger.ILogger,
) *Store {
	return &Store{
		uowFactory: uowFactory,
		publisher:  publisher,
		config:     config,
		metrics:    collector,
		logger:     log,
		now:        time.Now,
	}
}

var errSessionNotFound = apperror.NotFound("session not found")

// CreateSession creates the session and its initial orchestration state in
// one transaction.
func (s *Store) CreateSession(ctx context.Context, name string, domainIds []uuid.UUID, userId uuid.UUID, opts CreateOptions) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, apperror.Validation("session name must not be empty")
	}
	if userId == uuid.Nil {
		return uuid.Nil, apperror.Validation("user id is required")
	}

	unique, err := uniqueIds(domainIds)
	if err != nil {
		return uuid.Nil, err
	}

	sessionType := opts.SessionType
	if sessionType == "" {
		sessionType = entity.SessionTypeConversation
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if len(unique) > 0 {
		owned, err := uow.DomainRepository().FindAll(ctx,
			specification.ByIDs{IDs: unique},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return uuid.Nil, apperror.Wrap(err, "load session domains")
		}
		if len(owned) != len(unique) {
			return uuid.Nil, apperror.Validation("one or more domains do not exist")
		}
	}

	now := s.now()
	session := &entity.MasterSession{
		Id:                   uuid.New(),
		UserId:               userId,
		Name:                 name,
		SessionType:          sessionType,
		DomainIds:            unique,
		ConversationHistory:  []entity.ConversationEntry{},
		AccumulatedKnowledge: map[uuid.UUID]*entity.DomainUsage{},
		Status:               entity.SessionStatusActive,
		Version:              1,
		LastActivityAt:       now,
		CreatedAt:            now,
	}

	if err := uow.Begin(ctx); err != nil {
		return uuid.Nil, apperror.Wrap(err, "begin transaction")
	}
	if err := uow.MasterSessionRepository().Create(ctx, session); err != nil {
		uow.Rollback()
		return uuid.Nil, apperror.Wrap(err, "create session")
	}

	state := &entity.OrchestrationState{
		SessionId:    session.Id,
		UserId:       userId,
		CurrentStep:  entity.StepInitialized,
		StepProgress: map[string]interface{}{},
		UpdatedAt:    now,
	}
	if err := uow.OrchestrationStateRepository().Upsert(ctx, state); err != nil {
		uow.Rollback()
		return uuid.Nil, apperror.Wrap(err, "create orchestration state")
	}

	if err := uow.Commit(); err != nil {
		return uuid.Nil, apperror.Wrap(err, "commit session")
	}

	s.logger.Info("SESSION", "Session created", map[string]interface{}{
		"session_id": session.Id.String(),
		"domains":    len(unique),
	})
	return session.Id, nil
}

// GetSessionState returns the session with its latest contexts and progress
// marker. A session owned by someone else is reported as not found.
func (s *Store) GetSessionState(ctx context.Context, sessionId, userId uuid.UUID) (*State, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, sessionId, userId)
	if err != nil {
		return nil, err
	}

	contexts, err := uow.SessionContextRepository().FindRecent(ctx, sessionId, userId, s.config.ContextLimit)
	if err != nil {
		return nil, apperror.Wrap(err, "load session contexts")
	}

	state, err := uow.OrchestrationStateRepository().FindBySession(ctx, sessionId, userId)
	if err != nil {
		return nil, apperror.Wrap(err, "load orchestration state")
	}

	return &State{
		Session:       session,
		Contexts:      contexts,
		Orchestration: state,
	}, nil
}

// UpdateSession records one turn. On a version conflict the session is
// re-read and the turn re-applied, up to Config.UpdateRetries times.
func (s *Store) UpdateSession(ctx context.Context, sessionId, userId uuid.UUID, turn Turn) error {
	for attempt := 0; attempt <= s.config.UpdateRetries; attempt++ {
		uow := s.uowFactory.NewUnitOfWork(ctx)

		session, err := s.findOwned(ctx, uow, sessionId, userId)
		if err != nil {
			return err
		}
		if !session.IsActive() {
			return apperror.Conflict("session has ended")
		}

		expected := session.Version
		ApplyTurn(session, turn, s.now())

		err = uow.MasterSessionRepository().UpdateWithVersion(ctx, session, expected)
		if errors.Is(err, contract.ErrVersionConflict) {
			s.metrics.RecordSessionConflict()
			s.logger.Debug("SESSION", "Version conflict, retrying", map[string]interface{}{
				"session_id": sessionId.String(),
				"attempt":    attempt + 1,
			})
			continue
		}
		if err != nil {
			return apperror.Wrap(err, "update session")
		}

		s.publishContexts(ctx, sessionId, userId, turn)
		return nil
	}

	return apperror.Conflict(fmt.Sprintf("session changed concurrently %d times", s.config.UpdateRetries+1))
}

// EndSession moves the session to its terminal state.
func (s *Store) EndSession(ctx context.Context, sessionId, userId uuid.UUID, rating *int, feedback string) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return apperror.Validation("rating must be between 1 and 5")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.findOwned(ctx, uow, sessionId, userId)
	if err != nil {
		return err
	}
	if !session.IsActive() {
		return apperror.Conflict("session already ended")
	}

	err = uow.MasterSessionRepository().End(ctx, sessionId, userId, rating, feedback)
	if errors.Is(err, contract.ErrVersionConflict) {
		return apperror.Conflict("session already ended")
	}
	if err != nil {
		return apperror.Wrap(err, "end session")
	}

	s.logger.Info("SESSION", "Session ended", map[string]interface{}{"session_id": sessionId.String()})
	return nil
}

// ListSessions returns the user's sessions, most recently active first.
func (s *Store) ListSessions(ctx context.Context, userId uuid.UUID) ([]*entity.MasterSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.MasterSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "last_activity_at", Desc: true},
	)
	if err != nil {
		return nil, apperror.Wrap(err, "list sessions")
	}
	return sessions, nil
}

func (s *Store) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, sessionId, userId uuid.UUID) (*entity.MasterSession, error) {
	session, err := uow.MasterSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, apperror.Wrap(err, "load session")
	}
	if session == nil {
		return nil, errSessionNotFound
	}
	return session, nil
}

// ApplyTurn appends the user and assistant entries and folds the turn into
// the session counters. Entry timestamps always move forward.
func ApplyTurn(session *entity.MasterSession, turn Turn, now time.Time) {
	userAt := now
	if n := len(session.ConversationHistory); n > 0 {
		if last := session.ConversationHistory[n-1].Timestamp; !userAt.After(last) {
			userAt = last.Add(time.Microsecond)
		}
	}
	assistantAt := userAt.Add(time.Microsecond)

	session.ConversationHistory = append(session.ConversationHistory,
		entity.ConversationEntry{Role: "user", Content: turn.Query, Timestamp: userAt},
		entity.ConversationEntry{Role: "assistant", Content: turn.Response, Timestamp: assistantAt},
	)

	if session.AccumulatedKnowledge == nil {
		session.AccumulatedKnowledge = map[uuid.UUID]*entity.DomainUsage{}
	}
	for _, d := range turn.Domains {
		usage, ok := session.AccumulatedKnowledge[d.DomainId]
		if !ok {
			usage = &entity.DomainUsage{DomainName: d.DomainName}
			session.AccumulatedKnowledge[d.DomainId] = usage
		}
		usage.KnowledgeCount += len(d.Evidence)
		usage.Queries = append(usage.Queries, entity.QueryMark{Query: turn.Query, Timestamp: userAt})
	}

	session.TotalQueries++
	session.TotalTokensUsed += turn.TokensUsed
	session.LastActivityAt = assistantAt
}

// ContextText renders a domain's evidence the way it is embedded for the
// session context table.
func ContextText(evidence []entity.CandidateResult) string {
	parts := make([]string, 0, len(evidence))
	for _, e := range evidence {
		content := e.Content
		if runes := []rune(content); len(runes) > contextExcerptRunes {
			content = string(runes[:contextExcerptRunes])
		}
		parts = append(parts, e.Title+": "+content)
	}
	return strings.Join(parts, "\n\n")
}

func (s *Store) publishContexts(ctx context.Context, sessionId, userId uuid.UUID, turn Turn) {
	if s.publisher == nil {
		return
	}

	for _, d := range turn.Domains {
		if len(d.Evidence) == 0 {
			continue
		}

		payload, err := json.Marshal(dto.PublishSessionContextMessage{
			SessionId:   sessionId,
			DomainId:    d.DomainId,
			UserId:      userId,
			ContextText: ContextText(d.Evidence),
			ContextType: contextTypeQuery,
		})
		if err != nil {
			s.logger.Warn("SESSION", "Failed to encode session context", map[string]interface{}{"error": err.Error()})
			continue
		}

		if err := s.publisher.Publish(ctx, payload); err != nil {
			s.logger.Warn("SESSION", "Failed to publish session context", map[string]interface{}{
				"session_id": sessionId.String(),
				"domain_id":  d.DomainId.String(),
				"error":      err.Error(),
			})
		}
	}
}

func uniqueIds(ids []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, apperror.Validation("domain id must not be empty")
		}
		if _, dup := seen[id]; dup {
			return nil, apperror.Validation("domain ids must be unique")
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
