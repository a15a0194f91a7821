package service

import (
	"context"

	"ai-masterbrain-be/internal/dto"
	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/pkg/rag/brain"
	"ai-masterbrain-be/pkg/rag/session"

	"github.com/google/uuid"
)

type IBrainService interface {
	Query(ctx context.Context, userId uuid.UUID, req *dto.OrchestrateQueryRequest) (*dto.OrchestrateQueryResponse, error)
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateMasterSessionRequest) (*dto.CreateMasterSessionResponse, error)
	GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionStateResponse, error)
	EndSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.EndMasterSessionRequest) error
	ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.MasterSessionDTO, error)
}

// Orchestrator answers a query across domains.
type Orchestrator interface {
	Orchestrate(ctx context.Context, q brain.Query, opts brain.Options) (*brain.Result, error)
}

type brainService struct {
	orchestrator Orchestrator
	sessions     *session.Store
	defaults     brain.Options
}

func NewBrainService(orchestrator Orchestrator, sessions *session.Store, defaults brain.Options) IBrainService {
	return &brainService{
		orchestrator: orchestrator,
		sessions:     sessions,
		defaults:     defaults,
	}
}

func (s *brainService) Query(ctx context.Context, userId uuid.UUID, req *dto.OrchestrateQueryRequest) (*dto.OrchestrateQueryResponse, error) {
	q := brain.Query{
		Text:      req.Query,
		UserId:    userId,
		DomainIds: req.DomainIds,
	}
	if req.SessionId != nil {
		q.SessionId = *req.SessionId
	}

	result, err := s.orchestrator.Orchestrate(ctx, q, s.options(req.Options))
	if err != nil {
		return nil, err
	}

	return toQueryResponse(result), nil
}

// options overlays the per-request overrides onto the configured defaults.
func (s *brainService) options(o *dto.QueryOptionsDTO) brain.Options {
	opts := s.defaults
	if o == nil {
		return opts
	}
	if o.MaxDomains != nil {
		opts.Routing.MaxDomains = *o.MaxDomains
	}
	if o.MinScore != nil {
		opts.Routing.MinScore = *o.MinScore
	}
	if o.Rerank != nil {
		opts.Rerank.Enabled = *o.Rerank
	}
	if o.Model != "" {
		opts.Synthesis.Model = o.Model
	}
	if o.Temperature != nil {
		opts.Synthesis.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		opts.Synthesis.MaxTokens = *o.MaxTokens
	}
	return opts
}

func (s *brainService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateMasterSessionRequest) (*dto.CreateMasterSessionResponse, error) {
	id, err := s.sessions.CreateSession(ctx, req.Name, req.DomainIds, userId, session.CreateOptions{SessionType: req.SessionType})
	if err != nil {
		return nil, err
	}
	return &dto.CreateMasterSessionResponse{Id: id}, nil
}

func (s *brainService) GetSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.SessionStateResponse, error) {
	state, err := s.sessions.GetSessionState(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	res := &dto.SessionStateResponse{
		Session:             toSessionDTO(state.Session),
		ConversationHistory: make([]dto.ConversationEntryDTO, 0, len(state.Session.ConversationHistory)),
		Contexts:            make([]dto.SessionContextDTO, 0, len(state.Contexts)),
	}
	for _, e := range state.Session.ConversationHistory {
		res.ConversationHistory = append(res.ConversationHistory, dto.ConversationEntryDTO{
			Role:      e.Role,
			Content:   e.Content,
			Timestamp: e.Timestamp,
		})
	}
	for _, c := range state.Contexts {
		res.Contexts = append(res.Contexts, dto.SessionContextDTO{
			Id:          c.Id,
			DomainId:    c.DomainId,
			ContextText: c.ContextText,
			ContextType: c.ContextType,
			CreatedAt:   c.CreatedAt,
		})
	}
	if o := state.Orchestration; o != nil {
		res.Orchestration = &dto.OrchestrationStateDTO{
			CurrentStep:  string(o.CurrentStep),
			StepProgress: o.StepProgress,
			UpdatedAt:    o.UpdatedAt,
		}
	}
	return res, nil
}

func (s *brainService) EndSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.EndMasterSessionRequest) error {
	return s.sessions.EndSession(ctx, sessionId, userId, req.Rating, req.Feedback)
}

func (s *brainService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.MasterSessionDTO, error) {
	sessions, err := s.sessions.ListSessions(ctx, userId)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.MasterSessionDTO, 0, len(sessions))
	for _, ms := range sessions {
		d := toSessionDTO(ms)
		result = append(result, &d)
	}
	return result, nil
}

func toSessionDTO(ms *entity.MasterSession) dto.MasterSessionDTO {
	domainIds := ms.DomainIds
	if domainIds == nil {
		domainIds = []uuid.UUID{}
	}
	return dto.MasterSessionDTO{
		Id:              ms.Id,
		Name:            ms.Name,
		SessionType:     ms.SessionType,
		DomainIds:       domainIds,
		Status:          string(ms.Status),
		TotalQueries:    ms.TotalQueries,
		TotalTokensUsed: ms.TotalTokensUsed,
		Rating:          ms.Rating,
		LastActivityAt:  ms.LastActivityAt,
		CreatedAt:       ms.CreatedAt,
		EndedAt:         ms.EndedAt,
	}
}

func toQueryResponse(result *brain.Result) *dto.OrchestrateQueryResponse {
	names := make(map[uuid.UUID]string, len(result.ContextSummary))
	for _, c := range result.ContextSummary {
		names[c.DomainId] = c.DomainName
	}

	res := &dto.OrchestrateQueryResponse{
		Query:      result.Query,
		Response:   result.Response,
		Domains:    make([]dto.DomainScoreDTO, 0, len(result.Domains)),
		Context:    make([]dto.DomainContextDTO, 0, len(result.ContextSummary)),
		Confidence: result.Confidence,
		LatencyMs:  result.Latency.Milliseconds(),
		TokensUsed: result.TokensUsed,
	}
	if result.RoutingId != uuid.Nil {
		id := result.RoutingId
		res.RoutingId = &id
	}

	for _, d := range result.Domains {
		name := d.DomainName
		if name == "" {
			name = names[d.DomainId]
		}
		res.Domains = append(res.Domains, dto.DomainScoreDTO{
			DomainId:       d.DomainId,
			DomainName:     name,
			RelevanceScore: d.RelevanceScore,
		})
	}
	for _, c := range result.ContextSummary {
		res.Context = append(res.Context, dto.DomainContextDTO{
			DomainId:       c.DomainId,
			DomainName:     c.DomainName,
			KnowledgeCount: c.KnowledgeCount,
			CoreLogicCount: c.CoreLogicCount,
		})
	}
	for _, f := range result.PartialFailures {
		res.PartialFailures = append(res.PartialFailures, dto.PartialFailureDTO{
			DomainId:  f.DomainId,
			Component: f.Component,
			Reason:    f.Reason,
		})
	}
	return res
}
