package mapper

import (
	"encoding/json"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/model"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type BrainMapper struct{}

func NewBrainMapper() *BrainMapper {
	return &BrainMapper{}
}

// Domain Mappers

func (m *BrainMapper) DomainToEntity(d *model.BrainDomain) *entity.Domain {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Domain{
		Id:               d.Id,
		UserId:           d.UserId,
		Name:             d.Name,
		Description:      d.Description,
		EmbeddingProfile: vectorToSlice(d.EmbeddingProfile),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

func (m *BrainMapper) DomainToModel(d *entity.Domain) *model.BrainDomain {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.BrainDomain{
		Id:               d.Id,
		UserId:           d.UserId,
		Name:             d.Name,
		Description:      d.Description,
		EmbeddingProfile: sliceToVector(d.EmbeddingProfile),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        updatedAt,
	}
}

// Knowledge Mappers

func (m *BrainMapper) KnowledgeToEntity(k *model.BrainKnowledge) *entity.Knowledge {
	if k == nil {
		return nil
	}

	var updatedAt *time.Time
	if !k.UpdatedAt.IsZero() {
		t := k.UpdatedAt
		updatedAt = &t
	}

	var tags []string
	decodeJSON(k.Tags, &tags)

	return &entity.Knowledge{
		Id:        k.Id,
		DomainId:  k.DomainId,
		UserId:    k.UserId,
		Title:     k.Title,
		Content:   k.Content,
		Tags:      tags,
		Embedding: vectorToSlice(k.Embedding),
		CreatedAt: k.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *BrainMapper) KnowledgeToModel(k *entity.Knowledge) *model.BrainKnowledge {
	if k == nil {
		return nil
	}

	var updatedAt time.Time
	if k.UpdatedAt != nil {
		updatedAt = *k.UpdatedAt
	}

	return &model.BrainKnowledge{
		Id:        k.Id,
		DomainId:  k.DomainId,
		UserId:    k.UserId,
		Title:     k.Title,
		Content:   k.Content,
		Tags:      encodeJSON(k.Tags),
		Embedding: sliceToVector(k.Embedding),
		CreatedAt: k.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

// KnowledgeToCandidate projects a knowledge row into retrieval evidence.
func (m *BrainMapper) KnowledgeToCandidate(k *entity.Knowledge, similarity float64, kind entity.SourceKind) entity.CandidateResult {
	return entity.CandidateResult{
		KnowledgeId: k.Id,
		DomainId:    k.DomainId,
		Title:       k.Title,
		Content:     k.Content,
		Similarity:  similarity,
		SourceKind:  kind,
		CreatedAt:   k.CreatedAt,
	}
}

// Routing Mappers

func (m *BrainMapper) RoutingDecisionToModel(d *entity.RoutingDecision) *model.BrainQueryRouting {
	if d == nil {
		return nil
	}
	return &model.BrainQueryRouting{
		Id:              d.Id,
		UserId:          d.UserId,
		Query:           d.Query,
		SelectedDomains: encodeJSON(d.SelectedDomains),
		Confidence:      d.Confidence,
		CreatedAt:       d.CreatedAt,
	}
}

func (m *BrainMapper) RoutingDecisionToEntity(d *model.BrainQueryRouting) *entity.RoutingDecision {
	if d == nil {
		return nil
	}

	var selected []entity.DomainScore
	decodeJSON(d.SelectedDomains, &selected)

	return &entity.RoutingDecision{
		Id:              d.Id,
		UserId:          d.UserId,
		Query:           d.Query,
		SelectedDomains: selected,
		Confidence:      d.Confidence,
		CreatedAt:       d.CreatedAt,
	}
}

func (m *BrainMapper) RoutingPerformanceToEntity(p *model.BrainRoutingPerformance) *entity.RoutingPerformance {
	if p == nil {
		return nil
	}
	return &entity.RoutingPerformance{
		DomainId:       p.DomainId,
		UserId:         p.UserId,
		TimesSelected:  p.TimesSelected,
		TotalRelevance: p.TotalRelevance,
		LastSelectedAt: p.LastSelectedAt,
	}
}

// Session Mappers

func (m *BrainMapper) SessionToEntity(s *model.BrainMasterSession) *entity.MasterSession {
	if s == nil {
		return nil
	}

	var domainIds []uuid.UUID
	decodeJSON(s.DomainIds, &domainIds)

	var history []entity.ConversationEntry
	decodeJSON(s.ConversationHistory, &history)

	knowledge := make(map[uuid.UUID]*entity.DomainUsage)
	decodeJSON(s.AccumulatedKnowledge, &knowledge)

	return &entity.MasterSession{
		Id:                   s.Id,
		UserId:               s.UserId,
		Name:                 s.Name,
		SessionType:          s.SessionType,
		DomainIds:            domainIds,
		ConversationHistory:  history,
		AccumulatedKnowledge: knowledge,
		TotalQueries:         s.TotalQueries,
		TotalTokensUsed:      s.TotalTokensUsed,
		Status:               entity.SessionStatus(s.Status),
		Rating:               s.Rating,
		Feedback:             s.Feedback,
		Version:              s.Version,
		LastActivityAt:       s.LastActivityAt,
		CreatedAt:            s.CreatedAt,
		EndedAt:              s.EndedAt,
	}
}

func (m *BrainMapper) SessionToModel(s *entity.MasterSession) *model.BrainMasterSession {
	if s == nil {
		return nil
	}

	history := s.ConversationHistory
	if history == nil {
		history = []entity.ConversationEntry{}
	}
	knowledge := s.AccumulatedKnowledge
	if knowledge == nil {
		knowledge = map[uuid.UUID]*entity.DomainUsage{}
	}

	return &model.BrainMasterSession{
		Id:                   s.Id,
		UserId:               s.UserId,
		Name:                 s.Name,
		SessionType:          s.SessionType,
		DomainIds:            encodeJSON(s.DomainIds),
		ConversationHistory:  encodeJSON(history),
		AccumulatedKnowledge: encodeJSON(knowledge),
		TotalQueries:         s.TotalQueries,
		TotalTokensUsed:      s.TotalTokensUsed,
		Status:               string(s.Status),
		Rating:               s.Rating,
		Feedback:             s.Feedback,
		Version:              s.Version,
		LastActivityAt:       s.LastActivityAt,
		CreatedAt:            s.CreatedAt,
		EndedAt:              s.EndedAt,
	}
}

func (m *BrainMapper) SessionContextToEntity(c *model.BrainSessionContext) *entity.SessionContext {
	if c == nil {
		return nil
	}
	return &entity.SessionContext{
		Id:          c.Id,
		SessionId:   c.SessionId,
		DomainId:    c.DomainId,
		UserId:      c.UserId,
		ContextText: c.ContextText,
		ContextType: c.ContextType,
		Embedding:   vectorToSlice(c.Embedding),
		CreatedAt:   c.CreatedAt,
	}
}

func (m *BrainMapper) SessionContextToModel(c *entity.SessionContext) *model.BrainSessionContext {
	if c == nil {
		return nil
	}
	return &model.BrainSessionContext{
		Id:          c.Id,
		SessionId:   c.SessionId,
		DomainId:    c.DomainId,
		UserId:      c.UserId,
		ContextText: c.ContextText,
		ContextType: c.ContextType,
		Embedding:   sliceToVector(c.Embedding),
		CreatedAt:   c.CreatedAt,
	}
}

func (m *BrainMapper) OrchestrationStateToEntity(s *model.BrainOrchestrationState) *entity.OrchestrationState {
	if s == nil {
		return nil
	}

	state := &entity.OrchestrationState{
		SessionId:   s.SessionId,
		UserId:      s.UserId,
		CurrentStep: entity.OrchestrationStep(s.CurrentStep),
		UpdatedAt:   s.UpdatedAt,
	}
	decodeJSON(s.StepProgress, &state.StepProgress)
	decodeJSON(s.GatheredContext, &state.GatheredContext)
	decodeJSON(s.AnalysisResults, &state.AnalysisResults)
	decodeJSON(s.SynthesisData, &state.SynthesisData)
	return state
}

func (m *BrainMapper) OrchestrationStateToModel(s *entity.OrchestrationState) *model.BrainOrchestrationState {
	if s == nil {
		return nil
	}
	return &model.BrainOrchestrationState{
		SessionId:       s.SessionId,
		UserId:          s.UserId,
		CurrentStep:     string(s.CurrentStep),
		StepProgress:    encodeJSON(s.StepProgress),
		GatheredContext: encodeJSON(s.GatheredContext),
		AnalysisResults: encodeJSON(s.AnalysisResults),
		SynthesisData:   encodeJSON(s.SynthesisData),
		UpdatedAt:       s.UpdatedAt,
	}
}

// Core Logic Mappers

func (m *BrainMapper) CoreLogicToEntity(c *model.BrainCoreLogic) *entity.CoreLogic {
	if c == nil {
		return nil
	}

	logic := &entity.CoreLogic{
		Id:              c.Id,
		DomainId:        c.DomainId,
		UserId:          c.UserId,
		Version:         c.Version,
		IsActive:        c.IsActive,
		ChangeSummary:   c.ChangeSummary,
		LastDistilledAt: c.LastDistilledAt,
	}
	decodeJSON(c.FirstPrinciples, &logic.FirstPrinciples)
	decodeJSON(c.MentalModels, &logic.MentalModels)
	decodeJSON(c.DecisionRules, &logic.DecisionRules)
	decodeJSON(c.AntiPatterns, &logic.AntiPatterns)
	return logic
}

func (m *BrainMapper) CoreLogicToModel(c *entity.CoreLogic) *model.BrainCoreLogic {
	if c == nil {
		return nil
	}
	return &model.BrainCoreLogic{
		Id:              c.Id,
		DomainId:        c.DomainId,
		UserId:          c.UserId,
		Version:         c.Version,
		FirstPrinciples: encodeJSON(c.FirstPrinciples),
		MentalModels:    encodeJSON(c.MentalModels),
		DecisionRules:   encodeJSON(c.DecisionRules),
		AntiPatterns:    encodeJSON(c.AntiPatterns),
		IsActive:        c.IsActive,
		ChangeSummary:   c.ChangeSummary,
		LastDistilledAt: c.LastDistilledAt,
	}
}

func vectorToSlice(v *pgvector.Vector) []float32 {
	if v == nil {
		return nil
	}
	return v.Slice()
}

func sliceToVector(values []float32) *pgvector.Vector {
	if len(values) == 0 {
		return nil
	}
	v := pgvector.NewVector(values)
	return &v
}

// Malformed JSON columns decode to the zero value; the rows are still usable.
func decodeJSON(raw datatypes.JSON, target interface{}) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, target)
}

func encodeJSON(value interface{}) datatypes.JSON {
	raw, err := json.Marshal(value)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}
