package dto

import (
	"time"

	"github.com/google/uuid"
)

// Orchestration

type OrchestrateQueryRequest struct {
	Query     string           `json:"query" validate:"required,max=4000"`
	SessionId *uuid.UUID       `json:"session_id,omitempty"`
	DomainIds []uuid.UUID      `json:"domain_ids,omitempty" validate:"max=20,unique"`
	Options   *QueryOptionsDTO `json:"options,omitempty"`
}

// QueryOptionsDTO overrides the configured defaults for one query.
type QueryOptionsDTO struct {
	MaxDomains  *int     `json:"max_domains,omitempty" validate:"omitempty,min=1,max=20"`
	MinScore    *float64 `json:"min_score,omitempty" validate:"omitempty,min=0,max=1"`
	Rerank      *bool    `json:"rerank,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	MaxTokens   *int     `json:"max_tokens,omitempty" validate:"omitempty,min=1,max=8000"`
}

type DomainScoreDTO struct {
	DomainId       uuid.UUID `json:"domain_id"`
	DomainName     string    `json:"domain_name"`
	RelevanceScore float64   `json:"relevance_score"`
}

type DomainContextDTO struct {
	DomainId       uuid.UUID `json:"domain_id"`
	DomainName     string    `json:"domain_name"`
	KnowledgeCount int       `json:"knowledge_count"`
	CoreLogicCount int       `json:"core_logic_count"`
}

type PartialFailureDTO struct {
	DomainId  uuid.UUID `json:"domain_id"`
	Component string    `json:"component"`
	Reason    string    `json:"reason"`
}

type OrchestrateQueryResponse struct {
	Query           string              `json:"query"`
	Response        string              `json:"response"`
	Domains         []DomainScoreDTO    `json:"domains"`
	Context         []DomainContextDTO  `json:"context"`
	Confidence      float64             `json:"confidence"`
	LatencyMs       int64               `json:"latency_ms"`
	TokensUsed      int                 `json:"tokens_used"`
	RoutingId       *uuid.UUID          `json:"routing_id,omitempty"`
	PartialFailures []PartialFailureDTO `json:"partial_failures,omitempty"`
}

// Sessions

type CreateMasterSessionRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	DomainIds   []uuid.UUID `json:"domain_ids" validate:"max=20,unique"`
	SessionType string      `json:"session_type,omitempty" validate:"omitempty,max=50"`
}

type CreateMasterSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type EndMasterSessionRequest struct {
	Rating   *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Feedback string `json:"feedback,omitempty" validate:"max=2000"`
}

type ConversationEntryDTO struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type MasterSessionDTO struct {
	Id              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	SessionType     string      `json:"session_type"`
	DomainIds       []uuid.UUID `json:"domain_ids"`
	Status          string      `json:"status"`
	TotalQueries    int         `json:"total_queries"`
	TotalTokensUsed int         `json:"total_tokens_used"`
	Rating          *int        `json:"rating,omitempty"`
	LastActivityAt  time.Time   `json:"last_activity_at"`
	CreatedAt       time.Time   `json:"created_at"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
}

type SessionContextDTO struct {
	Id          uuid.UUID `json:"id"`
	DomainId    uuid.UUID `json:"domain_id"`
	ContextText string    `json:"context_text"`
	ContextType string    `json:"context_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrchestrationStateDTO struct {
	CurrentStep  string                 `json:"current_step"`
	StepProgress map[string]interface{} `json:"step_progress,omitempty"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type SessionStateResponse struct {
	Session             MasterSessionDTO       `json:"session"`
	ConversationHistory []ConversationEntryDTO `json:"conversation_history"`
	Contexts            []SessionContextDTO    `json:"contexts"`
	Orchestration       *OrchestrationStateDTO `json:"orchestration_state"`
}

// Messaging

// PublishSessionContextMessage asks the consumer to embed and store what one
// domain contributed to a session turn.
type PublishSessionContextMessage struct {
	SessionId   uuid.UUID `json:"session_id"`
	DomainId    uuid.UUID `json:"domain_id"`
	UserId      uuid.UUID `json:"user_id"`
	ContextText string    `json:"context_text"`
	ContextType string    `json:"context_type"`
}
