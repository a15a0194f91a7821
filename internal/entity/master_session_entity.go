package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusEnded  SessionStatus = "ended"

	SessionTypeConversation = "conversation"
)

type ConversationEntry struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type QueryMark struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// DomainUsage tracks what a session drew from one domain.
type DomainUsage struct {
	DomainName     string      `json:"domain_name"`
	KnowledgeCount int         `json:"knowledge_count"`
	Queries        []QueryMark `json:"queries"`
}

// MasterSession is a multi-turn conversation across several domains.
type MasterSession struct {
	Id                   uuid.UUID
	UserId               uuid.UUID
	Name                 string
	SessionType          string
	DomainIds            []uuid.UUID
	ConversationHistory  []ConversationEntry
	AccumulatedKnowledge map[uuid.UUID]*DomainUsage
	TotalQueries         int
	TotalTokensUsed      int
	Status               SessionStatus
	Rating               *int
	Feedback             string
	Version              int
	LastActivityAt       time.Time
	CreatedAt            time.Time
	EndedAt              *time.Time
}

func (s *MasterSession) IsActive() bool {
	return s.Status == SessionStatusActive
}

// SessionContext is an embedded snapshot of what a domain contributed to a turn.
type SessionContext struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	DomainId    uuid.UUID
	UserId      uuid.UUID
	ContextText string
	ContextType string
	Embedding   []float32
	CreatedAt   time.Time
}

type OrchestrationStep string

const (
	StepInitialized  OrchestrationStep = "initialized"
	StepRouting      OrchestrationStep = "routing"
	StepGathering    OrchestrationStep = "gathering"
	StepSynthesizing OrchestrationStep = "synthesizing"
	StepComplete     OrchestrationStep = "complete"
)

// OrchestrationState is the progress marker of a session, overwritten in place.
type OrchestrationState struct {
	SessionId       uuid.UUID
	UserId          uuid.UUID
	CurrentStep     OrchestrationStep
	StepProgress    map[string]interface{}
	GatheredContext map[string]interface{}
	AnalysisResults map[string]interface{}
	SynthesisData   map[string]interface{}
	UpdatedAt       time.Time
}
