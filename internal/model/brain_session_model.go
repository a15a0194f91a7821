package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type BrainMasterSession struct {
	Id                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId               uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name                 string         `gorm:"type:text;not null"`
	SessionType          string         `gorm:"type:varchar(50);not null;default:'conversation'"`
	DomainIds            datatypes.JSON `gorm:"type:jsonb"`
	ConversationHistory  datatypes.JSON `gorm:"type:jsonb"`
	AccumulatedKnowledge datatypes.JSON `gorm:"type:jsonb"`
	TotalQueries         int            `gorm:"not null;default:0"`
	TotalTokensUsed      int            `gorm:"not null;default:0"`
	Status               string         `gorm:"type:varchar(20);not null;default:'active';index"`
	Rating               *int
	Feedback             string `gorm:"type:text"`
	Version              int    `gorm:"not null;default:1"` // Optimistic concurrency token
	LastActivityAt       time.Time
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	EndedAt              *time.Time
}

func (BrainMasterSession) TableName() string {
	return "brain_master_session"
}

type BrainSessionContext struct {
	Id          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID        `gorm:"type:uuid;not null;index"`
	DomainId    uuid.UUID        `gorm:"type:uuid;index"`
	UserId      uuid.UUID        `gorm:"type:uuid;not null;index"`
	ContextText string           `gorm:"type:text"`
	ContextType string           `gorm:"type:varchar(50)"`
	Embedding   *pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
}

func (BrainSessionContext) TableName() string {
	return "brain_session_context"
}

type BrainOrchestrationState struct {
	SessionId       uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	CurrentStep     string         `gorm:"type:varchar(30);not null"`
	StepProgress    datatypes.JSON `gorm:"type:jsonb"`
	GatheredContext datatypes.JSON `gorm:"type:jsonb"`
	AnalysisResults datatypes.JSON `gorm:"type:jsonb"`
	SynthesisData   datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

func (BrainOrchestrationState) TableName() string {
	return "brain_orchestration_state"
}
