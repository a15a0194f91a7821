package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BrainQueryRouting struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	Query           string         `gorm:"type:text;not null"`
	SelectedDomains datatypes.JSON `gorm:"type:jsonb"`
	Confidence      float64
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

func (BrainQueryRouting) TableName() string {
	return "brain_query_routing"
}

type BrainRoutingPerformance struct {
	DomainId       uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TimesSelected  int       `gorm:"not null;default:0"`
	TotalRelevance float64   `gorm:"not null;default:0"`
	LastSelectedAt time.Time
}

func (BrainRoutingPerformance) TableName() string {
	return "brain_routing_performance"
}
