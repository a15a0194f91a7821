package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type BrainDomain struct {
	Id               uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId           uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name             string           `gorm:"type:text;not null"`
	Description      string           `gorm:"type:text"`
	EmbeddingProfile *pgvector.Vector `gorm:"type:vector(768)"` // Null until the domain profile is computed
	CreatedAt        time.Time        `gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime"`
}

func (BrainDomain) TableName() string {
	return "brain_domains"
}
