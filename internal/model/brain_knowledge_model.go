package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type BrainKnowledge struct {
	Id        uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DomainId  uuid.UUID        `gorm:"type:uuid;not null;index"`
	UserId    uuid.UUID        `gorm:"type:uuid;not null;index"`
	Title     string           `gorm:"type:text;not null"`
	Content   string           `gorm:"type:text"`
	Tags      datatypes.JSON   `gorm:"type:jsonb"`
	Embedding *pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime"`
}

func (BrainKnowledge) TableName() string {
	return "brain_knowledge"
}
