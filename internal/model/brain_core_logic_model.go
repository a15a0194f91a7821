package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BrainCoreLogic struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DomainId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	Version         int            `gorm:"not null;default:1"`
	FirstPrinciples datatypes.JSON `gorm:"type:jsonb"`
	MentalModels    datatypes.JSON `gorm:"type:jsonb"`
	DecisionRules   datatypes.JSON `gorm:"type:jsonb"`
	AntiPatterns    datatypes.JSON `gorm:"type:jsonb"`
	IsActive        bool           `gorm:"not null;default:true"`
	ChangeSummary   string         `gorm:"type:text"`
	LastDistilledAt time.Time
}

func (BrainCoreLogic) TableName() string {
	return "brain_core_logic"
}
