package entity

import (
	"time"

	"github.com/google/uuid"
)

// CoreLogic is a distilled, versioned summary of a domain's reasoning.
type CoreLogic struct {
	Id              uuid.UUID
	DomainId        uuid.UUID
	UserId          uuid.UUID
	Version         int
	FirstPrinciples []string
	MentalModels    []string
	DecisionRules   []string
	AntiPatterns    []string
	IsActive        bool
	ChangeSummary   string
	LastDistilledAt time.Time
}
