package entity

import (
	"time"

	"github.com/google/uuid"
)

// RoutingDecision is the append-only audit record of one domain selection.
type RoutingDecision struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	Query           string
	SelectedDomains []DomainScore
	Confidence      float64
	CreatedAt       time.Time
}

// RoutingPerformance aggregates how often a domain gets selected for a user.
type RoutingPerformance struct {
	DomainId       uuid.UUID
	UserId         uuid.UUID
	TimesSelected  int
	TotalRelevance float64
	LastSelectedAt time.Time
}

func (p *RoutingPerformance) AverageRelevance() float64 {
	if p.TimesSelected == 0 {
		return 0
	}
	return p.TotalRelevance / float64(p.TimesSelected)
}
