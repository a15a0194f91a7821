package entity

import (
	"time"

	"github.com/google/uuid"
)

// Domain is a user-owned area of expertise with its own knowledge base.
type Domain struct {
	Id               uuid.UUID
	UserId           uuid.UUID
	Name             string
	Description      string
	EmbeddingProfile []float32
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

// DomainScore is the relevance of one domain to a query.
type DomainScore struct {
	DomainId       uuid.UUID `json:"domain_id"`
	DomainName     string    `json:"domain_name"`
	RelevanceScore float64   `json:"relevance_score"`
}
