package entity

import (
	"time"

	"github.com/google/uuid"
)

type Knowledge struct {
	Id        uuid.UUID
	DomainId  uuid.UUID
	UserId    uuid.UUID
	Title     string
	Content   string
	Tags      []string
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type SourceKind string

const (
	SourceVector  SourceKind = "vector"
	SourceKeyword SourceKind = "keyword"
)

// CandidateResult is one piece of retrieved evidence. Similarity is a rank key
// and may exceed 1 after the keyword boost.
type CandidateResult struct {
	KnowledgeId uuid.UUID  `json:"knowledge_id"`
	DomainId    uuid.UUID  `json:"domain_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Similarity  float64    `json:"similarity"`
	SourceKind  SourceKind `json:"source_kind"`
	CreatedAt   time.Time  `json:"created_at"`
}
