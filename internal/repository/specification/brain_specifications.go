package specification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InDomain scopes rows to one domain.
type InDomain struct {
	DomainID uuid.UUID
}

func (s InDomain) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("domain_id = ?", s.DomainID)
}

// BySession scopes rows to one master session.
type BySession struct {
	SessionID uuid.UUID
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// KeywordMatch is a case-insensitive substring match on title or content.
// The keyword is matched literally.
type KeywordMatch struct {
	Keyword string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern wraps the escaped keyword in % wildcards.
func (s KeywordMatch) ContainsPattern() string {
	return "%" + likeEscaper.Replace(s.Keyword) + "%"
}

func (s KeywordMatch) Apply(db *gorm.DB) *gorm.DB {
	pattern := s.ContainsPattern()
	return db.Where(`title ILIKE ? ESCAPE '\' OR content ILIKE ? ESCAPE '\'`, pattern, pattern)
}
