package database

import (
	"fmt"

	"gorm.io/gorm"
)

var preMigrationSQL = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE EXTENSION IF NOT EXISTS vector;`,
}

var postMigrationSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_brain_knowledge_embedding ON brain_knowledge USING hnsw (embedding vector_cosine_ops);`,
	`CREATE INDEX IF NOT EXISTS idx_brain_domains_profile ON brain_domains USING hnsw (embedding_profile vector_cosine_ops);`,
	`CREATE INDEX IF NOT EXISTS idx_brain_session_context_embedding ON brain_session_context USING hnsw (embedding vector_cosine_ops);`,
	`CREATE INDEX IF NOT EXISTS idx_brain_master_session_activity ON brain_master_session (user_id, last_activity_at DESC);`,
}

// MigrateResult tells what a Migrate run did. Warnings are non-fatal SQL
// failures, usually an index the server cannot build.
type MigrateResult struct {
	Tables   int
	Warnings []string
}

// Migrate prepares extensions, auto-migrates models and builds the vector
// indexes. Only AutoMigrate failures are fatal.
func Migrate(db *gorm.DB, models ...interface{}) (*MigrateResult, error) {
	result := &MigrateResult{Tables: len(models)}

	for _, sql := range preMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("setup: %v", err))
		}
	}

	if err := db.AutoMigrate(models...); err != nil {
		return result, fmt.Errorf("auto migrate: %w", err)
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("index: %v", err))
		}
	}

	return result, nil
}
