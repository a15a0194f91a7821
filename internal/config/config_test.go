package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBrainConfigDefaults(t *testing.T) {
	cfg := loadBrainConfig()

	assert.Equal(t, 5, cfg.MaxDomains)
	assert.Equal(t, 0.3, cfg.MinScore)
	assert.Equal(t, 0.6, cfg.MatchThreshold)
	assert.Equal(t, 0.5, cfg.KeywordSimilarity)
	assert.Equal(t, 0.1, cfg.KeywordBoostDelta)
	assert.Equal(t, 20, cfg.ResultLimit)
	assert.Equal(t, 2000, cfg.MaxTokens)
	assert.True(t, cfg.RerankEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadBrainConfigFromEnv(t *testing.T) {
	t.Setenv("BRAIN_MAX_DOMAINS", "3")
	t.Setenv("BRAIN_MIN_SCORE", "0.45")
	t.Setenv("BRAIN_RERANK_ENABLED", "false")
	t.Setenv("BRAIN_SYNTHESIS_TIMEOUT", "5s")
	t.Setenv("BRAIN_MATCH_COUNT", "not-a-number")

	cfg := loadBrainConfig()

	assert.Equal(t, 3, cfg.MaxDomains)
	assert.Equal(t, 0.45, cfg.MinScore)
	assert.False(t, cfg.RerankEnabled)
	assert.Equal(t, 5*time.Second, cfg.SynthesisTimeout)
	assert.Equal(t, 10, cfg.MatchCount, "unparsable values fall back to the default")
}

func TestApplyTuningFileOverlaysOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_score: 0.5\nrerank_timeout: 2s\nembedding_cache_policy: lru\n"), 0o644))

	cfg := DefaultBrainConfig()
	require.NoError(t, ApplyTuningFile(&cfg, path))

	assert.Equal(t, 0.5, cfg.MinScore)
	assert.Equal(t, 2*time.Second, cfg.RerankTimeout)
	assert.Equal(t, "lru", cfg.EmbeddingCachePolicy)
	assert.Equal(t, 5, cfg.MaxDomains)
}

func TestApplyTuningFileRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_domains: 0\n"), 0o644))

	cfg := DefaultBrainConfig()
	err := ApplyTuningFile(&cfg, path)

	require.Error(t, err)
	assert.Equal(t, 5, cfg.MaxDomains, "config is untouched on failure")
}

func TestApplyTuningFileMissing(t *testing.T) {
	cfg := DefaultBrainConfig()
	assert.Error(t, ApplyTuningFile(&cfg, filepath.Join(t.TempDir(), "absent.yaml")))
}
