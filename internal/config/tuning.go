package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ApplyTuningFile overlays the YAML file at path onto cfg. Keys absent from
// the file keep their current values.
func ApplyTuningFile(cfg *BrainConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tuning file: %w", err)
	}

	overlay := *cfg
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse tuning file: %w", err)
	}

	if err := overlay.Validate(); err != nil {
		return err
	}

	*cfg = overlay
	return nil
}

// Validate rejects tunables that would make the pipeline misbehave.
func (c BrainConfig) Validate() error {
	switch {
	case c.MaxDomains <= 0:
		return fmt.Errorf("max_domains must be positive, got %d", c.MaxDomains)
	case c.MinScore < 0 || c.MinScore > 1:
		return fmt.Errorf("min_score must be within [0,1], got %v", c.MinScore)
	case c.ConfidenceCap <= 0:
		return fmt.Errorf("confidence_cap must be positive, got %v", c.ConfidenceCap)
	case c.MatchThreshold < 0 || c.MatchThreshold > 1:
		return fmt.Errorf("match_threshold must be within [0,1], got %v", c.MatchThreshold)
	case c.MatchCount <= 0 || c.ResultLimit <= 0 || c.KeywordLimit <= 0:
		return fmt.Errorf("match_count, keyword_limit and result_limit must be positive")
	case c.EmbeddingCachePolicy != "fifo" && c.EmbeddingCachePolicy != "lru":
		return fmt.Errorf("embedding_cache_policy must be fifo or lru, got %q", c.EmbeddingCachePolicy)
	}
	return nil
}
