package brain

import (
	"ai-masterbrain-be/internal/config"
	ragcontext "ai-masterbrain-be/pkg/rag/context"
	"ai-masterbrain-be/pkg/rag/rerank"
	"ai-masterbrain-be/pkg/rag/response"
	"ai-masterbrain-be/pkg/rag/router"
	"ai-masterbrain-be/pkg/rag/search"
)

// Options bundles the per-stage options of one orchestration.
type Options struct {
	Routing   router.Options
	Gather    search.Options
	Rerank    rerank.Options
	Context   ragcontext.Options
	Synthesis response.Options
}

func DefaultOptions() Options {
	gather := search.DefaultOptions()
	gather.MatchCount = 5
	gather.MatchThreshold = 0.6

	return Options{
		Routing:   router.DefaultOptions(),
		Gather:    gather,
		Rerank:    rerank.DefaultOptions(),
		Context:   ragcontext.DefaultOptions(),
		Synthesis: response.DefaultOptions(),
	}
}

// OptionsFromConfig maps the configured tunables onto stage options.
func OptionsFromConfig(cfg config.BrainConfig, ai config.AIConfig) Options {
	opts := DefaultOptions()

	opts.Routing.MaxDomains = cfg.MaxDomains
	opts.Routing.MinScore = cfg.MinScore

	opts.Gather.MatchCount = cfg.GatherMatchCount
	opts.Gather.MatchThreshold = cfg.GatherMatchThreshold
	opts.Gather.KeywordLimit = cfg.KeywordLimit
	opts.Gather.Limit = cfg.ResultLimit

	opts.Rerank.Enabled = cfg.RerankEnabled
	opts.Rerank.TopN = cfg.RerankTopN
	opts.Rerank.Timeout = cfg.RerankTimeout
	opts.Rerank.Model = ai.RerankModel

	opts.Context.MaxResults = cfg.ContextMaxResults
	opts.Context.PerItemCharBudget = cfg.ContextItemBudget

	opts.Synthesis.Temperature = cfg.Temperature
	opts.Synthesis.MaxTokens = cfg.MaxTokens
	opts.Synthesis.Timeout = cfg.SynthesisTimeout
	opts.Synthesis.Model = ai.LLMModel

	return opts
}
