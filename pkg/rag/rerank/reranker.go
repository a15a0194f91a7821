package rerank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/pkg/llm"
	"ai-masterbrain-be/pkg/metrics"

	"github.com/sony/gobreaker"
)

const excerptRunes = 300

// Options controls one rerank call.
type Options struct {
	Enabled bool
	TopN    int
	Model   string
	Timeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Enabled: true,
		TopN:    20,
		Timeout: 15 * time.Second,
	}
}

// Reranker reorders retrieved candidates with a language model. It never
// fails: any problem falls back to similarity order.
type Reranker struct {
	llmProvider llm.LLMProvider
	metrics     *metrics.Collector
	logger      logger.ILogger
}

// NewReranker wraps llmProvider in a circuit breaker. A nil provider
// disables model reranking.
func NewReranker(llmProvider llm.LLMProvider, collector *metrics.Collector, log logger.ILogger) *Reranker {
	r := &Reranker{metrics: collector, logger: log}
	if llmProvider != nil {
		r.llmProvider = llm.NewBreakerProvider(llmProvider, llm.DefaultBreakerSettings("rerank"))
	}
	return r
}

// Rerank returns a permutation of candidates, most relevant first.
func (r *Reranker) Rerank(ctx context.Context, candidates []entity.CandidateResult, query string, opts Options) []entity.CandidateResult {
	if !opts.Enabled || len(candidates) == 0 || r.llmProvider == nil {
		return BySimilarity(candidates)
	}

	topN := opts.TopN
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}
	head := candidates[:topN]

	callCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	callOpts := []llm.Option{llm.WithTemperature(0.3), llm.WithMaxTokens(200), llm.WithJSONMode()}
	if opts.Model != "" {
		callOpts = append(callOpts, llm.WithModel(opts.Model))
	}

	completion, err := r.llmProvider.Generate(callCtx, buildPrompt(head, query), callOpts...)
	if err != nil {
		reason := "call_failed"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			reason = "breaker_open"
		}
		return r.fallback(candidates, reason, err)
	}

	parsed := parseRanking(completion.Text)
	if parsed.Err != nil {
		return r.fallback(candidates, "parse_failed", parsed.Err)
	}

	out := make([]entity.CandidateResult, 0, len(candidates))
	out = append(out, applyRanking(head, parsed.Indices)...)
	out = append(out, candidates[topN:]...)

	r.logger.Debug("RERANK", "Candidates reranked", map[string]interface{}{
		"candidates": len(candidates),
		"ranked":     len(parsed.Indices),
	})
	return out
}

func (r *Reranker) fallback(candidates []entity.CandidateResult, reason string, err error) []entity.CandidateResult {
	details := map[string]interface{}{"reason": reason}
	if err != nil {
		details["error"] = err.Error()
	}
	r.logger.Warn("RERANK", "Falling back to similarity order", details)
	r.metrics.RecordRerankFallback(reason)
	return BySimilarity(candidates)
}

// BySimilarity returns a copy of candidates sorted by similarity, highest first.
func BySimilarity(candidates []entity.CandidateResult) []entity.CandidateResult {
	out := append([]entity.CandidateResult(nil), candidates...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

func buildPrompt(candidates []entity.CandidateResult, query string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a search result reranker. Rank the following results by relevance to the query.\n\n")
	prompt.WriteString(fmt.Sprintf("Query: %s\n\nResults:\n", query))

	for i, c := range candidates {
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(fmt.Sprintf("%d. %s\n   %s", i+1, c.Title, truncateRunes(c.Content, excerptRunes)))
	}

	prompt.WriteString("\n\nReturn a JSON object whose \"ranking\" field lists the result numbers (1-based) ")
	prompt.WriteString("in order of relevance, most relevant first.\n")
	prompt.WriteString("Example: {\"ranking\": [3, 1, 5, 2, 4]}")

	return prompt.String()
}

// applyRanking orders head by 1-based indices. Invalid and repeated indices
// are skipped and unmentioned candidates keep their relative order at the
// end, so a ranking with no usable index leaves head as it was.
func applyRanking(head []entity.CandidateResult, indices []int) []entity.CandidateResult {
	used := make([]bool, len(head))
	out := make([]entity.CandidateResult, 0, len(head))

	for _, idx := range indices {
		pos := idx - 1
		if pos < 0 || pos >= len(head) || used[pos] {
			continue
		}
		used[pos] = true
		out = append(out, head[pos])
	}

	for i, c := range head {
		if !used[i] {
			out = append(out, c)
		}
	}
	return out
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
