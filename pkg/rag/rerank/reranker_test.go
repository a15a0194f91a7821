package rerank

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/testutil"
	"ai-masterbrain-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(scores ...float64) []entity.CandidateResult {
	out := make([]entity.CandidateResult, len(scores))
	for i, s := range scores {
		out[i] = entity.CandidateResult{
			KnowledgeId: uuid.New(),
			Title:       string(rune('A' + i)),
			Content:     strings.Repeat("x", 400),
			Similarity:  s,
		}
	}
	return out
}

func titles(cs []entity.CandidateResult) string {
	var b strings.Builder
	for _, c := range cs {
		b.WriteString(c.Title)
	}
	return b.String()
}

func TestParseRanking(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int
		wantErr bool
	}{
		{"ranking key", `{"ranking": [2, 1]}`, []int{2, 1}, false},
		{"ranked key", `{"ranked": [3]}`, []int{3}, false},
		{"bare array", "```json\n[1, 3, 2]\n```", []int{1, 3, 2}, false},
		{"object without ranking", `{"other": true}`, nil, false},
		{"prose", "I think the first one", nil, true},
		{"wrong element type", `{"ranking": ["a"]}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRanking(tt.raw)
			if tt.wantErr {
				assert.Error(t, got.Err)
				return
			}
			require.NoError(t, got.Err)
			assert.Equal(t, tt.want, got.Indices)
		})
	}
}

func TestRerankAppliesModelOrder(t *testing.T) {
	provider := testutil.NewStubLLM(`{"ranking": [3, 7, 3, 1]}`, 12)
	reranker := NewReranker(provider, nil, logger.NewNopLogger())
	input := candidates(0.9, 0.8, 0.7, 0.6)

	opts := DefaultOptions()
	opts.TopN = 3
	out := reranker.Rerank(context.Background(), input, "query", opts)

	assert.Equal(t, "CABD", titles(out), "invalid and duplicate indices skipped, unranked head kept, tail untouched")
	require.Equal(t, 1, provider.CallCount())

	used := provider.Options[0]
	assert.True(t, used.JSONMode)
	assert.Equal(t, 0.3, used.Temperature)
	assert.Equal(t, 200, used.MaxTokens)

	prompt := provider.Prompts[0][0].Content
	assert.Contains(t, prompt, "1. A\n   "+strings.Repeat("x", 300)+"\n")
	assert.NotContains(t, prompt, "4. D")
}

func TestRerankFallsBackToSimilarity(t *testing.T) {
	input := candidates(0.2, 0.9, 0.5)

	tests := []struct {
		name     string
		provider llm.LLMProvider
		opts     Options
	}{
		{"disabled", testutil.NewStubLLM(`[1]`, 0), Options{Enabled: false}},
		{"no provider", nil, DefaultOptions()},
		{"call fails", testutil.NewFailingLLM(errors.New("rate limited")), DefaultOptions()},
		{"unparsable", testutil.NewStubLLM("no idea", 0), DefaultOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewReranker(tt.provider, nil, logger.NewNopLogger()).Rerank(context.Background(), input, "q", tt.opts)
			assert.Equal(t, "BCA", titles(out))
		})
	}
	assert.Equal(t, "ABC", titles(input), "input is not mutated")
}

func TestRerankWithoutUsableIndicesKeepsInputOrder(t *testing.T) {
	input := candidates(0.2, 0.9, 0.5)

	tests := []struct {
		name  string
		reply string
	}{
		{"empty ranking", `{"ranking": []}`},
		{"all out of range", `{"ranking": [0, 9]}`},
		{"bare out of range", `[0, 9]`},
		{"object without ranking", `{"other": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := testutil.NewStubLLM(tt.reply, 0)
			out := NewReranker(provider, nil, logger.NewNopLogger()).Rerank(context.Background(), input, "q", DefaultOptions())
			assert.Equal(t, "ABC", titles(out))
			assert.Equal(t, 1, provider.CallCount())
		})
	}
}

func TestRerankTopNHeadWithUntouchedTail(t *testing.T) {
	provider := testutil.NewStubLLM(`{"ranking": [2, 1]}`, 0)
	input := candidates(0.9, 0.8, 0.7, 0.6, 0.5)

	opts := DefaultOptions()
	opts.TopN = 2
	out := NewReranker(provider, nil, logger.NewNopLogger()).Rerank(context.Background(), input, "q", opts)

	assert.Equal(t, "BACDE", titles(out))
}

func TestRerankIsAlwaysAPermutation(t *testing.T) {
	ids := func(cs []entity.CandidateResult) []uuid.UUID {
		out := make([]uuid.UUID, len(cs))
		for i, c := range cs {
			out[i] = c.KnowledgeId
		}
		return out
	}

	tests := []struct {
		name  string
		input []entity.CandidateResult
		reply string
		topN  int
	}{
		{"empty", nil, `[1]`, 20},
		{"single", candidates(0.4), `{"ranking": [1, 1, 2]}`, 20},
		{"larger than top n", candidates(0.1, 0.9, 0.3, 0.7, 0.5, 0.2), `{"ranking": [3, 3, 1, 7]}`, 3},
		{"model failure", candidates(0.1, 0.9, 0.3), `not json`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.TopN = tt.topN
			out := NewReranker(testutil.NewStubLLM(tt.reply, 0), nil, logger.NewNopLogger()).Rerank(context.Background(), tt.input, "q", opts)

			assert.Len(t, out, len(tt.input))
			assert.ElementsMatch(t, ids(tt.input), ids(out))
		})
	}
}

func TestRerankEmptyInput(t *testing.T) {
	provider := testutil.NewStubLLM(`[1]`, 0)
	out := NewReranker(provider, nil, logger.NewNopLogger()).Rerank(context.Background(), nil, "q", DefaultOptions())
	assert.Empty(t, out)
	assert.Zero(t, provider.CallCount())
}

func TestRerankOpenBreakerFallsBack(t *testing.T) {
	provider := testutil.NewFailingLLM(errors.New("down"))
	reranker := NewReranker(provider, nil, logger.NewNopLogger())
	input := candidates(0.1, 0.2)

	for i := 0; i < 10; i++ {
		out := reranker.Rerank(context.Background(), input, "q", DefaultOptions())
		assert.Equal(t, "BA", titles(out))
	}
	assert.Less(t, provider.CallCount(), 10, "breaker stops calling a failing backend")
}
