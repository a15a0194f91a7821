package context

import (
	"strings"
	"testing"

	"ai-masterbrain-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestAssembleEmpty(t *testing.T) {
	assert.Equal(t, NoContextFound, NewAssembler().Assemble(nil, DefaultOptions()))
}

func TestAssembleFormatsAndTruncates(t *testing.T) {
	results := []entity.CandidateResult{
		{Title: "Short", Content: "fits"},
		{Title: "Long", Content: strings.Repeat("é", 600)},
	}

	got := NewAssembler().Assemble(results, DefaultOptions())

	parts := strings.Split(got, "\n\n---\n\n")
	assert.Len(t, parts, 2)
	assert.Equal(t, "[1] Short\nfits", parts[0])
	assert.Equal(t, "[2] Long\n"+strings.Repeat("é", 500)+"...", parts[1])
}

func TestAssembleCapsResultCount(t *testing.T) {
	results := make([]entity.CandidateResult, 8)
	for i := range results {
		results[i] = entity.CandidateResult{Title: "t", Content: "c"}
	}

	got := NewAssembler().Assemble(results, Options{MaxResults: 3})

	assert.Contains(t, got, "[3] t")
	assert.NotContains(t, got, "[4]")
}

func TestDomainDigest(t *testing.T) {
	digest := NewAssembler().DomainDigest([]DomainDigest{
		{
			DomainName: "Go",
			Evidence: []entity.CandidateResult{
				{Title: "a", Content: "one"}, {Title: "b", Content: "two"},
				{Title: "c", Content: "three"}, {Title: "d", Content: "four"},
			},
			CoreLogic: &entity.CoreLogic{FirstPrinciples: []string{"x", "y"}, MentalModels: []string{"m"}},
		},
		{DomainName: "Empty"},
	})

	expected := "Domain: Go (4 knowledge items)\n- a: one\n- b: two\n- c: three\n" +
		"Core Logic:\n- First Principles: 2\n- Mental Models: 1\n- Decision Rules: 0\n- Anti-Patterns: 0" +
		"\n\n---\n\n" +
		"Domain: Empty (0 knowledge items)\nNo knowledge found"
	assert.Equal(t, expected, digest)
}
