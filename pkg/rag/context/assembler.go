package context

import (
	"fmt"
	"strings"

	"ai-masterbrain-be/internal/entity"
)

// NoContextFound is returned by Assemble when there is no evidence at all.
const NoContextFound = "No relevant context found."

const (
	digestKnowledgeItems = 3
	digestExcerptRunes   = 200
)

// Options controls context assembly.
type Options struct {
	MaxResults        int
	PerItemCharBudget int
	Separator         string
}

func DefaultOptions() Options {
	return Options{
		MaxResults:        5,
		PerItemCharBudget: 500,
		Separator:         "\n\n---\n\n",
	}
}

// DomainDigest summarises what one domain contributed.
type DomainDigest struct {
	DomainName string
	Evidence   []entity.CandidateResult
	CoreLogic  *entity.CoreLogic
}

// Assembler renders retrieved evidence into prompt text. It is pure and
// safe for concurrent use.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble renders the first MaxResults candidates as numbered blocks.
func (a *Assembler) Assemble(results []entity.CandidateResult, opts Options) string {
	if len(results) == 0 {
		return NoContextFound
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultOptions().MaxResults
	}
	if opts.PerItemCharBudget <= 0 {
		opts.PerItemCharBudget = DefaultOptions().PerItemCharBudget
	}
	if opts.Separator == "" {
		opts.Separator = DefaultOptions().Separator
	}

	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}

	blocks := make([]string, 0, len(results))
	for i, r := range results {
		content, cut := truncate(r.Content, opts.PerItemCharBudget)
		if cut {
			content += "..."
		}
		blocks = append(blocks, fmt.Sprintf("[%d] %s\n%s", i+1, r.Title, content))
	}
	return strings.Join(blocks, opts.Separator)
}

// DomainDigest renders one header block per domain: its name, how much
// evidence it produced, its top items and the size of its core logic.
func (a *Assembler) DomainDigest(domains []DomainDigest) string {
	blocks := make([]string, 0, len(domains))

	for _, d := range domains {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("Domain: %s (%d knowledge items)\n", d.DomainName, len(d.Evidence)))

		if len(d.Evidence) == 0 {
			b.WriteString("No knowledge found")
		}
		for i, e := range d.Evidence {
			if i == digestKnowledgeItems {
				break
			}
			if i > 0 {
				b.WriteString("\n")
			}
			excerpt, _ := truncate(e.Content, digestExcerptRunes)
			b.WriteString(fmt.Sprintf("- %s: %s", e.Title, excerpt))
		}

		if d.CoreLogic != nil {
			b.WriteString("\nCore Logic:")
			b.WriteString(fmt.Sprintf("\n- First Principles: %d", len(d.CoreLogic.FirstPrinciples)))
			b.WriteString(fmt.Sprintf("\n- Mental Models: %d", len(d.CoreLogic.MentalModels)))
			b.WriteString(fmt.Sprintf("\n- Decision Rules: %d", len(d.CoreLogic.DecisionRules)))
			b.WriteString(fmt.Sprintf("\n- Anti-Patterns: %d", len(d.CoreLogic.AntiPatterns)))
		}

		blocks = append(blocks, b.String())
	}

	return strings.Join(blocks, DefaultOptions().Separator)
}

// truncate cuts s to limit runes and reports whether it did.
func truncate(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}
	return string(runes[:limit]), true
}
