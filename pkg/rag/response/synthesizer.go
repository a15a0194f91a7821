package response

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/pkg/apperror"
	"ai-masterbrain-be/pkg/llm"
)

// Options controls one synthesis call.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	DomainCount int
}

func DefaultOptions() Options {
	return Options{
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     60 * time.Second,
	}
}

// Synthesis is the generated answer.
type Synthesis struct {
	Text       string
	TokensUsed int
}

// Synthesizer writes the final answer from assembled context.
type Synthesizer struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
	llmLogger   logger.ILogger
}

// NewSynthesizer creates a synthesizer. llmLogger receives full prompts and
// may be the same as log.
func NewSynthesizer(llmProvider llm.LLMProvider, log logger.ILogger, llmLogger logger.ILogger) *Synthesizer {
	if llmLogger == nil {
		llmLogger = log
	}
	return &Synthesizer{
		llmProvider: llmProvider,
		logger:      log,
		llmLogger:   llmLogger,
	}
}

// Synthesize makes exactly one completion call. Failures are not retried.
func (s *Synthesizer) Synthesize(ctx context.Context, contextText, query string, opts Options) (*Synthesis, error) {
	if s.llmProvider == nil {
		return nil, apperror.Configuration("synthesizer has no completion provider")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	prompt := buildPrompt(contextText, query, opts.DomainCount)
	history := []llm.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: prompt},
	}

	s.llmLogger.Debug("SYNTHESIS", "Synthesis prompt", map[string]interface{}{
		"prompt":  prompt,
		"domains": opts.DomainCount,
	})

	callOpts := []llm.Option{llm.WithTemperature(opts.Temperature), llm.WithMaxTokens(opts.MaxTokens)}
	if opts.Model != "" {
		callOpts = append(callOpts, llm.WithModel(opts.Model))
	}

	completion, err := s.llmProvider.Chat(ctx, history, callOpts...)
	if err != nil {
		s.logger.Error("SYNTHESIS", "Completion failed", map[string]interface{}{"error": err.Error()})
		return nil, apperror.Synthesis("completion failed", err)
	}
	if completion == nil || strings.TrimSpace(completion.Text) == "" {
		s.logger.Error("SYNTHESIS", "Completion returned no text", nil)
		return nil, apperror.Synthesis("completion returned no text", nil)
	}

	s.llmLogger.Debug("SYNTHESIS", "Synthesis answer", map[string]interface{}{
		"answer": completion.Text,
		"tokens": completion.TokensUsed,
	})

	return &Synthesis{
		Text:       completion.Text,
		TokensUsed: completion.TokensUsed,
	}, nil
}

func buildPrompt(contextText, query string, domainCount int) string {
	var prompt strings.Builder

	prompt.WriteString("You are a Master Brain orchestrator that synthesizes information from multiple knowledge domains.\n\n")
	prompt.WriteString(fmt.Sprintf("Context from %d domain(s):\n", domainCount))
	prompt.WriteString(contextText)
	prompt.WriteString("\n\n")
	prompt.WriteString(fmt.Sprintf("User Query: %s\n\n", query))

	prompt.WriteString("Synthesize a comprehensive response that:\n")
	prompt.WriteString("1. Integrates information from all relevant domains\n")
	prompt.WriteString("2. Identifies connections and patterns across domains\n")
	prompt.WriteString("3. Provides a unified, coherent answer\n")
	prompt.WriteString("4. Highlights any contradictions or complementary insights\n")
	prompt.WriteString("5. References which domains contributed to the answer\n\n")
	prompt.WriteString("Response:")

	return prompt.String()
}
