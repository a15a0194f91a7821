// Package testutil holds fakes shared by the brain package tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"ai-masterbrain-be/pkg/embedding"
	"ai-masterbrain-be/pkg/events"
	"ai-masterbrain-be/pkg/llm"

	"github.com/stretchr/testify/mock"
)

var ErrStub = errors.New("stub failure")

// StubEmbedder returns fixed vectors per text. Unknown text gets Default,
// or ErrStub when Default is nil.
type StubEmbedder struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Default []float32
	Err     error
	Calls   int
}

func NewStubEmbedder(def []float32) *StubEmbedder {
	return &StubEmbedder{Vectors: map[string][]float32{}, Default: def}
}

func (s *StubEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++

	if s.Err != nil {
		return nil, s.Err
	}
	if v, ok := s.Vectors[text]; ok {
		return embedding.NewResponse(append([]float32(nil), v...)), nil
	}
	if s.Default == nil {
		return nil, ErrStub
	}
	return embedding.NewResponse(append([]float32(nil), s.Default...)), nil
}

// StubLLM answers every call through Reply and records what it was asked.
type StubLLM struct {
	mu      sync.Mutex
	Reply   func(history []llm.Message, opts *llm.Options) (*llm.Completion, error)
	Calls   int
	Prompts [][]llm.Message
	Options []*llm.Options
}

// NewStubLLM returns a provider that always answers text.
func NewStubLLM(text string, tokens int) *StubLLM {
	return &StubLLM{
		Reply: func([]llm.Message, *llm.Options) (*llm.Completion, error) {
			return &llm.Completion{Text: text, TokensUsed: tokens}, nil
		},
	}
}

// NewFailingLLM returns a provider whose every call fails with err.
func NewFailingLLM(err error) *StubLLM {
	return &StubLLM{
		Reply: func([]llm.Message, *llm.Options) (*llm.Completion, error) {
			return nil, err
		},
	}
}

func (s *StubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	opts := llm.ApplyOptions(options...)

	s.mu.Lock()
	s.Calls++
	s.Prompts = append(s.Prompts, history)
	s.Options = append(s.Options, opts)
	reply := s.Reply
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reply(history, opts)
}

func (s *StubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func (s *StubLLM) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls
}

// MockPublisher is a testify mock for event publishers.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
