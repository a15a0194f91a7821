package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	calls int
	err   error
}

func (p *scriptedProvider) Chat(ctx context.Context, history []Message, options ...Option) (*Completion, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &Completion{Text: "ok", TokensUsed: 3}, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...Option) (*Completion, error) {
	return p.Chat(ctx, []Message{{Role: "user", Content: prompt}}, options...)
}

func TestBreakerPassesThrough(t *testing.T) {
	inner := &scriptedProvider{}
	b := NewBreakerProvider(inner, DefaultBreakerSettings("test"))

	out, err := b.Generate(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, 3, out.TokensUsed)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	inner := &scriptedProvider{err: errors.New("upstream down")}
	settings := DefaultBreakerSettings("test")
	settings.MinRequests = 3
	b := NewBreakerProvider(inner, settings)

	for i := 0; i < 3; i++ {
		_, err := b.Generate(context.Background(), "hi")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, inner.calls, "open breaker does not call the backend")
}

func TestApplyOptionsDefaults(t *testing.T) {
	o := ApplyOptions()
	assert.Equal(t, 0.7, o.Temperature)
	assert.False(t, o.JSONMode)

	o = ApplyOptions(WithTemperature(0.3), WithMaxTokens(200), WithJSONMode(), WithModel("m"))
	assert.Equal(t, 0.3, o.Temperature)
	assert.Equal(t, 200, o.MaxTokens)
	assert.True(t, o.JSONMode)
	assert.Equal(t, "m", o.Model)
}
