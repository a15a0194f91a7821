package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures NewBreakerProvider.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32        // Allowed through while half-open
	Interval         time.Duration // Closed-state counter reset
	Timeout          time.Duration // Open duration before half-open
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerProvider stops calling a failing backend for a while. While open,
// calls fail fast with gobreaker.ErrOpenState.
type BreakerProvider struct {
	next LLMProvider
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerProvider(next LLMProvider, settings BreakerSettings) *BreakerProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureThreshold
		},
	})
	return &BreakerProvider{next: next, cb: cb}
}

func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerProvider) Chat(ctx context.Context, history []Message, options ...Option) (*Completion, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Chat(ctx, history, options...)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Completion), nil
}

func (b *BreakerProvider) Generate(ctx context.Context, prompt string, options ...Option) (*Completion, error) {
	return b.Chat(ctx, []Message{{Role: "user", Content: prompt}}, options...)
}
