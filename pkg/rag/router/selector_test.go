package router

import (
	"context"
	"errors"
	"testing"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/memory"
	"ai-masterbrain-be/internal/repository/specification"
	"ai-masterbrain-be/internal/testutil"
	"ai-masterbrain-be/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectScores(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	scores := []entity.DomainScore{
		{DomainId: a, DomainName: "a", RelevanceScore: 0.4},
		{DomainId: b, DomainName: "b", RelevanceScore: 0.9},
		{DomainId: c, DomainName: "c", RelevanceScore: 0.1},
	}

	tests := []struct {
		name     string
		opts     Options
		expected []uuid.UUID
	}{
		{"min score cut and ordering", Options{MaxDomains: 5, MinScore: 0.3}, []uuid.UUID{b, a}},
		{"truncation", Options{MaxDomains: 1, MinScore: 0.3}, []uuid.UUID{b}},
		{"hint bypasses min score", Options{MaxDomains: 5, MinScore: 0.3, DomainIds: []uuid.UUID{c, a}}, []uuid.UUID{a, c}},
		{"hint on unknown domain", Options{MaxDomains: 5, DomainIds: []uuid.UUID{uuid.New()}}, []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectScores(scores, tt.opts)
			ids := make([]uuid.UUID, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.DomainId)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestSelectScoresBreaksTiesByDomainId(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	got := SelectScores([]entity.DomainScore{
		{DomainId: high, RelevanceScore: 0.5},
		{DomainId: low, RelevanceScore: 0.5},
	}, Options{MaxDomains: 5})

	require.Len(t, got, 2)
	assert.Equal(t, low, got[0].DomainId)
}

func TestRouteSelectsAndPersistsDecision(t *testing.T) {
	fx := testutil.NewFixture()
	golang := fx.AddDomain(t, "Go", []float32{1, 0})
	fx.AddDomain(t, "Cooking", []float32{0, 1})

	embedder := testutil.NewStubEmbedder([]float32{1, 0})
	selector := NewSelector(fx.Factory, embedder, DefaultConfig(), logger.NewNopLogger())

	routing, err := selector.Route(context.Background(), "how do goroutines work", fx.UserId, DefaultOptions())

	require.NoError(t, err)
	require.Len(t, routing.SelectedDomains, 1)
	assert.Equal(t, golang.Id, routing.SelectedDomains[0].DomainId)
	assert.InDelta(t, 1.0, routing.Confidence, 1e-9, "1.0 x 1.2 is capped at 1.0")
	assert.NotEqual(t, uuid.Nil, routing.RoutingId)

	decisions, err := memory.NewRoutingDecisionRepository(fx.Store).FindAll(context.Background(),
		specification.UserOwnedBy{UserID: fx.UserId})
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, routing.RoutingId, decisions[0].Id)
}

func TestRouteConfidenceIsBoostedAverage(t *testing.T) {
	selector := &Selector{config: DefaultConfig()}

	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{"boosted average", []float64{0.5, 0.3}, 0.48},
		{"two domains", []float64{0.42, 0.81}, 0.738},
		{"capped", []float64{0.95, 0.9}, 1.0},
		{"nothing selected", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := make([]entity.DomainScore, len(tt.scores))
			for i, v := range tt.scores {
				scores[i] = entity.DomainScore{DomainId: uuid.New(), RelevanceScore: v}
			}

			selected := SelectScores(scores, Options{MaxDomains: 5, MinScore: 0.3})
			require.Len(t, selected, len(tt.scores))
			for i := 1; i < len(selected); i++ {
				assert.GreaterOrEqual(t, selected[i-1].RelevanceScore, selected[i].RelevanceScore)
			}
			assert.InDelta(t, tt.expected, selector.confidence(selected), 1e-9)
		})
	}
}

func TestRouteWithNoRelevantDomainIsNotAnError(t *testing.T) {
	fx := testutil.NewFixture()
	fx.AddDomain(t, "Cooking", []float32{0, 1})

	selector := NewSelector(fx.Factory, testutil.NewStubEmbedder([]float32{1, 0}), DefaultConfig(), logger.NewNopLogger())
	routing, err := selector.Route(context.Background(), "quantum physics", fx.UserId, DefaultOptions())

	require.NoError(t, err)
	assert.Empty(t, routing.SelectedDomains)
	assert.Zero(t, routing.Confidence)
}

func TestRouteErrors(t *testing.T) {
	fx := testutil.NewFixture()
	ctx := context.Background()

	_, err := NewSelector(fx.Factory, nil, DefaultConfig(), logger.NewNopLogger()).Route(ctx, "q", fx.UserId, DefaultOptions())
	assert.True(t, apperror.IsConfiguration(err))

	_, err = NewSelector(nil, testutil.NewStubEmbedder([]float32{1}), DefaultConfig(), logger.NewNopLogger()).Route(ctx, "q", fx.UserId, DefaultOptions())
	assert.True(t, apperror.IsConfiguration(err))

	selector := NewSelector(fx.Factory, testutil.NewStubEmbedder([]float32{1}), DefaultConfig(), logger.NewNopLogger())
	_, err = selector.Route(ctx, "   ", fx.UserId, DefaultOptions())
	assert.True(t, apperror.IsValidation(err))

	failing := testutil.NewStubEmbedder(nil)
	failing.Err = errors.New("embedding backend down")
	_, err = NewSelector(fx.Factory, failing, DefaultConfig(), logger.NewNopLogger()).Route(ctx, "q", fx.UserId, DefaultOptions())
	assert.Error(t, err)
}
