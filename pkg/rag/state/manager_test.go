package state

import (
	"context"
	"testing"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/memory"
	"ai-masterbrain-be/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionOverwritesStepAndKeepsUntouchedBlobs(t *testing.T) {
	fx := testutil.NewFixture()
	manager := NewManager(fx.Factory, logger.NewNopLogger())
	ctx := context.Background()
	sessionId := uuid.New()

	manager.Transition(ctx, sessionId, fx.UserId, entity.StepGathering, Update{
		Gathered: map[string]interface{}{"domains": 2},
	})
	manager.Transition(ctx, sessionId, fx.UserId, entity.StepComplete, Update{
		Synthesis: map[string]interface{}{"tokens": 10},
	})

	got, err := memory.NewOrchestrationStateRepository(fx.Store).FindBySession(ctx, sessionId, fx.UserId)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.StepComplete, got.CurrentStep)
	assert.Equal(t, 2, got.GatheredContext["domains"])
	assert.Equal(t, 10, got.SynthesisData["tokens"])
}

func TestTransitionWithoutSessionIsNoop(t *testing.T) {
	fx := testutil.NewFixture()
	NewManager(fx.Factory, logger.NewNopLogger()).Transition(context.Background(), uuid.Nil, fx.UserId, entity.StepRouting, Update{})

	var nilManager *Manager
	assert.NotPanics(t, func() {
		nilManager.Transition(context.Background(), uuid.New(), fx.UserId, entity.StepRouting, Update{})
	})
}
