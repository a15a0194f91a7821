package mapper

import (
	"testing"
	"time"

	"ai-masterbrain-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionMappingKeepsJSONColumns(t *testing.T) {
	m := NewBrainMapper()
	domainId := uuid.New()
	rating := 4
	now := time.Now().UTC().Truncate(time.Millisecond)

	session := &entity.MasterSession{
		Id:          uuid.New(),
		UserId:      uuid.New(),
		Name:        "Quarterly planning",
		SessionType: entity.SessionTypeConversation,
		DomainIds:   []uuid.UUID{domainId},
		ConversationHistory: []entity.ConversationEntry{
			{Role: "user", Content: "what matters?", Timestamp: now},
			{Role: "assistant", Content: "focus", Timestamp: now.Add(time.Millisecond)},
		},
		AccumulatedKnowledge: map[uuid.UUID]*entity.DomainUsage{
			domainId: {DomainName: "Strategy", KnowledgeCount: 3, Queries: []entity.QueryMark{{Query: "what matters?", Timestamp: now}}},
		},
		TotalQueries: 1,
		Status:       entity.SessionStatusActive,
		Rating:       &rating,
		Version:      2,
	}

	back := m.SessionToEntity(m.SessionToModel(session))

	require.NotNil(t, back)
	assert.Equal(t, session.DomainIds, back.DomainIds)
	require.Len(t, back.ConversationHistory, 2)
	assert.True(t, back.ConversationHistory[0].Timestamp.Equal(now))
	require.Contains(t, back.AccumulatedKnowledge, domainId)
	assert.Equal(t, 3, back.AccumulatedKnowledge[domainId].KnowledgeCount)
	assert.Equal(t, entity.SessionStatusActive, back.Status)
	assert.Equal(t, 2, back.Version)
}

func TestNilVectorsMapToNil(t *testing.T) {
	m := NewBrainMapper()

	model := m.DomainToModel(&entity.Domain{Id: uuid.New(), Name: "No profile"})
	assert.Nil(t, model.EmbeddingProfile)
	assert.Nil(t, m.DomainToEntity(model).EmbeddingProfile)

	model = m.DomainToModel(&entity.Domain{Id: uuid.New(), EmbeddingProfile: []float32{0.1, 0.2}})
	require.NotNil(t, model.EmbeddingProfile)
	assert.Equal(t, []float32{0.1, 0.2}, m.DomainToEntity(model).EmbeddingProfile)
}

func TestCoreLogicMapping(t *testing.T) {
	m := NewBrainMapper()
	logic := &entity.CoreLogic{
		Id:              uuid.New(),
		Version:         3,
		FirstPrinciples: []string{"compounding"},
		DecisionRules:   []string{"ship weekly", "measure"},
		IsActive:        true,
	}

	back := m.CoreLogicToEntity(m.CoreLogicToModel(logic))

	assert.Equal(t, logic.FirstPrinciples, back.FirstPrinciples)
	assert.Equal(t, logic.DecisionRules, back.DecisionRules)
	assert.Empty(t, back.MentalModels)
	assert.Equal(t, 3, back.Version)
}
