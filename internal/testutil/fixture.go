package testutil

import (
	"context"
	"testing"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/repository/memory"
	"ai-masterbrain-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Fixture seeds an in-memory datastore for one user.
type Fixture struct {
	Store   *memory.Store
	Factory unitofwork.RepositoryFactory
	UserId  uuid.UUID
}

func NewFixture() *Fixture {
	store := memory.NewStore()
	return &Fixture{
		Store:   store,
		Factory: memory.NewRepositoryFactory(store),
		UserId:  uuid.New(),
	}
}

func (f *Fixture) AddDomain(t *testing.T, name string, profile []float32) *entity.Domain {
	t.Helper()
	domain := &entity.Domain{
		Id:               uuid.New(),
		UserId:           f.UserId,
		Name:             name,
		Description:      name + " knowledge",
		EmbeddingProfile: profile,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, memory.NewDomainRepository(f.Store).Create(context.Background(), domain))
	return domain
}

func (f *Fixture) AddKnowledge(t *testing.T, domainId uuid.UUID, title, content string, emb []float32) *entity.Knowledge {
	t.Helper()
	knowledge := &entity.Knowledge{
		Id:        uuid.New(),
		DomainId:  domainId,
		UserId:    f.UserId,
		Title:     title,
		Content:   content,
		Embedding: emb,
		CreatedAt: time.Now(),
	}
	require.NoError(t, memory.NewKnowledgeRepository(f.Store).Create(context.Background(), knowledge))
	return knowledge
}

func (f *Fixture) AddCoreLogic(t *testing.T, domainId uuid.UUID, principles ...string) *entity.CoreLogic {
	t.Helper()
	logic := &entity.CoreLogic{
		Id:              uuid.New(),
		DomainId:        domainId,
		UserId:          f.UserId,
		Version:         1,
		FirstPrinciples: principles,
		IsActive:        true,
		LastDistilledAt: time.Now(),
	}
	require.NoError(t, memory.NewCoreLogicRepository(f.Store).Create(context.Background(), logic))
	return logic
}
