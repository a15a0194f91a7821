package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/contract"
	"ai-masterbrain-be/internal/repository/unitofwork"
	"ai-masterbrain-be/internal/testutil"
	"ai-masterbrain-be/pkg/fanout"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenKnowledge struct {
	contract.KnowledgeRepository
	domainId uuid.UUID
}

func (b brokenKnowledge) SearchSimilarWithScore(ctx context.Context, emb []float32, filter contract.KnowledgeSearch) ([]*contract.ScoredKnowledge, error) {
	if filter.DomainId == b.domainId {
		return nil, errors.New("index unavailable")
	}
	return b.KnowledgeRepository.SearchSimilarWithScore(ctx, emb, filter)
}

type brokenUoW struct {
	unitofwork.UnitOfWork
	domainId uuid.UUID
}

func (u brokenUoW) KnowledgeRepository() contract.KnowledgeRepository {
	return brokenKnowledge{KnowledgeRepository: u.UnitOfWork.KnowledgeRepository(), domainId: u.domainId}
}

type brokenFactory struct {
	unitofwork.RepositoryFactory
	domainId uuid.UUID
}

func (f brokenFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return brokenUoW{UnitOfWork: f.RepositoryFactory.NewUnitOfWork(ctx), domainId: f.domainId}
}

// overlapKnowledge makes the vector search wait until the keyword search of
// the same call has started.
type overlapKnowledge struct {
	contract.KnowledgeRepository
	keywordStarted chan struct{}
	once           *sync.Once
}

func (o overlapKnowledge) SearchSimilarWithScore(ctx context.Context, emb []float32, filter contract.KnowledgeSearch) ([]*contract.ScoredKnowledge, error) {
	select {
	case <-o.keywordStarted:
		return o.KnowledgeRepository.SearchSimilarWithScore(ctx, emb, filter)
	case <-time.After(2 * time.Second):
		return nil, errors.New("keyword search never ran alongside")
	}
}

func (o overlapKnowledge) SearchKeyword(ctx context.Context, keyword string, domainId, userId uuid.UUID, limit int) ([]*entity.Knowledge, error) {
	o.once.Do(func() { close(o.keywordStarted) })
	return o.KnowledgeRepository.SearchKeyword(ctx, keyword, domainId, userId, limit)
}

type overlapUoW struct {
	unitofwork.UnitOfWork
	repo overlapKnowledge
}

func (u overlapUoW) KnowledgeRepository() contract.KnowledgeRepository {
	u.repo.KnowledgeRepository = u.UnitOfWork.KnowledgeRepository()
	return u.repo
}

type overlapFactory struct {
	unitofwork.RepositoryFactory
	repo overlapKnowledge
}

func (f overlapFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return overlapUoW{UnitOfWork: f.RepositoryFactory.NewUnitOfWork(ctx), repo: f.repo}
}

func newRetriever(t *testing.T, factory unitofwork.RepositoryFactory, embedder *testutil.StubEmbedder) *Retriever {
	t.Helper()
	pool, err := fanout.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return NewRetriever(factory, embedder, pool, DefaultConfig(), nil, logger.NewNopLogger())
}

func TestMerge(t *testing.T) {
	shared, vectorOnly, keywordOnly := uuid.New(), uuid.New(), uuid.New()
	vector := []entity.CandidateResult{
		{KnowledgeId: shared, Similarity: 0.8, SourceKind: entity.SourceVector},
		{KnowledgeId: vectorOnly, Similarity: 0.7, SourceKind: entity.SourceVector},
	}
	keyword := []entity.CandidateResult{
		{KnowledgeId: shared, Similarity: 0.5, SourceKind: entity.SourceKeyword},
		{KnowledgeId: shared, Similarity: 0.5, SourceKind: entity.SourceKeyword},
		{KnowledgeId: keywordOnly, Similarity: 0.5, SourceKind: entity.SourceKeyword},
	}

	merged := Merge(vector, keyword, 0.1)

	require.Len(t, merged, 3)
	assert.Equal(t, shared, merged[0].KnowledgeId)
	assert.InDelta(t, 0.9, merged[0].Similarity, 1e-9, "boost applies once")
	assert.InDelta(t, 0.7, merged[1].Similarity, 1e-9)
	assert.Equal(t, entity.SourceKeyword, merged[2].SourceKind)
}

func TestSortCandidatesTieBreaks(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	candidates := []entity.CandidateResult{
		{KnowledgeId: a, Similarity: 0.5, SourceKind: entity.SourceKeyword},
		{KnowledgeId: b, Similarity: 0.5, SourceKind: entity.SourceVector},
		{KnowledgeId: b, Similarity: 0.9, SourceKind: entity.SourceKeyword},
	}

	SortCandidates(candidates)

	assert.InDelta(t, 0.9, candidates[0].Similarity, 1e-9)
	assert.Equal(t, entity.SourceVector, candidates[1].SourceKind)
	assert.Equal(t, entity.SourceKeyword, candidates[2].SourceKind)
}

func TestSearchAcrossDomains(t *testing.T) {
	fx := testutil.NewFixture()
	golang := fx.AddDomain(t, "Go", []float32{1, 0})
	rust := fx.AddDomain(t, "Rust", []float32{0, 1})
	goroutines := fx.AddKnowledge(t, golang.Id, "Goroutines", "goroutines are cheap", []float32{1, 0})
	fx.AddKnowledge(t, golang.Id, "Modules", "go.mod files", []float32{0.2, 1})
	ownership := fx.AddKnowledge(t, rust.Id, "Ownership", "borrow checker and goroutines comparison", []float32{0, 1})

	retriever := newRetriever(t, fx.Factory, testutil.NewStubEmbedder([]float32{1, 0}))

	result, err := retriever.Search(context.Background(), "goroutines", []uuid.UUID{golang.Id, rust.Id}, fx.UserId, DefaultOptions())

	require.NoError(t, err)
	assert.Empty(t, result.Failures)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, goroutines.Id, result.Candidates[0].KnowledgeId)
	assert.InDelta(t, 1.1, result.Candidates[0].Similarity, 1e-6, "vector hit boosted by keyword match")
	assert.Equal(t, ownership.Id, result.Candidates[1].KnowledgeId)
	assert.Equal(t, rust.Id, result.Candidates[1].DomainId)
	assert.InDelta(t, 0.5, result.Candidates[1].Similarity, 1e-9)
}

func TestSearchRunsBranchesOfADomainConcurrently(t *testing.T) {
	fx := testutil.NewFixture()
	domain := fx.AddDomain(t, "Go", []float32{1, 0})
	hit := fx.AddKnowledge(t, domain.Id, "Goroutines", "goroutines are cheap", []float32{1, 0})

	factory := overlapFactory{
		RepositoryFactory: fx.Factory,
		repo:              overlapKnowledge{keywordStarted: make(chan struct{}), once: &sync.Once{}},
	}
	retriever := newRetriever(t, factory, testutil.NewStubEmbedder([]float32{1, 0}))

	result, err := retriever.Search(context.Background(), "goroutines", []uuid.UUID{domain.Id}, fx.UserId, DefaultOptions())

	require.NoError(t, err)
	assert.Empty(t, result.Failures)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, hit.Id, result.Candidates[0].KnowledgeId)
	assert.InDelta(t, 1.1, result.Candidates[0].Similarity, 1e-6)
}

func TestSearchToleratesBranchFailure(t *testing.T) {
	fx := testutil.NewFixture()
	healthy := fx.AddDomain(t, "Healthy", []float32{1, 0})
	broken := fx.AddDomain(t, "Broken", []float32{1, 0})
	fx.AddKnowledge(t, healthy.Id, "Alpha", "alpha", []float32{1, 0})
	keywordHit := fx.AddKnowledge(t, broken.Id, "Beta", "mentions alpha", []float32{1, 0})

	retriever := newRetriever(t, brokenFactory{RepositoryFactory: fx.Factory, domainId: broken.Id}, testutil.NewStubEmbedder([]float32{1, 0}))

	result, err := retriever.Search(context.Background(), "alpha", []uuid.UUID{healthy.Id, broken.Id}, fx.UserId, DefaultOptions())

	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, broken.Id, result.Failures[0].DomainId)
	assert.Equal(t, BranchVector, result.Failures[0].Branch)

	ids := make([]uuid.UUID, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		ids = append(ids, c.KnowledgeId)
	}
	assert.Contains(t, ids, keywordHit.Id, "keyword branch of the broken domain still contributes")
}

func TestSearchKeepsKeywordResultsWhenEmbeddingFails(t *testing.T) {
	fx := testutil.NewFixture()
	domain := fx.AddDomain(t, "Go", []float32{1, 0})
	fx.AddKnowledge(t, domain.Id, "Channels", "channels connect goroutines", []float32{1, 0})

	embedder := testutil.NewStubEmbedder(nil)
	retriever := newRetriever(t, fx.Factory, embedder)

	result, err := retriever.Search(context.Background(), "channels", []uuid.UUID{domain.Id}, fx.UserId, DefaultOptions())

	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, BranchVector, result.Failures[0].Branch)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, entity.SourceKeyword, result.Candidates[0].SourceKind)
}

func TestSearchRespectsLimitAndKeywordToggle(t *testing.T) {
	fx := testutil.NewFixture()
	domain := fx.AddDomain(t, "Go", []float32{1, 0})
	for _, title := range []string{"one", "two", "three"} {
		fx.AddKnowledge(t, domain.Id, title, "go "+title, []float32{1, 0})
	}

	retriever := newRetriever(t, fx.Factory, testutil.NewStubEmbedder([]float32{1, 0}))
	opts := DefaultOptions()
	opts.Limit = 2
	opts.KeywordBoost = false

	result, err := retriever.Search(context.Background(), "go", []uuid.UUID{domain.Id}, fx.UserId, opts)

	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)
	for _, c := range result.Candidates {
		assert.Equal(t, entity.SourceVector, c.SourceKind)
		assert.InDelta(t, 1.0, c.Similarity, 1e-6)
	}
}
