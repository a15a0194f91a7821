package search

import (
	"context"
	"sort"
	"strings"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/mapper"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/contract"
	"ai-masterbrain-be/internal/repository/unitofwork"
	"ai-masterbrain-be/pkg/apperror"
	"ai-masterbrain-be/pkg/embedding"
	"ai-masterbrain-be/pkg/fanout"
	"ai-masterbrain-be/pkg/metrics"

	"github.com/google/uuid"
)

// Branch names the half of a hybrid search that failed.
type Branch string

const (
	BranchVector  Branch = "vector"
	BranchKeyword Branch = "keyword"
)

// BranchFailure records one tolerated failure. The search carries on
// without that branch's results.
type BranchFailure struct {
	DomainId uuid.UUID `json:"domain_id"`
	Branch   Branch    `json:"branch"`
	Reason   string    `json:"reason"`
}

// Options controls one search call.
type Options struct {
	MatchThreshold float64
	MatchCount     int // Vector hits per domain
	KeywordBoost   bool
	KeywordLimit   int // Keyword hits per domain
	Limit          int // Final result size
}

// Config holds the fixed scoring constants of the keyword branch.
type Config struct {
	KeywordSimilarity float64
	KeywordBoostDelta float64
}

func DefaultOptions() Options {
	return Options{
		MatchThreshold: 0.6,
		MatchCount:     10,
		KeywordBoost:   true,
		KeywordLimit:   10,
		Limit:          20,
	}
}

func DefaultConfig() Config {
	return Config{
		KeywordSimilarity: 0.5,
		KeywordBoostDelta: 0.1,
	}
}

// Result is the merged, ranked evidence of a search.
type Result struct {
	Candidates []entity.CandidateResult
	Failures   []BranchFailure
}

// Retriever runs vector and keyword searches over several domains at once.
type Retriever struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	pool              *fanout.Pool
	config            Config
	mapper            *mapper.BrainMapper
	metrics           *metrics.Collector
	logger            logger.ILogger
}

func NewRetriever(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	pool *fanout.Pool,
	config Config,
	collector *metrics.Collector,
	log logger.ILogger,
) *Retriever {
	return &Retriever{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		pool:              pool,
		config:            config,
		mapper:            mapper.NewBrainMapper(),
		metrics:           collector,
		logger:            log,
	}
}

type domainHits struct {
	vector  []entity.CandidateResult
	keyword []entity.CandidateResult
}

// Search returns the best candidates across domainIds. Branch failures are
// reported in Result.Failures and never abort the search.
func (r *Retriever) Search(ctx context.Context, query string, domainIds []uuid.UUID, userId uuid.UUID, opts Options) (*Result, error) {
	if r.uowFactory == nil || r.pool == nil {
		return nil, apperror.Configuration("retriever has no knowledge store")
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperror.Validation("query must not be empty")
	}
	if len(domainIds) == 0 {
		return &Result{Candidates: []entity.CandidateResult{}}, nil
	}

	var (
		vector   []float32
		embedErr error
	)
	if r.embeddingProvider == nil {
		embedErr = apperror.Configuration("retriever has no embedding provider")
	} else if res, err := r.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery); err != nil {
		embedErr = err
	} else {
		vector = res.Embedding.Values
	}
	if embedErr != nil {
		r.logger.Warn("SEARCH", "Query embedding failed, continuing with keyword search only", map[string]interface{}{
			"error": embedErr.Error(),
		})
	}

	n := len(domainIds)
	hits := make([]domainHits, n)
	vectorFailures := make([]*BranchFailure, n)
	keywordFailures := make([]*BranchFailure, n)

	// Slots [0,n) run the vector branch of each domain, [n,2n) the keyword
	// branch, so both searches of one domain overlap.
	slots := n
	if opts.KeywordBoost {
		slots = 2 * n
	}
	err := r.pool.Each(slots, func(slot int) {
		i := slot % n
		domainId := domainIds[i]

		if slot < n {
			if embedErr != nil {
				vectorFailures[i] = &BranchFailure{DomainId: domainId, Branch: BranchVector, Reason: embedErr.Error()}
				return
			}
			found, err := r.searchVector(ctx, r.uowFactory.NewUnitOfWork(ctx).KnowledgeRepository(), vector, domainId, userId, opts)
			if err != nil {
				vectorFailures[i] = &BranchFailure{DomainId: domainId, Branch: BranchVector, Reason: err.Error()}
				return
			}
			hits[i].vector = found
			return
		}

		found, err := r.searchKeyword(ctx, r.uowFactory.NewUnitOfWork(ctx).KnowledgeRepository(), query, domainId, userId, opts)
		if err != nil {
			keywordFailures[i] = &BranchFailure{DomainId: domainId, Branch: BranchKeyword, Reason: err.Error()}
			return
		}
		hits[i].keyword = found
	})
	if err != nil {
		return nil, apperror.Internal("dispatch domain searches", err)
	}

	result := &Result{Candidates: []entity.CandidateResult{}}
	for i := range domainIds {
		result.Candidates = append(result.Candidates, Merge(hits[i].vector, hits[i].keyword, r.config.KeywordBoostDelta)...)
		for _, f := range []*BranchFailure{vectorFailures[i], keywordFailures[i]} {
			if f == nil {
				continue
			}
			r.logger.Warn("SEARCH", "Search branch failed", map[string]interface{}{
				"domain_id": f.DomainId.String(),
				"branch":    string(f.Branch),
				"error":     f.Reason,
			})
			r.metrics.RecordPartialFailure("search_" + string(f.Branch))
			result.Failures = append(result.Failures, *f)
		}
	}

	SortCandidates(result.Candidates)
	if opts.Limit > 0 && len(result.Candidates) > opts.Limit {
		result.Candidates = result.Candidates[:opts.Limit]
	}

	r.logger.Debug("SEARCH", "Hybrid search finished", map[string]interface{}{
		"domains":    len(domainIds),
		"candidates": len(result.Candidates),
		"failures":   len(result.Failures),
	})

	return result, nil
}

func (r *Retriever) searchVector(ctx context.Context, repo contract.KnowledgeRepository, vector []float32, domainId, userId uuid.UUID, opts Options) ([]entity.CandidateResult, error) {
	scored, err := repo.SearchSimilarWithScore(ctx, vector, contract.KnowledgeSearch{
		DomainId:  domainId,
		UserId:    userId,
		Threshold: opts.MatchThreshold,
		Limit:     opts.MatchCount,
	})
	if err != nil {
		return nil, err
	}

	out := make([]entity.CandidateResult, 0, len(scored))
	for _, s := range scored {
		out = append(out, r.mapper.KnowledgeToCandidate(s.Knowledge, s.Similarity, entity.SourceVector))
	}
	return out, nil
}

func (r *Retriever) searchKeyword(ctx context.Context, repo contract.KnowledgeRepository, query string, domainId, userId uuid.UUID, opts Options) ([]entity.CandidateResult, error) {
	found, err := repo.SearchKeyword(ctx, query, domainId, userId, opts.KeywordLimit)
	if err != nil {
		return nil, err
	}

	out := make([]entity.CandidateResult, 0, len(found))
	for _, k := range found {
		out = append(out, r.mapper.KnowledgeToCandidate(k, r.config.KeywordSimilarity, entity.SourceKeyword))
	}
	return out, nil
}

// Merge combines the two branches of one domain. An id found by both gets
// max(vector, keyword) + boostDelta once; every id appears exactly once.
func Merge(vector, keyword []entity.CandidateResult, boostDelta float64) []entity.CandidateResult {
	merged := make([]entity.CandidateResult, 0, len(vector)+len(keyword))
	index := make(map[uuid.UUID]int, len(vector)+len(keyword))
	boosted := make(map[uuid.UUID]bool)

	for _, c := range vector {
		if _, seen := index[c.KnowledgeId]; seen {
			continue
		}
		index[c.KnowledgeId] = len(merged)
		merged = append(merged, c)
	}

	for _, c := range keyword {
		pos, seen := index[c.KnowledgeId]
		if !seen {
			index[c.KnowledgeId] = len(merged)
			merged = append(merged, c)
			continue
		}
		if boosted[c.KnowledgeId] || merged[pos].SourceKind != entity.SourceVector {
			continue
		}
		best := merged[pos].Similarity
		if c.Similarity > best {
			best = c.Similarity
		}
		merged[pos].Similarity = best + boostDelta
		boosted[c.KnowledgeId] = true
	}

	return merged
}

// SortCandidates orders by similarity desc, vector before keyword on ties,
// then by knowledge id.
func SortCandidates(candidates []entity.CandidateResult) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.SourceKind != b.SourceKind {
			return a.SourceKind == entity.SourceVector
		}
		return a.KnowledgeId.String() < b.KnowledgeId.String()
	})
}
