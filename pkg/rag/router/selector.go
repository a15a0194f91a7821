package router

import (
	"context"
	"sort"
	"strings"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/unitofwork"
	"ai-masterbrain-be/pkg/apperror"
	"ai-masterbrain-be/pkg/embedding"

	"github.com/google/uuid"
)

// Options controls one routing call.
type Options struct {
	MaxDomains int
	MinScore   float64
	// DomainIds restricts selection to these domains. Hinted domains skip
	// the MinScore cut.
	DomainIds []uuid.UUID
}

// Config holds the confidence shaping applied to every routing.
type Config struct {
	ConfidenceBoost float64
	ConfidenceCap   float64
}

func DefaultOptions() Options {
	return Options{
		MaxDomains: 5,
		MinScore:   0.3,
	}
}

func DefaultConfig() Config {
	return Config{
		ConfidenceBoost: 1.2,
		ConfidenceCap:   1.0,
	}
}

// Routing is the outcome of Route.
type Routing struct {
	SelectedDomains []entity.DomainScore
	Confidence      float64
	RoutingId       uuid.UUID
}

// Selector picks the domains most relevant to a query.
type Selector struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	config            Config
	logger            logger.ILogger
	now               func() time.Time
}

func NewSelector(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	config Config,
	log logger.ILogger,
) *Selector {
	return &Selector{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		config:            config,
		logger:            log,
		now:               time.Now,
	}
}

// Route scores the user's domains against query and returns the best ones,
// highest first. An empty selection is a valid result.
func (s *Selector) Route(ctx context.Context, query string, userId uuid.UUID, opts Options) (*Routing, error) {
	if s.embeddingProvider == nil {
		return nil, apperror.Configuration("domain selector has no embedding provider")
	}
	if s.uowFactory == nil {
		return nil, apperror.Configuration("domain selector has no relevance scorer")
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperror.Validation("query must not be empty")
	}
	if opts.MaxDomains <= 0 {
		opts.MaxDomains = DefaultOptions().MaxDomains
	}

	embeddingRes, err := s.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, apperror.Wrap(err, "embed query")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scores, err := uow.DomainRepository().ScoreRelevance(ctx, embeddingRes.Embedding.Values, userId)
	if err != nil {
		return nil, apperror.Wrap(err, "score domain relevance")
	}

	selected := SelectScores(scores, opts)
	routing := &Routing{
		SelectedDomains: selected,
		Confidence:      s.confidence(selected),
		RoutingId:       uuid.New(),
	}

	s.logger.Info("ROUTER", "Domains selected", map[string]interface{}{
		"candidates": len(scores),
		"selected":   len(selected),
		"confidence": routing.Confidence,
	})

	decision := &entity.RoutingDecision{
		Id:              routing.RoutingId,
		UserId:          userId,
		Query:           query,
		SelectedDomains: selected,
		Confidence:      routing.Confidence,
		CreatedAt:       s.now(),
	}
	if err := uow.RoutingDecisionRepository().Create(ctx, decision); err != nil {
		s.logger.Warn("ROUTER", "Failed to persist routing decision", map[string]interface{}{
			"routing_id": routing.RoutingId.String(),
			"error":      err.Error(),
		})
	}

	return routing, nil
}

// SelectScores filters, orders and truncates raw relevance scores.
func SelectScores(scores []entity.DomainScore, opts Options) []entity.DomainScore {
	var hinted map[uuid.UUID]struct{}
	if len(opts.DomainIds) > 0 {
		hinted = make(map[uuid.UUID]struct{}, len(opts.DomainIds))
		for _, id := range opts.DomainIds {
			hinted[id] = struct{}{}
		}
	}

	kept := make([]entity.DomainScore, 0, len(scores))
	for _, score := range scores {
		if hinted != nil {
			if _, ok := hinted[score.DomainId]; !ok {
				continue
			}
		} else if score.RelevanceScore < opts.MinScore {
			continue
		}
		kept = append(kept, score)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].RelevanceScore != kept[j].RelevanceScore {
			return kept[i].RelevanceScore > kept[j].RelevanceScore
		}
		return kept[i].DomainId.String() < kept[j].DomainId.String()
	})

	if opts.MaxDomains > 0 && len(kept) > opts.MaxDomains {
		kept = kept[:opts.MaxDomains]
	}
	return kept
}

func (s *Selector) confidence(selected []entity.DomainScore) float64 {
	if len(selected) == 0 {
		return 0
	}
	var sum float64
	for _, d := range selected {
		sum += d.RelevanceScore
	}
	confidence := sum / float64(len(selected)) * s.config.ConfidenceBoost
	if confidence > s.config.ConfidenceCap {
		confidence = s.config.ConfidenceCap
	}
	return confidence
}
