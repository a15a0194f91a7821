package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus metrics of the brain pipeline. All record
// methods are safe on a nil *Collector so components can run unobserved.
type Collector struct {
	registry *prometheus.Registry

	Orchestrations  *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	DomainsSelected prometheus.Histogram
	PartialFailures *prometheus.CounterVec
	RerankFallbacks *prometheus.CounterVec
	EmbeddingCache  *prometheus.CounterVec
	SessionConflict prometheus.Counter
	TokensUsed      prometheus.Counter
}

// NewCollector creates a collector registered on its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Orchestrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orchestrations_total",
				Help:      "Total number of orchestrated queries by outcome",
			},
			[]string{"outcome"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each orchestration stage in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		DomainsSelected: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "domains_selected",
				Help:      "Number of domains selected per query",
				Buckets:   []float64{0, 1, 2, 3, 4, 5, 8},
			},
		),
		PartialFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "partial_failures_total",
				Help:      "Total number of tolerated sub-operation failures",
			},
			[]string{"component"},
		),
		RerankFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rerank_fallbacks_total",
				Help:      "Total number of reranks that fell back to similarity order",
			},
			[]string{"reason"},
		),
		EmbeddingCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_cache_lookups_total",
				Help:      "Embedding cache lookups by layer and result",
			},
			[]string{"layer", "result"},
		),
		SessionConflict: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_update_conflicts_total",
				Help:      "Total number of optimistic session update conflicts",
			},
		),
		TokensUsed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "synthesis_tokens_total",
				Help:      "Total number of tokens used by answer synthesis",
			},
		),
	}

	registry.MustRegister(
		c.Orchestrations,
		c.StageDuration,
		c.DomainsSelected,
		c.PartialFailures,
		c.RerankFallbacks,
		c.EmbeddingCache,
		c.SessionConflict,
		c.TokensUsed,
	)

	return c
}

// Registry exposes the underlying registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) RecordOrchestration(outcome string) {
	if c == nil {
		return
	}
	c.Orchestrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (c *Collector) RecordDomainsSelected(n int) {
	if c == nil {
		return
	}
	c.DomainsSelected.Observe(float64(n))
}

func (c *Collector) RecordPartialFailure(component string) {
	if c == nil {
		return
	}
	c.PartialFailures.WithLabelValues(component).Inc()
}

func (c *Collector) RecordRerankFallback(reason string) {
	if c == nil {
		return
	}
	c.RerankFallbacks.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordCacheLookup(layer string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.EmbeddingCache.WithLabelValues(layer, result).Inc()
}

func (c *Collector) RecordSessionConflict() {
	if c == nil {
		return
	}
	c.SessionConflict.Inc()
}

func (c *Collector) RecordTokens(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.TokensUsed.Add(float64(n))
}
