package embedding

import (
	"context"

	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/pkg/metrics"
)

// CachedProvider layers the local Cache, an optional RedisCache and the
// underlying provider. Only successful embeddings are cached.
type CachedProvider struct {
	provider EmbeddingProvider
	local    *Cache
	shared   *RedisCache
	metrics  *metrics.Collector
	logger   logger.ILogger
}

func NewCachedProvider(provider EmbeddingProvider, local *Cache, shared *RedisCache, collector *metrics.Collector, log logger.ILogger) *CachedProvider {
	if local == nil {
		local = NewCache(0, nil)
	}
	return &CachedProvider{
		provider: provider,
		local:    local,
		shared:   shared,
		metrics:  collector,
		logger:   log,
	}
}

func cacheKey(text, taskType string) string {
	return taskType + "\x00" + text
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := cacheKey(text, taskType)

	if values, ok := p.local.Get(key); ok {
		p.metrics.RecordCacheLookup("local", true)
		return NewResponse(values), nil
	}
	p.metrics.RecordCacheLookup("local", false)

	if p.shared != nil {
		values, ok, err := p.shared.Get(ctx, key)
		switch {
		case err != nil:
			p.logger.Warn("EMBEDDING", "Shared cache read failed", map[string]interface{}{"error": err.Error()})
		case ok:
			p.metrics.RecordCacheLookup("redis", true)
			p.local.Put(key, values)
			return NewResponse(values), nil
		default:
			p.metrics.RecordCacheLookup("redis", false)
		}
	}

	resp, err := p.provider.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	values := resp.Embedding.Values
	p.local.Put(key, values)
	if p.shared != nil {
		if err := p.shared.Set(ctx, key, values); err != nil {
			p.logger.Warn("EMBEDDING", "Shared cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return NewResponse(append([]float32(nil), values...)), nil
}
