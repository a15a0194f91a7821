package bootstrap

import (
	"context"
	"fmt"
	"time"

	"ai-masterbrain-be/internal/config"
	"ai-masterbrain-be/internal/controller"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/memory"
	"ai-masterbrain-be/internal/repository/unitofwork"
	"ai-masterbrain-be/internal/service"
	"ai-masterbrain-be/pkg/database"
	"ai-masterbrain-be/pkg/embedding"
	"ai-masterbrain-be/pkg/fanout"
	"ai-masterbrain-be/pkg/llm/factory"
	"ai-masterbrain-be/pkg/metrics"
	pktNats "ai-masterbrain-be/pkg/nats"
	"ai-masterbrain-be/pkg/rag/brain"
	ragcontext "ai-masterbrain-be/pkg/rag/context"
	"ai-masterbrain-be/pkg/rag/rerank"
	"ai-masterbrain-be/pkg/rag/response"
	"ai-masterbrain-be/pkg/rag/router"
	"ai-masterbrain-be/pkg/rag/search"
	"ai-masterbrain-be/pkg/rag/session"
	"ai-masterbrain-be/pkg/rag/state"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	BrainController controller.IBrainController

	// Services, exposed for the CLI and main.go
	BrainService      service.IBrainService
	ConsumerService   service.IConsumerService
	RoutingProjection *service.RoutingProjectionService // nil without NATS

	Metrics *metrics.Collector
	Logger  logger.ILogger
	DB      *gorm.DB // nil for the memory driver

	closers []func()
}

// NewContainer wires the Master Brain from cfg. Optional infrastructure
// (Redis, NATS) that cannot be reached is logged and left out.
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{}
	c.Logger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	llmLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)
	c.Metrics = metrics.NewCollector("masterbrain")

	// 1. Persistence
	uowFactory, err := c.repositoryFactory(cfg)
	if err != nil {
		return nil, err
	}

	// 2. Event buses
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	publisherService := service.NewPublisherService(cfg.App.ContextTopic, pubSub)

	var eventPublisher brain.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, c.Logger)
		if err != nil {
			c.Logger.Warn("BOOTSTRAP", "NATS publisher unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, c.Logger)
		if err != nil {
			c.Logger.Warn("BOOTSTRAP", "NATS subscriber unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			c.RoutingProjection = service.NewRoutingProjectionService(natsSub, uowFactory, c.Logger)
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 3. Providers
	embeddingProvider, err := c.embeddingProvider(cfg)
	if err != nil {
		return nil, err
	}

	llmProvider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Type:      cfg.Ai.LLMProvider,
		ModelName: cfg.Ai.LLMModel,
		BaseURL:   cfg.Ai.OllamaBaseURL,
		APIKey:    llmKey(cfg),
	})
	if err != nil {
		// Routing and retrieval still work; synthesis reports CONFIGURATION.
		c.Logger.Error("BOOTSTRAP", "LLM provider unavailable", map[string]interface{}{"error": err.Error()})
	}
	c.Logger.Info("BOOTSTRAP", "Providers ready", map[string]interface{}{
		"embedding": cfg.Ai.EmbeddingProvider,
		"llm":       cfg.Ai.LLMProvider,
		"model":     cfg.Ai.LLMModel,
	})

	// 4. Pipeline
	retrieverPool, err := fanout.NewPool(cfg.Brain.FanoutPoolSize)
	if err != nil {
		return nil, fmt.Errorf("create retriever pool: %w", err)
	}
	brainPool, err := fanout.NewPool(cfg.Brain.MaxDomains)
	if err != nil {
		retrieverPool.Release()
		return nil, fmt.Errorf("create orchestrator pool: %w", err)
	}
	c.closers = append(c.closers, retrieverPool.Release, brainPool.Release)

	sessions := session.NewStore(uowFactory, publisherService, session.Config{
		ContextLimit:  cfg.Brain.SessionContextLimit,
		UpdateRetries: cfg.Brain.SessionUpdateRetries,
	}, c.Metrics, c.Logger)

	components := brain.Components{
		UowFactory: uowFactory,
		Router: router.NewSelector(uowFactory, embeddingProvider, router.Config{
			ConfidenceBoost: cfg.Brain.ConfidenceBoost,
			ConfidenceCap:   cfg.Brain.ConfidenceCap,
		}, c.Logger),
		Searcher: search.NewRetriever(uowFactory, embeddingProvider, retrieverPool, search.Config{
			KeywordSimilarity: cfg.Brain.KeywordSimilarity,
			KeywordBoostDelta: cfg.Brain.KeywordBoostDelta,
		}, c.Metrics, c.Logger),
		Assembler: ragcontext.NewAssembler(),
		Sessions:  sessions,
		States:    state.NewManager(uowFactory, c.Logger),
		Publisher: eventPublisher,
		Pool:      brainPool,
		Metrics:   c.Metrics,
	}
	components.Synthesizer = response.NewSynthesizer(llmProvider, c.Logger, llmLogger)
	if llmProvider != nil {
		components.Ranker = rerank.NewReranker(llmProvider, c.Metrics, c.Logger)
	}

	orchestrator := brain.NewBrain(components, c.Logger)

	c.BrainService = service.NewBrainService(orchestrator, sessions, brain.OptionsFromConfig(cfg.Brain, cfg.Ai))
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.ContextTopic, uowFactory, embeddingProvider, c.Logger)
	c.BrainController = controller.NewBrainController(c.BrainService)

	return c, nil
}

func (c *Container) repositoryFactory(cfg *config.Config) (unitofwork.RepositoryFactory, error) {
	switch cfg.Database.Driver {
	case "memory":
		c.Logger.Warn("BOOTSTRAP", "Using the in-memory datastore; data is lost on exit", nil)
		return memory.NewRepositoryFactory(memory.NewStore()), nil
	case "postgres", "":
		if cfg.Database.Connection == "" {
			return nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
		}
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.LogLevelFor(cfg.App.Environment))
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		c.DB = db
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, func() { _ = sqlDB.Close() })
		}
		return unitofwork.NewRepositoryFactory(db), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
}

func (c *Container) embeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	var base embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		base = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	case "openai":
		p, err := embedding.NewOpenAIProvider(cfg.Ai.EmbeddingBaseURL, cfg.Keys.OpenAI, cfg.Ai.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		base = p
	case "gemini", "":
		base = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
	default:
		return nil, fmt.Errorf("unsupported EMBEDDING_PROVIDER %q", cfg.Ai.EmbeddingProvider)
	}

	local := embedding.NewCache(cfg.Brain.EmbeddingCacheSize, embedding.PolicyByName(cfg.Brain.EmbeddingCachePolicy))

	return embedding.NewCachedProvider(base, local, c.redisCache(cfg), c.Metrics, c.Logger), nil
}

// redisCache returns nil when Redis is not configured or not reachable.
func (c *Container) redisCache(cfg *config.Config) *embedding.RedisCache {
	if cfg.App.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		c.Logger.Warn("BOOTSTRAP", "Redis unavailable, shared embedding cache disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}

	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return embedding.NewRedisCache(rdb, "", 24*time.Hour)
}

func llmKey(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "anthropic":
		return cfg.Keys.Anthropic
	case "openai":
		return cfg.Keys.OpenAI
	}
	return ""
}

// Close releases pools and connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
