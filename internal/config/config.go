package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Brain    BrainConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LLMLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
	ContextTopic       string // In-process topic for session context embedding
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Connection string
}

type APIKeys struct {
	OpenAI       string
	Anthropic    string
	GoogleGemini string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "openai"
	EmbeddingModel    string
	EmbeddingBaseURL  string // OpenAI-compatible embedding host
	OllamaBaseURL     string
	LLMProvider       string // "ollama", "openai" or "anthropic"
	LLMModel          string
	RerankModel       string
}

// BrainConfig holds the tunable constants of the routing, retrieval and
// synthesis pipeline. Defaults mirror the values the pipeline was tuned with.
type BrainConfig struct {
	MaxDomains      int     `yaml:"max_domains"`
	MinScore        float64 `yaml:"min_score"`
	ConfidenceBoost float64 `yaml:"confidence_boost"`
	ConfidenceCap   float64 `yaml:"confidence_cap"`

	MatchThreshold    float64 `yaml:"match_threshold"`
	MatchCount        int     `yaml:"match_count"`
	KeywordSimilarity float64 `yaml:"keyword_similarity"`
	KeywordBoostDelta float64 `yaml:"keyword_boost_delta"`
	KeywordLimit      int     `yaml:"keyword_limit"`
	ResultLimit       int     `yaml:"result_limit"`

	GatherMatchCount     int     `yaml:"gather_match_count"`
	GatherMatchThreshold float64 `yaml:"gather_match_threshold"`

	RerankEnabled bool          `yaml:"rerank_enabled"`
	RerankTopN    int           `yaml:"rerank_top_n"`
	RerankTimeout time.Duration `yaml:"rerank_timeout"`

	ContextMaxResults int `yaml:"context_max_results"`
	ContextItemBudget int `yaml:"context_item_budget"`

	Temperature      float64       `yaml:"temperature"`
	MaxTokens        int           `yaml:"max_tokens"`
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout"`

	EmbeddingCacheSize   int    `yaml:"embedding_cache_size"`
	EmbeddingCachePolicy string `yaml:"embedding_cache_policy"` // "fifo" or "lru"
	FanoutPoolSize       int    `yaml:"fanout_pool_size"`

	SessionContextLimit  int `yaml:"session_context_limit"`
	SessionUpdateRetries int `yaml:"session_update_retries"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LLMLogFilePath:     getEnv("LLM_LOG_FILE_PATH", "logs/llm_rag.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			ContextTopic:       getEnv("SESSION_CONTEXT_TOPIC_NAME", "BRAIN_SESSION_CONTEXT"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			RerankModel:       getEnv("RERANK_MODEL", ""),
		},
		Brain: loadBrainConfig(),
	}

	if path := getEnv("BRAIN_TUNING_FILE", ""); path != "" {
		if err := ApplyTuningFile(&cfg.Brain, path); err != nil {
			log.Printf("[WARN] Failed to apply tuning file %s: %v", path, err)
		}
	}

	return cfg
}

// DefaultBrainConfig returns the pipeline defaults without consulting the environment.
func DefaultBrainConfig() BrainConfig {
	return BrainConfig{
		MaxDomains:      5,
		MinScore:        0.3,
		ConfidenceBoost: 1.2,
		ConfidenceCap:   1.0,

		MatchThreshold:    0.6,
		MatchCount:        10,
		KeywordSimilarity: 0.5,
		KeywordBoostDelta: 0.1,
		KeywordLimit:      10,
		ResultLimit:       20,

		GatherMatchCount:     5,
		GatherMatchThreshold: 0.6,

		RerankEnabled: true,
		RerankTopN:    20,
		RerankTimeout: 15 * time.Second,

		ContextMaxResults: 5,
		ContextItemBudget: 500,

		Temperature:      0.7,
		MaxTokens:        2000,
		SynthesisTimeout: 60 * time.Second,

		EmbeddingCacheSize:   1000,
		EmbeddingCachePolicy: "fifo",
		FanoutPoolSize:       16,

		SessionContextLimit:  50,
		SessionUpdateRetries: 3,
	}
}

func loadBrainConfig() BrainConfig {
	d := DefaultBrainConfig()

	return BrainConfig{
		MaxDomains:      getEnvAsInt("BRAIN_MAX_DOMAINS", d.MaxDomains),
		MinScore:        getEnvAsFloat("BRAIN_MIN_SCORE", d.MinScore),
		ConfidenceBoost: getEnvAsFloat("BRAIN_CONFIDENCE_BOOST", d.ConfidenceBoost),
		ConfidenceCap:   getEnvAsFloat("BRAIN_CONFIDENCE_CAP", d.ConfidenceCap),

		MatchThreshold:    getEnvAsFloat("BRAIN_MATCH_THRESHOLD", d.MatchThreshold),
		MatchCount:        getEnvAsInt("BRAIN_MATCH_COUNT", d.MatchCount),
		KeywordSimilarity: getEnvAsFloat("BRAIN_KEYWORD_SIMILARITY", d.KeywordSimilarity),
		KeywordBoostDelta: getEnvAsFloat("BRAIN_KEYWORD_BOOST_DELTA", d.KeywordBoostDelta),
		KeywordLimit:      getEnvAsInt("BRAIN_KEYWORD_LIMIT", d.KeywordLimit),
		ResultLimit:       getEnvAsInt("BRAIN_RESULT_LIMIT", d.ResultLimit),

		GatherMatchCount:     getEnvAsInt("BRAIN_GATHER_MATCH_COUNT", d.GatherMatchCount),
		GatherMatchThreshold: getEnvAsFloat("BRAIN_GATHER_MATCH_THRESHOLD", d.GatherMatchThreshold),

		RerankEnabled: getEnvAsBool("BRAIN_RERANK_ENABLED", d.RerankEnabled),
		RerankTopN:    getEnvAsInt("BRAIN_RERANK_TOP_N", d.RerankTopN),
		RerankTimeout: getEnvAsDuration("BRAIN_RERANK_TIMEOUT", d.RerankTimeout),

		ContextMaxResults: getEnvAsInt("BRAIN_CONTEXT_MAX_RESULTS", d.ContextMaxResults),
		ContextItemBudget: getEnvAsInt("BRAIN_CONTEXT_ITEM_BUDGET", d.ContextItemBudget),

		Temperature:      getEnvAsFloat("BRAIN_TEMPERATURE", d.Temperature),
		MaxTokens:        getEnvAsInt("BRAIN_MAX_TOKENS", d.MaxTokens),
		SynthesisTimeout: getEnvAsDuration("BRAIN_SYNTHESIS_TIMEOUT", d.SynthesisTimeout),

		EmbeddingCacheSize:   getEnvAsInt("BRAIN_EMBEDDING_CACHE_SIZE", d.EmbeddingCacheSize),
		EmbeddingCachePolicy: getEnv("BRAIN_EMBEDDING_CACHE_POLICY", d.EmbeddingCachePolicy),
		FanoutPoolSize:       getEnvAsInt("BRAIN_FANOUT_POOL_SIZE", d.FanoutPoolSize),

		SessionContextLimit:  getEnvAsInt("BRAIN_SESSION_CONTEXT_LIMIT", d.SessionContextLimit),
		SessionUpdateRetries: getEnvAsInt("BRAIN_SESSION_UPDATE_RETRIES", d.SessionUpdateRetries),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
