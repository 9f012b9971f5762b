package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/resilience"
)

type Config struct {
	APIPort  string
	LogLevel string

	LLMProvider    string
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int

	EmbeddingProvider string
	EmbeddingModel    string

	OllamaURL         string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string

	VectorBackend      string
	VectorStoreBaseDir string
	VectorStoreDirs    []string
	VectorStoreDir     string
	QdrantURL          string
	PGVectorDSN        string

	RAGTopK                int
	RAGTopKFinal           int
	RAGSimilarityThreshold float64
	RAGUseRerank           bool
	RAGContextMaxChars     int
	RAGDescribeSample      int
	RAGParallelRetrieval   bool

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int

	OpenAICompatAPIKey           string
	OpenAICompatModelID          string
	OpenAICompatStreamChunkChars int

	RetryMaxAttempts      int
	RetryInitialBackoffMS int
	RetryMaxBackoffMS     int
	BreakerEnabled        bool
	BreakerOpenTimeoutSec int

	WorkerMetricsPort string

	ConfigFile string
}

// Load reads .env (when present), the optional CONFIG_FILE overlay and the
// environment. Environment variables win over the file, the file over defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_FILE")
	file, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		LLMProvider:    mustEnv("LLM_PROVIDER", file.llmProvider("ollama")),
		LLMModel:       mustEnv("LLM_MODEL", file.llmModel("llama3.1:8b")),
		LLMTemperature: mustEnvFloat("LLM_TEMPERATURE", file.llmTemperature(0.2)),
		LLMMaxTokens:   mustEnvInt("LLM_MAX_TOKENS", file.llmMaxTokens(512)),

		EmbeddingProvider: mustEnv("EMBEDDING_PROVIDER", file.embeddingProvider("")),
		EmbeddingModel:    mustEnv("EMBEDDING_MODEL", file.embeddingModel("nomic-embed-text")),

		OllamaURL:         mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OpenRouterAPIKey:  mustEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: mustEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),

		VectorBackend:      mustEnv("VECTOR_BACKEND", file.vectorBackend("localfs")),
		VectorStoreBaseDir: mustEnv("VECTOR_STORE_BASE_DIR", file.vectorBaseDir("vector_store")),
		VectorStoreDirs:    mustEnvList("VECTOR_STORE_DIRS", file.vectorDirs()),
		VectorStoreDir:     mustEnv("VECTOR_STORE_DIR", file.vectorDir("vector_store/divorce")),
		QdrantURL:          mustEnv("QDRANT_URL", "http://localhost:6333"),
		PGVectorDSN:        mustEnv("PGVECTOR_DSN", ""),

		RAGTopK:                mustEnvInt("RAG_TOP_K", file.topK(domain.DefaultTopK)),
		RAGTopKFinal:           mustEnvInt("RAG_TOP_K_FINAL", file.topKFinal(domain.DefaultTopKFinal)),
		RAGSimilarityThreshold: mustEnvFloat("RAG_SIMILARITY_THRESHOLD", file.similarityThreshold(domain.DefaultSimilarityThreshold)),
		RAGUseRerank:           mustEnvBool("RAG_USE_RERANK", file.useRerank(false)),
		RAGContextMaxChars:     mustEnvInt("RAG_CONTEXT_MAX_CHARS", file.contextMaxChars(domain.DefaultContextMaxChars)),
		RAGDescribeSample:      mustEnvInt("RAG_DESCRIBE_SAMPLE", file.describeSample(domain.DefaultDescribeSampleSize)),
		RAGParallelRetrieval:   mustEnvBool("RAG_PARALLEL_RETRIEVAL", file.parallelRetrieval(false)),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "legal.query.answered"),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 5),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 4),

		OpenAICompatAPIKey:           mustEnv("OPENAI_COMPAT_API_KEY", ""),
		OpenAICompatModelID:          mustEnv("OPENAI_COMPAT_MODEL_ID", "legal-rag-v1"),
		OpenAICompatStreamChunkChars: mustEnvInt("OPENAI_COMPAT_STREAM_CHUNK_CHARS", 120),

		RetryMaxAttempts:      mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 3),
		RetryInitialBackoffMS: mustEnvInt("RESILIENCE_RETRY_INITIAL_BACKOFF_MS", 200),
		RetryMaxBackoffMS:     mustEnvInt("RESILIENCE_RETRY_MAX_BACKOFF_MS", 2000),
		BreakerEnabled:        mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),
		BreakerOpenTimeoutSec: mustEnvInt("RESILIENCE_BREAKER_OPEN_TIMEOUT_SECONDS", 30),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),

		ConfigFile: path,
	}
	return cfg, nil
}

// Collections resolves collection locations: an explicit list first, then
// the subdirectories of the base directory, then the single directory.
func (c Config) Collections() []string {
	if len(c.VectorStoreDirs) > 0 {
		return append([]string(nil), c.VectorStoreDirs...)
	}
	if dirs := discoverCollections(c.VectorStoreBaseDir); len(dirs) > 0 {
		return dirs
	}
	if strings.TrimSpace(c.VectorStoreDir) != "" {
		return []string{c.VectorStoreDir}
	}
	return nil
}

// PipelineSettings is the snapshot handed to the query pipeline.
func (c Config) PipelineSettings() domain.PipelineSettings {
	return domain.PipelineSettings{
		TopK:                c.RAGTopK,
		TopKFinal:           c.RAGTopKFinal,
		SimilarityThreshold: c.RAGSimilarityThreshold,
		UseRerank:           c.RAGUseRerank,
		ContextMaxChars:     c.RAGContextMaxChars,
		DescribeSampleSize:  c.RAGDescribeSample,
		ParallelRetrieval:   c.RAGParallelRetrieval,
		LLMProvider:         c.LLMProvider,
		LLMModel:            c.LLMModel,
		LLMTemperature:      c.LLMTemperature,
		EmbeddingProvider:   c.embeddingProvider(),
		EmbeddingModel:      c.EmbeddingModel,
		VectorBackend:       c.VectorBackend,
		Collections:         c.Collections(),
	}.WithDefaults()
}

func (c Config) Resilience() resilience.Config {
	cfg := resilience.DefaultConfig()
	cfg.RetryMaxAttempts = c.RetryMaxAttempts
	cfg.RetryInitialBackoff = time.Duration(c.RetryInitialBackoffMS) * time.Millisecond
	cfg.RetryMaxBackoff = time.Duration(c.RetryMaxBackoffMS) * time.Millisecond
	cfg.BreakerEnabled = c.BreakerEnabled
	cfg.BreakerOpenTimeout = time.Duration(c.BreakerOpenTimeoutSec) * time.Second
	return cfg
}

func (c Config) embeddingProvider() string {
	if strings.TrimSpace(c.EmbeddingProvider) == "" {
		return c.LLMProvider
	}
	return c.EmbeddingProvider
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
