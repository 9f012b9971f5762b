package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var (
	knownLLMProviders  = []string{"ollama", "openrouter", "openai"}
	knownVectorBackend = []string{"localfs", "qdrant", "pgvector"}
)

// Validate reports every out-of-range or unknown option.
func (c Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !oneOf(c.LLMProvider, knownLLMProviders) {
		add("LLM_PROVIDER", "unknown provider %q (want one of %s)", c.LLMProvider, strings.Join(knownLLMProviders, ", "))
	}
	if c.EmbeddingProvider != "" && !oneOf(c.EmbeddingProvider, knownLLMProviders) {
		add("EMBEDDING_PROVIDER", "unknown provider %q", c.EmbeddingProvider)
	}
	if strings.TrimSpace(c.LLMModel) == "" {
		add("LLM_MODEL", "must not be empty")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		add("LLM_TEMPERATURE", "must be within [0, 2], got %g", c.LLMTemperature)
	}
	if c.LLMMaxTokens < 0 {
		add("LLM_MAX_TOKENS", "must not be negative")
	}

	if !oneOf(c.VectorBackend, knownVectorBackend) {
		add("VECTOR_BACKEND", "unknown backend %q (want one of %s)", c.VectorBackend, strings.Join(knownVectorBackend, ", "))
	}
	if strings.EqualFold(c.VectorBackend, "pgvector") && strings.TrimSpace(c.PGVectorDSN) == "" {
		add("PGVECTOR_DSN", "required when VECTOR_BACKEND=pgvector")
	}
	if strings.EqualFold(c.VectorBackend, "qdrant") && strings.TrimSpace(c.QdrantURL) == "" {
		add("QDRANT_URL", "required when VECTOR_BACKEND=qdrant")
	}

	if c.RAGTopK <= 0 {
		add("RAG_TOP_K", "must be positive, got %d", c.RAGTopK)
	}
	if c.RAGTopKFinal <= 0 {
		add("RAG_TOP_K_FINAL", "must be positive, got %d", c.RAGTopKFinal)
	}
	if c.RAGSimilarityThreshold < -1 || c.RAGSimilarityThreshold > 1 {
		add("RAG_SIMILARITY_THRESHOLD", "must be within [-1, 1], got %g", c.RAGSimilarityThreshold)
	}
	if c.RAGContextMaxChars <= 0 {
		add("RAG_CONTEXT_MAX_CHARS", "must be positive, got %d", c.RAGContextMaxChars)
	}
	if c.RAGDescribeSample < 0 {
		add("RAG_DESCRIBE_SAMPLE", "must not be negative")
	}

	if c.APIRateLimitRPS < 0 {
		add("API_RATE_LIMIT_RPS", "must not be negative")
	}
	if c.APIMaxInFlight < 0 {
		add("API_MAX_IN_FLIGHT", "must not be negative")
	}
	return errs
}

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
