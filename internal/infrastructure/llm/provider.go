package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/llm/openrouter"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/resilience"
)

const (
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
)

type Config struct {
	Provider          string
	Model             string
	Temperature       float64
	MaxTokens         int
	EmbeddingProvider string
	EmbeddingModel    string
	OllamaURL         string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
}

// NewCompletionProvider builds the chat backend named by cfg.Provider.
func NewCompletionProvider(cfg Config, executor *resilience.Executor) (ports.CompletionProvider, error) {
	switch normalizeProvider(cfg.Provider) {
	case ProviderOllama:
		return ollama.NewWithOptions(cfg.OllamaURL, cfg.Model, cfg.EmbeddingModel, ollama.Options{
			Temperature:        cfg.Temperature,
			MaxTokens:          cfg.MaxTokens,
			ResilienceExecutor: executor,
		}), nil
	case ProviderOpenRouter:
		provider, err := openrouter.New(openrouter.Config{
			APIKey:      cfg.OpenRouterAPIKey,
			BaseURL:     cfg.OpenRouterBaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, executor)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewEmbedder builds the embedding backend named by cfg.EmbeddingProvider,
// falling back to cfg.Provider when unset.
func NewEmbedder(cfg Config, executor *resilience.Executor) (ports.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if strings.TrimSpace(provider) == "" {
		provider = cfg.Provider
	}
	switch normalizeProvider(provider) {
	case ProviderOllama:
		return ollama.NewWithOptions(cfg.OllamaURL, cfg.Model, cfg.EmbeddingModel, ollama.Options{
			ResilienceExecutor: executor,
		}), nil
	case ProviderOpenRouter:
		embedder, err := openrouter.New(openrouter.Config{
			APIKey:         cfg.OpenRouterAPIKey,
			BaseURL:        cfg.OpenRouterBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
		}, executor)
		if err != nil {
			return nil, err
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// NewChatModel never fails: a provider that cannot be built yields an
// UnconfiguredChat explaining what to fix.
func NewChatModel(cfg Config, executor *resilience.Executor) ports.ChatModel {
	provider, err := NewCompletionProvider(cfg, executor)
	if err != nil {
		return UnconfiguredChat{Reason: err.Error()}
	}
	return NewSafeChat(provider)
}

// UnavailableEmbedder stands in for an embedding backend that could not be
// built. Every call fails with ErrLLMUnavailable so retrieval degrades to
// empty results.
type UnavailableEmbedder struct {
	Err error
}

func (u UnavailableEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, domain.WrapError(domain.ErrLLMUnavailable, "embed", u.cause())
}

func (u UnavailableEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, domain.WrapError(domain.ErrLLMUnavailable, "embed query", u.cause())
}

func (u UnavailableEmbedder) cause() error {
	if u.Err == nil {
		return errors.New("embedding provider is not configured")
	}
	return u.Err
}

func normalizeProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "openai" {
		return ProviderOpenRouter
	}
	return name
}
