package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Config describes an OpenAI-compatible endpoint, OpenRouter by default.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
}

// Provider serves chat completions and embeddings through langchaingo.
type Provider struct {
	llm         *openai.LLM
	temperature float64
	maxTokens   int
	executor    *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openrouter: api key is empty")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(strings.TrimRight(baseURL, "/")),
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.EmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.EmbeddingModel))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openrouter: init client: %w", err)
	}
	return &Provider{
		llm:         llm,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		executor:    executor,
	}, nil
}

func (p *Provider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	content := make([]llms.MessageContent, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, userPrompt))

	callOpts := []llms.CallOption{llms.WithTemperature(p.temperature)}
	if p.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(p.maxTokens))
	}

	resp, err := resilience.Do(ctx, p.executor, "openrouter.chat", func(ctx context.Context) (*llms.ContentResponse, error) {
		return p.llm.GenerateContent(ctx, content, callOpts...)
	}, classify)
	if err != nil {
		return "", fmt.Errorf("openrouter chat: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("openrouter chat: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := resilience.Do(ctx, p.executor, "openrouter.embed", func(ctx context.Context) ([][]float32, error) {
		return p.llm.CreateEmbedding(ctx, texts)
	}, classify)
	if err != nil {
		return nil, fmt.Errorf("openrouter embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("openrouter embed: expected %d vectors, got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

func (p *Provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// classify retries rate limits and upstream outages reported in langchaingo
// error text; the client does not expose status codes.
func classify(err error) resilience.ErrorClassification {
	base := resilience.ClassifyHTTPError(err)
	if base.Retryable || !base.RecordFailure {
		return base
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "502", "503", "504", "timeout"} {
		if strings.Contains(msg, marker) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	return base
}
