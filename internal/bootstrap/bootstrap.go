package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/legal-rag-assistant/internal/config"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
	"github.com/kirillkom/legal-rag-assistant/internal/core/usecase"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/llm"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/vector/localfs"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/vector/pgvector"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/vector/qdrant"
)

const (
	BackendLocalFS  = "localfs"
	BackendQdrant   = "qdrant"
	BackendPGVector = "pgvector"
)

// Options selects the optional collaborators an entrypoint needs.
type Options struct {
	// QueryLog connects the Postgres query log when POSTGRES_DSN is set.
	QueryLog bool
	// Events connects NATS when NATS_URL is set.
	Events bool
}

type App struct {
	Config config.Config

	Pipeline *usecase.LegalPipeline
	// Service is the pipeline decorated with query recording.
	Service  ports.LegalQueryService
	QueryLog *usecase.QueryLogUseCase
	Events   *nats.Queue

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg}

	executor := resilience.NewExecutor(cfg.Resilience())
	llmCfg := llmConfig(cfg)

	chat := llm.NewChatModel(llmCfg, executor)
	embedder, err := llm.NewEmbedder(llmCfg, executor)
	if err != nil {
		slog.Warn("embedder_unconfigured", "error", err)
		embedder = llm.UnavailableEmbedder{Err: err}
	}

	opener, err := app.openVectorBackend(ctx, cfg, embedder, executor)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Pipeline = usecase.NewLegalPipeline(chat, embedder, opener, cfg.PipelineSettings())

	var store ports.QueryLogStore
	if opts.QueryLog && strings.TrimSpace(cfg.PostgresDSN) != "" {
		repo, err := app.openQueryLog(ctx, cfg)
		if err != nil {
			app.Close()
			return nil, err
		}
		store = repo
		app.QueryLog = usecase.NewQueryLogUseCase(repo)
	}

	var publisher ports.QueryEventPublisher
	if opts.Events && strings.TrimSpace(cfg.NATSURL) != "" {
		queue, err := app.openEvents(cfg, executor)
		if err != nil {
			app.Close()
			return nil, err
		}
		publisher = queue
	}

	app.Service = usecase.NewRecordingQueryService(app.Pipeline, publisher, store)

	slog.Info("pipeline_ready",
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
		"vector_backend", cfg.VectorBackend,
		"collections", len(cfg.Collections()),
		"query_log", app.QueryLog != nil,
		"events", app.Events != nil,
	)
	return app, nil
}

// NewWorker wires only what the query log consumer needs.
func NewWorker(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, fmt.Errorf("worker requires POSTGRES_DSN")
	}
	if strings.TrimSpace(cfg.NATSURL) == "" {
		return nil, fmt.Errorf("worker requires NATS_URL")
	}

	app := &App{Config: cfg}
	repo, err := app.openQueryLog(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.QueryLog = usecase.NewQueryLogUseCase(repo)

	if _, err := app.openEvents(cfg, resilience.NewExecutor(cfg.Resilience())); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) openVectorBackend(ctx context.Context, cfg config.Config, embedder ports.Embedder, executor *resilience.Executor) (ports.IndexOpener, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.VectorBackend)) {
	case "", BackendLocalFS:
		return localfs.NewOpener(embedder), nil
	case BackendQdrant:
		return qdrant.New(cfg.QdrantURL, embedder, executor), nil
	case BackendPGVector:
		opener, err := pgvector.Connect(ctx, cfg.PGVectorDSN, embedder)
		if err != nil {
			return nil, fmt.Errorf("connect pgvector: %w", err)
		}
		a.closers = append(a.closers, opener.Close)
		return opener, nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

func (a *App) openQueryLog(ctx context.Context, cfg config.Config) (*postgres.QueryLogRepository, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, closeDB(db))

	repo := postgres.NewQueryLogRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure query log schema: %w", err)
	}
	return repo, nil
}

func (a *App) openEvents(cfg config.Config, executor *resilience.Executor) (*nats.Queue, error) {
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init event queue: %w", err)
	}
	a.Events = queue
	a.closers = append(a.closers, queue.Close)
	return queue, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func llmConfig(cfg config.Config) llm.Config {
	return llm.Config{
		Provider:          cfg.LLMProvider,
		Model:             cfg.LLMModel,
		Temperature:       cfg.LLMTemperature,
		MaxTokens:         cfg.LLMMaxTokens,
		EmbeddingProvider: cfg.EmbeddingProvider,
		EmbeddingModel:    cfg.EmbeddingModel,
		OllamaURL:         cfg.OllamaURL,
		OpenRouterAPIKey:  cfg.OpenRouterAPIKey,
		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
	}
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			slog.Warn("postgres_close_failed", "error", err)
		}
	}
}
