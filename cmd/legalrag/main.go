package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/kirillkom/legal-rag-assistant/internal/adapters/cli"
	"github.com/kirillkom/legal-rag-assistant/internal/bootstrap"
	"github.com/kirillkom/legal-rag-assistant/internal/config"
	"github.com/kirillkom/legal-rag-assistant/internal/observability/logging"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(loadRuntime, version)
	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func loadRuntime(ctx context.Context) (*cli.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "legalrag", cfg.LogLevel))

	if problems := cfg.Validate(); len(problems) > 0 {
		errs := make([]error, 0, len(problems))
		for _, problem := range problems {
			errs = append(errs, problem)
		}
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{QueryLog: true})
	if err != nil {
		return nil, err
	}
	return &cli.Runtime{
		Service:   app.Service,
		TopKFinal: cfg.RAGTopKFinal,
		Close:     app.Close,
	}, nil
}
