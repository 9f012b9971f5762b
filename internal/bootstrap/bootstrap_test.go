package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/legal-rag-assistant/internal/config"
)

func TestNewWiresLocalPipelineWithoutOptionalCollaborators(t *testing.T) {
	base := t.TempDir()
	collection := filepath.Join(base, "inheritance_codes")
	if err := os.MkdirAll(collection, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	line := `{"content":"Article 912","metadata":{"law":"Inheritance","country":"France","doc_type":"code"}}` + "\n"
	if err := os.WriteFile(filepath.Join(collection, "documents.jsonl"), []byte(line), 0o644); err != nil {
		t.Fatalf("write documents: %v", err)
	}

	cfg := config.Config{
		LLMProvider:        "openrouter",
		LLMModel:           "test-model",
		VectorBackend:      BackendLocalFS,
		VectorStoreBaseDir: base,
		PostgresDSN:        "postgres://unused",
		NATSURL:            "nats://unused",
		RetryMaxAttempts:   1,
	}

	app, err := New(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer app.Close()

	if app.Service == nil || app.Pipeline == nil {
		t.Fatalf("expected pipeline and service to be wired")
	}
	if app.QueryLog != nil || app.Events != nil {
		t.Fatalf("optional collaborators must stay disabled without options")
	}

	infos, err := app.Service.Collections(context.Background())
	if err != nil {
		t.Fatalf("Collections returned error: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "inheritance_codes" || !infos[0].Available {
		t.Fatalf("unexpected collections: %+v", infos)
	}
}

func TestNewRejectsUnknownVectorBackend(t *testing.T) {
	_, err := New(context.Background(), config.Config{LLMProvider: "ollama", VectorBackend: "faiss"}, Options{})
	if err == nil || !strings.Contains(err.Error(), "unknown vector backend") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestNewWorkerRequiresPostgresAndNATS(t *testing.T) {
	if _, err := NewWorker(context.Background(), config.Config{NATSURL: "nats://localhost:4222"}); err == nil {
		t.Fatalf("expected error without POSTGRES_DSN")
	}
	if _, err := NewWorker(context.Background(), config.Config{PostgresDSN: "postgres://localhost/db"}); err == nil {
		t.Fatalf("expected error without NATS_URL")
	}
}
