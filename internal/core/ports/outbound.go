package ports

import (
	"context"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

// Embedder builds vectors for document and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatModel produces free text from a prompt pair. Implementations never fail:
// errors are returned as text the caller can recognize.
type ChatModel interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) string
}

// CompletionProvider is a raw chat backend that reports failures as errors.
type CompletionProvider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// VectorIndex is one opened collection.
type VectorIndex interface {
	// Search returns up to k nearest documents matching every filter entry.
	// A key absent from stored metadata yields no match, not an error.
	Search(ctx context.Context, query string, k int, filter domain.MetadataFilter) ([]domain.Document, error)
	// Sample returns up to n stored documents in storage order.
	Sample(ctx context.Context, n int) ([]domain.Document, error)
}

// IndexOpener opens a collection by storage location.
type IndexOpener interface {
	Open(ctx context.Context, location string) (VectorIndex, error)
}

// QueryEventPublisher announces answered questions.
type QueryEventPublisher interface {
	PublishQueryAnswered(ctx context.Context, record domain.QueryRecord) error
}

// QueryEventSubscriber consumes answered-question events.
type QueryEventSubscriber interface {
	SubscribeQueryAnswered(ctx context.Context, handler func(context.Context, domain.QueryRecord) error) error
}

// QueryLogStore persists answered questions.
type QueryLogStore interface {
	Save(ctx context.Context, record domain.QueryRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.QueryRecord, error)
}
