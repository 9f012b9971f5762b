package ports

import (
	"context"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

// LegalQueryService is the inbound contract for answering legal questions.
type LegalQueryService interface {
	Answer(ctx context.Context, req domain.QueryRequest) (*domain.LegalAnswer, error)
	Collections(ctx context.Context) ([]domain.CollectionInfo, error)
}

// QueryLogReader is the inbound read model for answered questions.
type QueryLogReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.QueryRecord, error)
}
