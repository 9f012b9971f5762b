package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

const (
	defaultQueryLogLimit = 20
	maxQueryLogLimit     = 200
)

// RecordingQueryService answers through the wrapped service and then
// announces the result. Recording failures never fail the answer.
type RecordingQueryService struct {
	next      ports.LegalQueryService
	publisher ports.QueryEventPublisher
	store     ports.QueryLogStore
}

// NewRecordingQueryService publishes events when publisher is set, otherwise
// writes straight to store. Both may be nil.
func NewRecordingQueryService(
	next ports.LegalQueryService,
	publisher ports.QueryEventPublisher,
	store ports.QueryLogStore,
) *RecordingQueryService {
	return &RecordingQueryService{
		next:      next,
		publisher: publisher,
		store:     store,
	}
}

func (s *RecordingQueryService) Answer(ctx context.Context, req domain.QueryRequest) (*domain.LegalAnswer, error) {
	answer, err := s.next.Answer(ctx, req)
	if err != nil {
		return nil, err
	}

	record := NewQueryRecord(req.Question, answer)
	if err := s.record(ctx, record); err != nil {
		slog.Warn("query_record_failed", "query_id", record.ID, "error", err)
	}
	return answer, nil
}

func (s *RecordingQueryService) Collections(ctx context.Context) ([]domain.CollectionInfo, error) {
	return s.next.Collections(ctx)
}

func (s *RecordingQueryService) record(ctx context.Context, record domain.QueryRecord) error {
	switch {
	case s.publisher != nil:
		if err := s.publisher.PublishQueryAnswered(ctx, record); err != nil {
			return fmt.Errorf("publish query answered event: %w", err)
		}
	case s.store != nil:
		if err := s.store.Save(ctx, record); err != nil {
			return fmt.Errorf("save query record: %w", err)
		}
	}
	return nil
}

func NewQueryRecord(question string, answer *domain.LegalAnswer) domain.QueryRecord {
	record := domain.QueryRecord{
		ID:          uuid.NewString(),
		Question:    strings.TrimSpace(question),
		Collections: []string{},
		CreatedAt:   time.Now().UTC(),
	}
	if answer == nil {
		return record
	}
	record.Law = answer.Metadata.Law()
	record.Country = answer.Metadata.Country()
	record.DocType = answer.Metadata.DocType()
	record.Collections = append(record.Collections, answer.Collections...)
	record.DocumentCount = len(answer.Documents)
	record.Answer = answer.Answer
	return record
}

type QueryLogUseCase struct {
	store ports.QueryLogStore
}

func NewQueryLogUseCase(store ports.QueryLogStore) *QueryLogUseCase {
	return &QueryLogUseCase{store: store}
}

func (uc *QueryLogUseCase) Record(ctx context.Context, record domain.QueryRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record query", errors.New("query id is empty"))
	}
	if strings.TrimSpace(record.Question) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record query", errors.New("question is empty"))
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Collections == nil {
		record.Collections = []string{}
	}
	if err := uc.store.Save(ctx, record); err != nil {
		return fmt.Errorf("save query record: %w", err)
	}
	return nil
}

func (uc *QueryLogUseCase) ListRecent(ctx context.Context, limit int) ([]domain.QueryRecord, error) {
	if limit <= 0 {
		limit = defaultQueryLogLimit
	}
	if limit > maxQueryLogLimit {
		limit = maxQueryLogLimit
	}
	records, err := uc.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list query records: %w", err)
	}
	return records, nil
}
