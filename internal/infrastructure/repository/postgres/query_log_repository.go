package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

// QueryLogRepository stores answered questions in the query_log table.
type QueryLogRepository struct {
	db *sql.DB
}

func NewQueryLogRepository(db *sql.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

func (r *QueryLogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS query_log (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	law TEXT NOT NULL,
	country TEXT,
	doc_type TEXT,
	collections JSONB NOT NULL DEFAULT '[]'::jsonb,
	document_count INTEGER NOT NULL DEFAULT 0,
	answer TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_query_log_law ON query_log(law);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Save inserts a record; a redelivered id is ignored.
func (r *QueryLogRepository) Save(ctx context.Context, record domain.QueryRecord) error {
	collections := record.Collections
	if collections == nil {
		collections = []string{}
	}
	collectionsJSON, err := json.Marshal(collections)
	if err != nil {
		return fmt.Errorf("marshal collections: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO query_log (id, question, law, country, doc_type, collections, document_count, answer, created_at)
VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7,$8,$9)
ON CONFLICT (id) DO NOTHING
`, record.ID, record.Question, record.Law, nullableString(record.Country), nullableString(record.DocType),
		string(collectionsJSON), record.DocumentCount, record.Answer, record.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save query record: %w", err)
	}
	return nil
}

func (r *QueryLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.QueryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, question, law, country, doc_type, collections, document_count, answer, created_at
FROM query_log
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list query records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QueryRecord, 0)
	for rows.Next() {
		var (
			rec             domain.QueryRecord
			country         sql.NullString
			docType         sql.NullString
			collectionsJSON []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Law, &country, &docType, &collectionsJSON,
			&rec.DocumentCount, &rec.Answer, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan query record: %w", err)
		}
		rec.Country = country.String
		rec.DocType = docType.String
		if len(collectionsJSON) > 0 {
			if err := json.Unmarshal(collectionsJSON, &rec.Collections); err != nil {
				return nil, fmt.Errorf("decode collections: %w", err)
			}
		}
		if rec.Collections == nil {
			rec.Collections = []string{}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query records: %w", err)
	}
	return out, nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
