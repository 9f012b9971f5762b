package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

// Opener maps each collection to a table with content, metadata (jsonb) and
// embedding (vector) columns.
type Opener struct {
	pool     *pgxpool.Pool
	embedder ports.Embedder
}

func Connect(ctx context.Context, dsn string, embedder ports.Embedder) (*Opener, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgvector connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector ping: %w", err)
	}
	return &Opener{pool: pool, embedder: embedder}, nil
}

func (o *Opener) Close() {
	if o.pool != nil {
		o.pool.Close()
	}
}

func (o *Opener) Open(ctx context.Context, location string) (ports.VectorIndex, error) {
	table := domain.CollectionName(location)
	if table == "" || table == "." {
		return nil, domain.WrapError(domain.ErrCollectionUnavailable, "pgvector open", fmt.Errorf("empty table name for %q", location))
	}

	var regclass *string
	if err := o.pool.QueryRow(ctx, `SELECT to_regclass($1)::text`, tableIdentifier(table)).Scan(&regclass); err != nil {
		return nil, domain.WrapError(domain.ErrCollectionUnavailable, "pgvector open "+table, err)
	}
	if regclass == nil {
		return nil, domain.WrapError(domain.ErrCollectionUnavailable, "pgvector open "+table, fmt.Errorf("table %s does not exist", table))
	}
	return &Index{opener: o, table: table}, nil
}

// Index is one collection table.
type Index struct {
	opener *Opener
	table  string
}

func (i *Index) Search(ctx context.Context, query string, k int, filter domain.MetadataFilter) ([]domain.Document, error) {
	if k <= 0 {
		return []domain.Document{}, nil
	}
	vector, err := i.opener.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgvector search %s: embed query: %w", i.table, err)
	}

	sql, args := searchQuery(i.table, pgvector.NewVector(vector), k, filter)
	rows, err := i.opener.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector search %s: %w", i.table, err)
	}
	return collectDocuments(rows)
}

func (i *Index) Sample(ctx context.Context, n int) ([]domain.Document, error) {
	if n <= 0 {
		return []domain.Document{}, nil
	}
	rows, err := i.opener.pool.Query(ctx, sampleQuery(i.table), n)
	if err != nil {
		return nil, fmt.Errorf("pgvector sample %s: %w", i.table, err)
	}
	return collectDocuments(rows)
}

func tableIdentifier(table string) string {
	return pgx.Identifier{table}.Sanitize()
}

// searchQuery builds a cosine-distance query. Each filter key matches a
// scalar value or a list containing it.
func searchQuery(table string, vector pgvector.Vector, k int, filter domain.MetadataFilter) (string, []any) {
	args := []any{vector, k}
	conditions := make([]string, 0, len(filter))
	for _, key := range filter.Keys() {
		args = append(args, filter[key])
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(metadata->>%s = $%d OR metadata->%s ? $%d)", quoteLiteral(key), n, quoteLiteral(key), n))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	sql := fmt.Sprintf("SELECT content, metadata FROM %s%s ORDER BY embedding <=> $1 LIMIT $2", tableIdentifier(table), where)
	return sql, args
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sampleQuery(table string) string {
	return fmt.Sprintf("SELECT content, metadata FROM %s LIMIT $1", tableIdentifier(table))
}

func collectDocuments(rows pgx.Rows) ([]domain.Document, error) {
	defer rows.Close()
	out := make([]domain.Document, 0)
	for rows.Next() {
		var (
			content  string
			metadata []byte
		)
		if err := rows.Scan(&content, &metadata); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		meta := map[string]any{}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &meta); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		out = append(out, domain.NewDocument(content, meta))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
