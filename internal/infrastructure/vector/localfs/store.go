package localfs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

// DocumentsFile is the per-collection passage file, one JSON object per line.
const DocumentsFile = "documents.jsonl"

const embedBatchSize = 64

type record struct {
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	Embedding []float32      `json:"embedding,omitempty"`
}

// Opener loads collection directories and keeps them for the process lifetime.
type Opener struct {
	embedder ports.Embedder

	mu      sync.Mutex
	indexes map[string]*Index
}

func NewOpener(embedder ports.Embedder) *Opener {
	return &Opener{
		embedder: embedder,
		indexes:  make(map[string]*Index),
	}
}

func (o *Opener) Open(_ context.Context, location string) (ports.VectorIndex, error) {
	path := filepath.Clean(location)

	o.mu.Lock()
	defer o.mu.Unlock()
	if idx, ok := o.indexes[path]; ok {
		return idx, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCollectionUnavailable, "localfs open", err)
	}
	if !info.IsDir() {
		return nil, domain.WrapError(domain.ErrCollectionUnavailable, "localfs open", fmt.Errorf("%s is not a directory", path))
	}

	records, err := readRecords(filepath.Join(path, DocumentsFile))
	if err != nil {
		return nil, domain.WrapError(domain.ErrCollectionUnavailable, "localfs open", err)
	}

	idx := &Index{embedder: o.embedder, records: records}
	o.indexes[path] = idx
	return idx, nil
}

func readRecords(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open documents file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []record
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("parse %s line %d: %w", filepath.Base(path), line, err)
		}
		if rec.Metadata == nil {
			rec.Metadata = map[string]any{}
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read documents file: %w", err)
	}
	return out, nil
}

// Index is an in-memory collection searched by brute-force cosine similarity.
// Records are read-only after open; missing passage embeddings are computed
// on first search and published once.
type Index struct {
	embedder ports.Embedder
	records  []record

	mu         sync.Mutex
	embeddings [][]float32
}

type scored struct {
	pos   int
	score float64
}

func (i *Index) Search(ctx context.Context, query string, k int, filter domain.MetadataFilter) ([]domain.Document, error) {
	if k <= 0 {
		return []domain.Document{}, nil
	}
	if i.embedder == nil {
		return nil, errors.New("localfs search: no embedder configured")
	}
	vectors, err := i.documentVectors(ctx)
	if err != nil {
		return nil, err
	}
	queryVec, err := i.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("localfs search: embed query: %w", err)
	}

	candidates := make([]scored, 0, len(i.records))
	for pos, rec := range i.records {
		if !filter.Matches(rec.Metadata) {
			continue
		}
		candidates = append(candidates, scored{pos: pos, score: cosine(queryVec, vectors[pos])})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]domain.Document, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, i.document(c.pos))
	}
	return out, nil
}

func (i *Index) Sample(_ context.Context, n int) ([]domain.Document, error) {
	n = min(max(n, 0), len(i.records))
	out := make([]domain.Document, 0, n)
	for pos := 0; pos < n; pos++ {
		out = append(out, i.document(pos))
	}
	return out, nil
}

func (i *Index) document(pos int) domain.Document {
	rec := i.records[pos]
	metadata := make(map[string]any, len(rec.Metadata))
	for k, v := range rec.Metadata {
		metadata[k] = v
	}
	return domain.NewDocument(rec.Content, metadata)
}

// documentVectors returns one vector per record, embedding the ones the
// documents file did not carry. A failed run publishes nothing.
func (i *Index) documentVectors(ctx context.Context) ([][]float32, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.embeddings != nil {
		return i.embeddings, nil
	}

	vectors := make([][]float32, len(i.records))
	missing := make([]int, 0)
	for pos, rec := range i.records {
		if len(rec.Embedding) == 0 {
			missing = append(missing, pos)
			continue
		}
		vectors[pos] = rec.Embedding
	}
	for start := 0; start < len(missing); start += embedBatchSize {
		end := min(start+embedBatchSize, len(missing))
		texts := make([]string, 0, end-start)
		for _, pos := range missing[start:end] {
			texts = append(texts, i.records[pos].Content)
		}
		batch, err := i.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("localfs embed documents: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("localfs embed documents: expected %d vectors, got %d", len(texts), len(batch))
		}
		for j, pos := range missing[start:end] {
			vectors[pos] = batch[j]
		}
	}
	i.embeddings = vectors
	return vectors, nil
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var dot, na, nb float64
	for j := 0; j < n; j++ {
		dot += float64(a[j]) * float64(b[j])
		na += float64(a[j]) * float64(a[j])
		nb += float64(b[j]) * float64(b[j])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
