package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

type chatCall struct {
	system string
	user   string
}

// chatFake answers classification, extraction and final prompts separately.
type chatFake struct {
	mu             sync.Mutex
	classification string
	extraction     string
	answer         string
	calls          []chatCall
}

func (f *chatFake) Chat(_ context.Context, system, user string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, chatCall{system: system, user: user})

	switch {
	case system == lawClassificationSystemPrompt:
		return f.classification
	case strings.HasPrefix(system, "You are a legal metadata extraction assistant"):
		return f.extraction
	default:
		return f.answer
	}
}

func (f *chatFake) callsWithSystem(prefix string) []chatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]chatCall, 0)
	for _, c := range f.calls {
		if strings.HasPrefix(c.system, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// similarityEmbedder maps the query to [1, 0] and each document to a unit
// vector whose cosine to the query equals the configured similarity.
type similarityEmbedder struct {
	mu         sync.Mutex
	similarity map[string]float64
	queryCalls int
	embedCalls int
	err        error
}

func (f *similarityEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f *similarityEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		s := f.similarity[text]
		out[i] = []float32{float32(s), float32(math.Sqrt(1 - s*s))}
	}
	return out, nil
}

type searchCall struct {
	query  string
	k      int
	filter domain.MetadataFilter
}

// indexFake returns results keyed by the filter's JSON form.
type indexFake struct {
	mu        sync.Mutex
	byFilter  map[string][]domain.Document
	sample    []domain.Document
	searchErr error
	calls     []searchCall
}

func (f *indexFake) Search(_ context.Context, query string, k int, filter domain.MetadataFilter) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{query: query, k: k, filter: filter})
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	docs := f.byFilter[filter.String()]
	if len(docs) > k {
		docs = docs[:k]
	}
	out := make([]domain.Document, len(docs))
	copy(out, docs)
	return out, nil
}

func (f *indexFake) Sample(_ context.Context, n int) ([]domain.Document, error) {
	if len(f.sample) > n {
		return f.sample[:n], nil
	}
	return f.sample, nil
}

func (f *indexFake) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type openerFake struct {
	mu      sync.Mutex
	indexes map[string]*indexFake
	opens   map[string]int
}

func (f *openerFake) Open(_ context.Context, location string) (ports.VectorIndex, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opens == nil {
		f.opens = map[string]int{}
	}
	f.opens[location]++
	index, ok := f.indexes[location]
	if !ok {
		return nil, errors.New("no such collection")
	}
	return index, nil
}

func docsNamed(names ...string) []domain.Document {
	out := make([]domain.Document, len(names))
	for i, name := range names {
		out[i] = domain.Document{Content: name, Source: name + ".txt"}
	}
	return out
}

func contents(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
