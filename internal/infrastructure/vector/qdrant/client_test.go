package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

type embedderFake struct{}

func (embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func TestSearchSendsMustClausePerFilterKey(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/it_divorce":
			_, _ = w.Write([]byte(`{"result":{"status":"green"}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/collections/it_divorce/points/search":
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode search body: %v", err)
			}
			_, _ = w.Write([]byte(`{"result":[{"score":0.9,"payload":{"page_content":"Art. 151 c.c.","metadata":{"law":"Divorce","country":"ITALY","source":"case-1.pdf"}}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, embedderFake{}, nil)
	index, err := client.Open(context.Background(), "/data/vector_stores/it_divorce")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	docs, err := index.Search(context.Background(), "separation", 5, domain.MetadataFilter{"law": "Divorce", "country": "ITALY"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Content != "Art. 151 c.c." || docs[0].Source != "case-1.pdf" {
		t.Fatalf("unexpected docs: %+v", docs)
	}

	filter, _ := captured["filter"].(map[string]any)
	must, _ := filter["must"].([]any)
	if len(must) != 2 {
		t.Fatalf("expected 2 must clauses, got %v", captured["filter"])
	}
	first, _ := must[0].(map[string]any)
	if first["key"] != "metadata.country" {
		t.Fatalf("expected sorted metadata keys, got %v", first["key"])
	}
	if limit, _ := captured["limit"].(float64); limit != 5 {
		t.Fatalf("expected limit 5, got %v", captured["limit"])
	}
}

func TestSearchWithoutFilterOmitsFilterClause(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"result":{}}`))
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	index, err := New(server.URL, embedderFake{}, nil).Open(context.Background(), "docs")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := index.Search(context.Background(), "q", 3, domain.MetadataFilter{}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, ok := captured["filter"]; ok {
		t.Fatalf("expected no filter clause, got %v", captured["filter"])
	}
}

func TestOpenUnknownCollectionIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"Not found: Collection missing doesn't exist!"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, embedderFake{}, nil).Open(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrCollectionUnavailable) {
		t.Fatalf("expected collection unavailable, got %v", err)
	}
}

func TestSampleUsesScroll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/docs":
			_, _ = w.Write([]byte(`{"result":{}}`))
		case "/collections/docs/points/scroll":
			_, _ = w.Write([]byte(`{"result":{"points":[{"payload":{"page_content":"a","metadata":{"law":"Inheritance"}}},{"payload":{"page_content":"b","metadata":{}}}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	index, err := New(server.URL, embedderFake{}, nil).Open(context.Background(), "docs")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	docs, err := index.Sample(context.Background(), 20)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if len(docs) != 2 || docs[0].MetadataString("law") != "Inheritance" {
		t.Fatalf("unexpected sample: %+v", docs)
	}
}
