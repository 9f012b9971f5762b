package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/legal-rag-assistant/internal/config"
	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/observability/metrics"
)

func TestLegalQueryReturnsAnswerCappedAtTopKFinal(t *testing.T) {
	service := &fakeLegalService{
		docs: []domain.Document{
			{Content: "one", DBName: "inheritance_codes"},
			{Content: "two", DBName: "inheritance_codes"},
			{Content: "three", DBName: "inheritance_codes"},
		},
	}
	handler := NewRouter(config.Config{RAGTopKFinal: 2}, service, nil, nil).Handler()

	res := postJSON(t, handler, "/v1/legal/query", map[string]any{
		"question":       "How is an estate divided between children?",
		"show_reasoning": true,
		"top_k":          10,
		"use_rerank":     true,
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	var answer domain.LegalAnswer
	if err := json.NewDecoder(res.Body).Decode(&answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer.Answer != "rag answer" {
		t.Fatalf("unexpected answer: %q", answer.Answer)
	}
	if len(answer.Documents) != 2 {
		t.Fatalf("expected documents capped at 2, got %d", len(answer.Documents))
	}
	if answer.Reasoning == "" {
		t.Fatalf("expected reasoning when requested")
	}
	if answer.Metadata.Law() != domain.LawInheritance {
		t.Fatalf("unexpected metadata: %+v", answer.Metadata)
	}

	if len(service.requests) != 1 {
		t.Fatalf("expected one pipeline call, got %d", len(service.requests))
	}
	got := service.requests[0]
	if got.TopK != 10 || got.UseRerank == nil || !*got.UseRerank || !got.ShowReasoning {
		t.Fatalf("request options not forwarded: %+v", got)
	}
}

func TestLegalQueryValidatesAgainstOpenAPIDocument(t *testing.T) {
	service := &fakeLegalService{}
	handler := NewRouter(config.Config{}, service, nil, nil).Handler()

	cases := map[string]map[string]any{
		"empty question":    {"question": ""},
		"missing question":  {"show_reasoning": true},
		"top_k wrong type":  {"question": "q", "top_k": "ten"},
		"top_k below range": {"question": "q", "top_k": 0},
	}
	for name, payload := range cases {
		res := postJSON(t, handler, "/v1/legal/query", payload)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, res.Code)
		}
	}
	if len(service.requests) != 0 {
		t.Fatalf("invalid requests must not reach the pipeline, got %d calls", len(service.requests))
	}
}

func TestListCollectionsReturnsDescriptions(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/collections", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var payload struct {
		Collections []domain.CollectionInfo `json:"collections"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode collections: %v", err)
	}
	if len(payload.Collections) != 1 || payload.Collections[0].Name != "inheritance_codes" || !payload.Collections[0].Available {
		t.Fatalf("unexpected collections: %+v", payload.Collections)
	}
}

func TestListQueriesReturnsRecords(t *testing.T) {
	handler := NewRouter(config.Config{}, &fakeLegalService{}, queryLogErrFake{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/queries?limit=5", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "who inherits?") {
		t.Fatalf("expected record in response: %s", res.Body.String())
	}
}

func TestMetricsEndpointExposesPipelineCounters(t *testing.T) {
	httpMetrics := metrics.NewHTTPServerMetrics("api")
	handler := NewRouter(config.Config{}, &fakeLegalService{}, nil, httpMetrics).Handler()

	res := postJSON(t, handler, "/v1/legal/query", map[string]any{"question": "Who inherits?"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRes := httptest.NewRecorder()
	handler.ServeHTTP(metricsRes, req)
	if metricsRes.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", metricsRes.Code)
	}
	body, _ := io.ReadAll(metricsRes.Body)
	text := string(body)
	for _, want := range []string{
		`legalrag_pipeline_requests_total{endpoint="legal_query",law="Inheritance",service="api"} 1`,
		`legalrag_pipeline_collection_routed_total{collection="inheritance_codes",service="api"} 1`,
		`legalrag_pipeline_no_context_total{endpoint="legal_query",service="api"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestOpenAPIDocumentIsServed(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "/v1/legal/query") {
		t.Fatalf("expected legal query path in document")
	}
}
