package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPipelineCountsCollectionsAndNoContext(t *testing.T) {
	m := NewHTTPServerMetrics("api")

	m.RecordPipeline("api", "legal_query", PipelineObservation{
		Law:           "Divorce",
		Collections:   []string{"it_divorce", "es_divorce"},
		DocumentCount: 0,
		LLMError:      true,
		Duration:      time.Second,
	})

	if got := testutil.ToFloat64(m.pipelineRequestsTotal.WithLabelValues("api", "legal_query", "Divorce")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
	if got := testutil.ToFloat64(m.pipelineNoContextTotal.WithLabelValues("api", "legal_query")); got != 1 {
		t.Fatalf("expected no-context count 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.collectionRoutedTotal.WithLabelValues("api", "es_divorce")); got != 1 {
		t.Fatalf("expected es_divorce routed once, got %v", got)
	}
	if got := testutil.ToFloat64(m.llmErrorsTotal.WithLabelValues("api", "legal_query")); got != 1 {
		t.Fatalf("expected llm error count 1, got %v", got)
	}
}

func TestMiddlewareRecordsStatusAndNormalizesPath(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/scan", nil))

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodGet, "other", "418")); got != 1 {
		t.Fatalf("expected normalized path counter, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "legalrag_http_requests_total") {
		t.Fatalf("expected exposition to include request counter")
	}
}

func TestWorkerMetricsStatus(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartRecord()
	m.FinishRecord("worker", 10*time.Millisecond, errors.New("db down"))
	m.ObserveEventLag("worker", -time.Second)

	if got := testutil.ToFloat64(m.persistTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("expected one failed persist, got %v", got)
	}
	if got := testutil.ToFloat64(m.persistInFlight); got != 0 {
		t.Fatalf("expected in-flight back to zero, got %v", got)
	}
}
