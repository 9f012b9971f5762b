package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kirillkom/legal-rag-assistant/internal/config"
	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/llm"
	"github.com/kirillkom/legal-rag-assistant/internal/observability/metrics"
)

const (
	defaultQueryLogLimit    = 20
	defaultBackpressureWait = 250 * time.Millisecond
)

type Router struct {
	service   ports.LegalQueryService
	queryLog  ports.QueryLogReader
	metrics   *metrics.HTTPServerMetrics
	validator *requestValidator

	serviceName         string
	topKFinal           int
	openAICompatAPIKey  string
	openAICompatModelID string
	streamChunkChars    int
	rateLimitRPS        float64
	rateLimitBurst      int
	maxInFlight         int
	backpressureWait    time.Duration
}

// NewRouter builds the API router. queryLog and httpMetrics may be nil.
func NewRouter(
	cfg config.Config,
	service ports.LegalQueryService,
	queryLog ports.QueryLogReader,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	validator, err := newRequestValidator()
	if err != nil {
		panic("load embedded openapi document: " + err.Error())
	}
	return &Router{
		service:             service,
		queryLog:            queryLog,
		metrics:             httpMetrics,
		validator:           validator,
		serviceName:         "api",
		topKFinal:           cfg.RAGTopKFinal,
		openAICompatAPIKey:  cfg.OpenAICompatAPIKey,
		openAICompatModelID: cfg.OpenAICompatModelID,
		streamChunkChars:    cfg.OpenAICompatStreamChunkChars,
		rateLimitRPS:        cfg.APIRateLimitRPS,
		rateLimitBurst:      cfg.APIRateLimitBurst,
		maxInFlight:         cfg.APIMaxInFlight,
		backpressureWait:    defaultBackpressureWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", serveOpenAPIDocument)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.Handle("POST /v1/legal/query", rt.validate(http.HandlerFunc(rt.legalQuery)))
	mux.HandleFunc("GET /v1/collections", rt.listCollections)
	mux.Handle("GET /v1/queries", rt.validate(http.HandlerFunc(rt.listQueries)))
	mux.Handle("GET /v1/models", rt.requireCompatKey(http.HandlerFunc(rt.listModels)))
	mux.Handle("POST /v1/chat/completions", rt.requireCompatKey(rt.validate(http.HandlerFunc(rt.chatCompletions))))

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.backpressureWait, rt.rejected("backpressure"))
	handler = rateLimitMiddleware(handler, newRateLimiter(rt.rateLimitRPS, rt.rateLimitBurst), rt.rejected("rate_limit"))
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) legalQuery(w http.ResponseWriter, r *http.Request) {
	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	answer, err := rt.answer(r, "legal_query", req)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	response := *answer
	response.Documents = capDocuments(answer.Documents, rt.topKFinal)
	writeJSON(w, http.StatusOK, response)
}

func (rt *Router) listCollections(w http.ResponseWriter, r *http.Request) {
	if rt.service == nil {
		writeError(w, http.StatusServiceUnavailable, "legal query service is not configured")
		return
	}
	infos, err := rt.service.Collections(r.Context())
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": infos})
}

func (rt *Router) listQueries(w http.ResponseWriter, r *http.Request) {
	if rt.queryLog == nil {
		writeError(w, http.StatusNotFound, "query log is not configured")
		return
	}

	limit := defaultQueryLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := rt.queryLog.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": records})
}

// answer runs the pipeline and records the outcome for the given endpoint.
func (rt *Router) answer(r *http.Request, endpoint string, req domain.QueryRequest) (*domain.LegalAnswer, error) {
	if rt.service == nil {
		return nil, domain.WrapError(domain.ErrTemporary, "answer legal question", errors.New("legal query service is not configured"))
	}

	start := time.Now()
	answer, err := rt.service.Answer(r.Context(), req)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	if rt.metrics != nil {
		rt.metrics.RecordPipeline(rt.serviceName, endpoint, metrics.PipelineObservation{
			Law:           answer.Metadata.Law(),
			Collections:   answer.Collections,
			DocumentCount: len(answer.Documents),
			LLMError:      llm.IsErrorText(answer.Answer),
			Duration:      duration,
		})
	}
	slog.Info("legal_query_answered",
		"request_id", requestIDFromContext(r.Context()),
		"endpoint", endpoint,
		"law", answer.Metadata.Law(),
		"collections", answer.Collections,
		"documents", len(answer.Documents),
		"duration_ms", duration.Milliseconds(),
	)
	return answer, nil
}

func (rt *Router) rejected(reason string) func() {
	return func() {
		if rt.metrics != nil {
			rt.metrics.RecordRejected(rt.serviceName, reason)
		}
	}
}

func capDocuments(docs []domain.Document, limit int) []domain.Document {
	if limit <= 0 || len(docs) <= limit {
		return docs
	}
	return docs[:limit]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
