package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/legal-rag-assistant/internal/config"
	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

type queryLogErrFake struct {
	err error
}

func (f queryLogErrFake) ListRecent(context.Context, int) ([]domain.QueryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.QueryRecord{{ID: "q-1", Question: "who inherits?"}}, nil
}

func TestLegalQueryMapsDomainInvalidInputTo400(t *testing.T) {
	service := &fakeLegalService{err: domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("bad query"))}
	handler := NewRouter(config.Config{}, service, nil, nil).Handler()

	res := postJSON(t, handler, "/v1/legal/query", map[string]any{"question": "test"})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestLegalQueryMapsTemporaryTo503(t *testing.T) {
	service := &fakeLegalService{err: domain.WrapError(domain.ErrTemporary, "answer", errors.New("upstream down"))}
	handler := NewRouter(config.Config{}, service, nil, nil).Handler()

	res := postJSON(t, handler, "/v1/legal/query", map[string]any{"question": "test"})
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestListQueriesWithoutStoreReturns404(t *testing.T) {
	handler := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/queries", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestListQueriesRejectsInvalidLimit(t *testing.T) {
	handler := NewRouter(config.Config{}, &fakeLegalService{}, queryLogErrFake{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/queries?limit=0", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestListQueriesMapsStoreErrors(t *testing.T) {
	store := queryLogErrFake{err: domain.WrapError(domain.ErrTemporary, "list", errors.New("db down"))}
	handler := NewRouter(config.Config{}, &fakeLegalService{}, store, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/queries?limit=5", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrInvalidInput, "op", errors.New("x")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrUnauthorized, "op", errors.New("x")), http.StatusUnauthorized},
		{domain.WrapError(domain.ErrCollectionUnavailable, "op", errors.New("x")), http.StatusServiceUnavailable},
		{domain.WrapError(domain.ErrLLMUnavailable, "op", errors.New("x")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
			t.Fatalf("mapErrorToHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
