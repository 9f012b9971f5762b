package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

func fastRetryConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig())

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "ollama.chat", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, errTemp), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig())

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "qdrant.search", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if state, ok := exec.State("nats.publish"); !ok || state != gobreaker.StateOpen {
		t.Fatalf("expected open breaker state, got %v (known=%t)", state, ok)
	}
}

func TestDoReturnsValue(t *testing.T) {
	exec := NewExecutor(fastRetryConfig())

	calls := 0
	got, err := Do(context.Background(), exec, "ollama.embed", func(context.Context) ([]float32, error) {
		calls++
		if calls == 1 {
			return nil, &HTTPStatusError{Service: "ollama", Operation: "embed", StatusCode: http.StatusServiceUnavailable, Status: "503"}
		}
		return []float32{1, 2}, nil
	}, ClassifyHTTPError)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(got) != 2 || calls != 2 {
		t.Fatalf("expected value after one retry, got %v after %d calls", got, calls)
	}
}

func TestNilExecutorRunsOnce(t *testing.T) {
	var exec *Executor
	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("boom")
	}, ClassifyHTTPError)
	if err == nil || calls != 1 {
		t.Fatalf("expected single failing call, got err=%v calls=%d", err, calls)
	}
}

func TestClassifyHTTPError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{"canceled", context.Canceled, ErrorClassification{}},
		{"bad gateway", &HTTPStatusError{StatusCode: http.StatusBadGateway}, ErrorClassification{Retryable: true, RecordFailure: true}},
		{"too many requests", fmt.Errorf("wrapped: %w", &HTTPStatusError{StatusCode: http.StatusTooManyRequests}), ErrorClassification{Retryable: true, RecordFailure: true}},
		{"not found", &HTTPStatusError{StatusCode: http.StatusNotFound}, ErrorClassification{}},
		{"open breaker", gobreaker.ErrOpenState, ErrorClassification{Retryable: true, RecordFailure: true}},
		{"other", errors.New("decode failure"), ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range cases {
		if got := ClassifyHTTPError(tc.err); got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestWrapTemporaryMarksRetryableErrors(t *testing.T) {
	err := WrapTemporary("ollama chat", &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, nil)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind, got %v", err)
	}
	permanent := WrapTemporary("ollama chat", &HTTPStatusError{StatusCode: http.StatusBadRequest}, nil)
	if domain.IsKind(permanent, domain.ErrTemporary) {
		t.Fatalf("4xx must not be temporary: %v", permanent)
	}
}
