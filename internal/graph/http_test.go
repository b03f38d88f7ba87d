package graph

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okravets/shepard/internal/worker"
)

func testSource(t *testing.T, handler http.Handler) (*HTTPSource, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	limiter := worker.NewLimiter(1000, 100)
	source := NewHTTPSource(HTTPSourceOptions{
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		Limiter:    limiter,
	})
	return source, server
}

func TestHTTPSource_Resolve(t *testing.T) {
	source, _ := testSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/opinions/op-1/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "op-1",
			"case_name": "Smith v. Jones",
			"court": "ca9",
			"plain_text": "The judgment is affirmed.",
			"citations": [
				{"opinion_id": "op-2", "excerpt": "followed Smith"},
				{"opinion_id": "op-3", "excerpt": "distinguished on the facts"}
			]
		}`))
	}))

	op, err := source.Resolve(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if op.Name != "Smith v. Jones" {
		t.Errorf("name = %q, want Smith v. Jones", op.Name)
	}
	if len(op.Citations) != 2 {
		t.Fatalf("citations = %d, want 2", len(op.Citations))
	}
	if op.Citations[0].OpinionID != "op-2" || op.Citations[0].Excerpt != "followed Smith" {
		t.Errorf("unexpected first citation: %+v", op.Citations[0])
	}
}

func TestHTTPSource_NotFoundCachedNegatively(t *testing.T) {
	var requests atomic.Int64
	source, _ := testSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	}))

	ctx := context.Background()
	if _, err := source.Resolve(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	first := requests.Load()

	// Second resolve hits the negative cache, not the server
	if _, err := source.Resolve(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cached ErrNotFound, got %v", err)
	}
	if requests.Load() != first {
		t.Errorf("expected no new requests after negative cache, got %d -> %d", first, requests.Load())
	}
}

func TestHTTPSource_RetriesTransientFailures(t *testing.T) {
	var requests atomic.Int64
	source, _ := testSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id": "op-1", "case_name": "Smith v. Jones", "citations": []}`))
	}))

	op, err := source.Resolve(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("resolve after retries: %v", err)
	}
	if op.ID != "op-1" {
		t.Errorf("id = %q, want op-1", op.ID)
	}
	if requests.Load() != 3 {
		t.Errorf("expected 3 requests (2 failures + success), got %d", requests.Load())
	}
}

func TestHTTPSource_UnavailableAfterRetryBudget(t *testing.T) {
	var requests atomic.Int64
	source, _ := testSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := source.Resolve(context.Background(), "op-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	// MaxRetries 2 means 3 attempts total
	if requests.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", requests.Load())
	}
}

func TestHTTPSource_NotFoundNotRetried(t *testing.T) {
	var requests atomic.Int64
	source, _ := testSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	}))

	if _, err := source.Resolve(context.Background(), "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if requests.Load() != 1 {
		t.Errorf("not-found must not be retried, got %d requests", requests.Load())
	}
}

func TestMemorySource_NotFound(t *testing.T) {
	source := NewMemorySource()
	if _, err := source.Resolve(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
