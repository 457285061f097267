package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/agents" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(sampleCatalog))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/agents", srv.Client())
	cat, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("expected 2 agents, got %d", cat.Len())
	}
}

func TestClientFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(sampleCatalog))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	cat, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch after retries: %v", err)
	}
	if cat == nil || calls.Load() != 3 {
		t.Errorf("expected success on third attempt, calls=%d", calls.Load())
	}
}

func TestClientFetchDoesNotRetryBadPayload(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"not": "a catalog"`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("malformed payload retried %d times", calls.Load())
	}
}

func TestClientFetchRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("http://127.0.0.1:1/api/agents", nil)
	if _, err := client.Fetch(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
