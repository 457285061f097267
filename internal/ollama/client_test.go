package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListModels(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"models":[{"name":"llama3.1:8b"},{"name":"qwen2.5"},{"name":""}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if gotPath != "/api/tags" {
		t.Errorf("expected /api/tags, got %q", gotPath)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models (empty name skipped), got %#v", models)
	}
	if models[0].Tag != "llama3.1:8b" || models[0].Name != "llama3.1" {
		t.Errorf("unexpected first model %#v", models[0])
	}
	if models[1].Tag != "qwen2.5" || models[1].Name != "qwen2.5" {
		t.Errorf("unexpected second model %#v", models[1])
	}
}

func TestListModelsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	if _, err := client.ListModels(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestListModelsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("http://127.0.0.1:1", nil)
	if _, err := client.ListModels(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"llama3.1:8b":    "llama3.1",
		"qwen2.5":        "qwen2.5",
		"llama3:latest":  "llama3",
		":odd":           ":odd",
	}
	for in, want := range tests {
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultHostFallback(t *testing.T) {
	client := NewClient("", nil)
	if client.host != DefaultHost {
		t.Errorf("host = %q, want %q", client.host, DefaultHost)
	}
	client = NewClient("http://x:1/", nil)
	if client.host != "http://x:1" {
		t.Errorf("trailing slash not trimmed: %q", client.host)
	}
}
