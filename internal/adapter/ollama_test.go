package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newOllama(url string) *OllamaAdapter {
	return &OllamaAdapter{
		BaseURL: url,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func drain(t *testing.T, s Stream) ([]Chunk, error) {
	t.Helper()
	var out []Chunk
	for {
		c, err := s.Recv()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}

func TestOllamaAdapterGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/generate" {
			t.Errorf("expected /api/generate, got %s", r.URL.Path)
		}

		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama3.1:latest" {
			t.Errorf("model: got %q, want %q", req.Model, "llama3.1:latest")
		}
		if !req.Stream {
			t.Error("expected stream=true")
		}
		if req.Prompt != "Fix: i goes to store" {
			t.Errorf("prompt: got %q", req.Prompt)
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		enc.Encode(ollamaGenerateChunk{Response: "I went"})
		enc.Encode(ollamaGenerateChunk{Response: " to the store."})
		enc.Encode(ollamaGenerateChunk{Done: true})
	}))
	defer srv.Close()

	s, err := newOllama(srv.URL).Generate(context.Background(), "llama3.1:latest", "Fix: i goes to store")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer s.Close()

	chunks, err := drain(t, s)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	want := []Chunk{{Text: "I went"}, {Text: " to the store."}, {Done: true}}
	if len(chunks) != len(want) {
		t.Fatalf("chunks: got %d, want %d (%v)", len(chunks), len(want), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: got %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func TestOllamaAdapterGenerateModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ollamaErrorResponse{Error: `model "nope" not found, try pulling it first`})
	}))
	defer srv.Close()

	_, err := newOllama(srv.URL).Generate(context.Background(), "nope", "hello")
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", apiErr.StatusCode, http.StatusNotFound)
	}
}

func TestOllamaAdapterGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newOllama(srv.URL).Generate(context.Background(), "llama3.1:latest", "hello")
	if err == nil {
		t.Fatal("expected error on 500 response, got nil")
	}
	if errors.Is(err, ErrModelNotFound) {
		t.Error("500 must not be classified as model not found")
	}
}

func TestOllamaAdapterGenerateMidStreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(ollamaGenerateChunk{Response: "partial"})
		enc.Encode(ollamaGenerateChunk{Error: "out of memory"})
	}))
	defer srv.Close()

	s, err := newOllama(srv.URL).Generate(context.Background(), "llama3.1:latest", "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer s.Close()

	chunks, err := drain(t, s)
	if len(chunks) != 1 || chunks[0].Text != "partial" {
		t.Errorf("chunks before error: got %v", chunks)
	}
	if err == nil || err.Error() != "ollama: out of memory" {
		t.Errorf("error: got %v, want %q", err, "ollama: out of memory")
	}
}

func TestOllamaAdapterGenerateMalformedChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "{not json")
	}))
	defer srv.Close()

	s, err := newOllama(srv.URL).Generate(context.Background(), "llama3.1:latest", "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer s.Close()

	_, err = s.Recv()
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestOllamaAdapterGenerateContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newOllama(srv.URL).Generate(ctx, "llama3.1:latest", "hello")
	if err == nil {
		t.Fatal("expected error on cancelled context, got nil")
	}
	if errors.Is(err, ErrUnreachable) {
		t.Error("cancelled context must not be reported as unreachable")
	}
}

func TestOllamaAdapterListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("expected /api/tags, got %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"models":[{"name":"llama3.1:latest","model":"llama3.1:latest"},{"name":"qwen2.5:1.5b"},{"model":"phi3:mini"}]}`)
	}))
	defer srv.Close()

	got, err := newOllama(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	want := []string{"llama3.1:latest", "qwen2.5:1.5b", "phi3:mini"}
	if len(got) != len(want) {
		t.Fatalf("models: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("model %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOllamaAdapterListModelsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>"},
		{"missing models field", `{"tags":[]}`},
		{"record without name", `{"models":[{"size":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := newOllama(srv.URL).ListModels(context.Background())
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestOllamaAdapterUnreachable(t *testing.T) {
	a := &OllamaAdapter{
		BaseURL: "http://127.0.0.1:1",
		Client:  &http.Client{Timeout: 1 * time.Second},
	}

	if _, err := a.ListModels(context.Background()); !errors.Is(err, ErrUnreachable) {
		t.Errorf("ListModels: expected ErrUnreachable, got %v", err)
	}
	if _, err := a.Generate(context.Background(), "m", "p"); !errors.Is(err, ErrUnreachable) {
		t.Errorf("Generate: expected ErrUnreachable, got %v", err)
	}
	if a.Available() {
		t.Error("expected not available when server is unreachable")
	}
}

func TestOllamaAdapterAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !newOllama(srv.URL).Available() {
		t.Error("expected available when server is up")
	}
}

func TestOllamaAdapterName(t *testing.T) {
	a := &OllamaAdapter{}
	if a.Name() != "ollama" {
		t.Errorf("got %q, want %q", a.Name(), "ollama")
	}
}
