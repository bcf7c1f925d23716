package adapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxLineSize bounds a single NDJSON line from /api/generate.
const maxLineSize = 1 << 20

// OllamaAdapter connects to a local Ollama instance via /api/tags and /api/generate.
type OllamaAdapter struct {
	BaseURL string
	Client  *http.Client
}

type ollamaTag struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

type ollamaTagsResponse struct {
	Models []ollamaTag `json:"models"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type ollamaErrorResponse struct {
	Error string `json:"error"`
}

func (o *OllamaAdapter) Name() string {
	return "ollama"
}

func (o *OllamaAdapter) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url("/api/tags"), nil)
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ollama: list models: %w", ctx.Err())
		}
		return nil, unreachable("ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.apiError(resp)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, malformed("ollama", "decode tags", err)
	}
	if tags.Models == nil {
		return nil, malformed("ollama", "tags response has no models field", nil)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name == "" {
			return nil, malformed("ollama", "model record without name", nil)
		}
		names = append(names, name)
	}
	return names, nil
}

func (o *OllamaAdapter) Generate(ctx context.Context, model, prompt string) (Stream, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url("/api/generate"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := o.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ollama: generate: %w", ctx.Err())
		}
		return nil, unreachable("ollama", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, o.apiError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &ollamaStream{body: resp.Body, scanner: scanner}, nil
}

func (o *OllamaAdapter) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url("/"), nil)
	if err != nil {
		return false
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (o *OllamaAdapter) url(path string) string {
	return strings.TrimRight(o.BaseURL, "/") + path
}

func (o *OllamaAdapter) apiError(resp *http.Response) error {
	var errResp ollamaErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&errResp)
	return &APIError{Backend: "ollama", StatusCode: resp.StatusCode, Message: errResp.Error}
}

type ollamaStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *ollamaStream) Recv() (Chunk, error) {
	if s.done {
		return Chunk{}, io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var c ollamaGenerateChunk
		if err := json.Unmarshal(line, &c); err != nil {
			return Chunk{}, malformed("ollama", "decode chunk", err)
		}
		if c.Error != "" {
			return Chunk{}, &APIError{Backend: "ollama", Message: c.Error}
		}
		s.done = c.Done
		return Chunk{Text: c.Response, Done: c.Done}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return Chunk{}, fmt.Errorf("ollama: read stream: %w", err)
	}
	s.done = true
	return Chunk{}, io.EOF
}

func (s *ollamaStream) Close() error {
	return s.body.Close()
}
