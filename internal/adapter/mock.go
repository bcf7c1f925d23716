package adapter

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

// MockAdapter replays scripted chunks with a configurable delay between them.
// Used for development and testing without a real LLM backend.
type MockAdapter struct {
	Models []string
	// Chunks is the scripted output. When empty, the prompt's last line is
	// echoed back word by word.
	Chunks []string
	Delay  time.Duration
	// Endless keeps repeating Chunks and never completes.
	Endless bool
	// ListErr and GenerateErr force failures.
	ListErr     error
	GenerateErr error
	// StreamErr is returned after all Chunks have been delivered.
	StreamErr error
}

func (m *MockAdapter) Name() string { return "mock" }

func (m *MockAdapter) ListModels(ctx context.Context) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if m.Models == nil {
		return []string{"mock"}, nil
	}
	return slices.Clone(m.Models), nil
}

func (m *MockAdapter) Generate(ctx context.Context, model, prompt string) (Stream, error) {
	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}
	if m.Models != nil && !slices.Contains(m.Models, model) {
		return nil, &APIError{Backend: "mock", StatusCode: 404, Message: fmt.Sprintf("model %q not found", model)}
	}

	chunks := m.Chunks
	if len(chunks) == 0 {
		chunks = echoChunks(prompt)
	}
	return &mockStream{ctx: ctx, chunks: chunks, delay: m.Delay, endless: m.Endless, tailErr: m.StreamErr}, nil
}

func (m *MockAdapter) Available() bool { return true }

// echoChunks splits the last non-empty line of the prompt into word chunks.
func echoChunks(prompt string) []string {
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	last := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			last = s
			break
		}
	}
	words := strings.Fields(last)
	chunks := make([]string, len(words))
	for i, w := range words {
		if i > 0 {
			w = " " + w
		}
		chunks[i] = w
	}
	return chunks
}

type mockStream struct {
	ctx     context.Context
	chunks  []string
	delay   time.Duration
	endless bool
	tailErr error
	pos     int
	closed  bool
}

func (s *mockStream) Recv() (Chunk, error) {
	if s.closed {
		return Chunk{}, fmt.Errorf("mock: recv on closed stream")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-s.ctx.Done():
			return Chunk{}, fmt.Errorf("mock: %w", s.ctx.Err())
		}
	}

	if s.endless {
		if len(s.chunks) == 0 {
			return Chunk{Text: "."}, nil
		}
		c := s.chunks[s.pos%len(s.chunks)]
		s.pos++
		return Chunk{Text: c}, nil
	}

	if s.pos >= len(s.chunks) {
		if s.tailErr != nil {
			return Chunk{}, s.tailErr
		}
		return Chunk{}, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return Chunk{Text: c}, nil
}

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}
