package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// LlamaCppAdapter connects to llama-server's OpenAI-compatible /v1 API.
type LlamaCppAdapter struct {
	BaseURL string
	Client  *http.Client
}

func (l *LlamaCppAdapter) Name() string {
	return "llamacpp"
}

func (l *LlamaCppAdapter) client() openai.Client {
	return openai.NewClient(
		option.WithBaseURL(strings.TrimRight(l.BaseURL, "/")+"/v1/"),
		option.WithAPIKey("no-key"),
		option.WithHTTPClient(l.Client),
		option.WithMaxRetries(0),
	)
}

func (l *LlamaCppAdapter) ListModels(ctx context.Context) ([]string, error) {
	c := l.client()
	page, err := c.Models.List(ctx)
	if err != nil {
		return nil, l.convert(ctx, "list models", err)
	}

	names := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		if m.ID == "" {
			return nil, malformed("llamacpp", "model record without id", nil)
		}
		names = append(names, m.ID)
	}
	return names, nil
}

func (l *LlamaCppAdapter) Generate(ctx context.Context, model, prompt string) (Stream, error) {
	c := l.client()
	stream := c.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, l.convert(ctx, "generate", err)
	}
	return &llamaCppStream{adapter: l, ctx: ctx, stream: stream}, nil
}

func (l *LlamaCppAdapter) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(l.BaseURL, "/")+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// convert maps openai-go errors onto the package's error taxonomy.
func (l *LlamaCppAdapter) convert(ctx context.Context, op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{Backend: "llamacpp", StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("llamacpp: %s: %w", op, ctx.Err())
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return unreachable("llamacpp", err)
	}
	return fmt.Errorf("llamacpp: %s: %w", op, err)
}

type llamaCppStream struct {
	adapter *LlamaCppAdapter
	ctx     context.Context
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *llamaCppStream) Recv() (Chunk, error) {
	for s.stream.Next() {
		ck := s.stream.Current()
		if len(ck.Choices) == 0 {
			continue
		}
		choice := ck.Choices[0]
		done := choice.FinishReason != ""
		if choice.Delta.Content == "" && !done {
			continue
		}
		return Chunk{Text: choice.Delta.Content, Done: done}, nil
	}
	if err := s.stream.Err(); err != nil {
		return Chunk{}, s.adapter.convert(s.ctx, "read stream", err)
	}
	return Chunk{}, io.EOF
}

func (s *llamaCppStream) Close() error {
	return s.stream.Close()
}
