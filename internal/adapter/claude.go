package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

const claudeMaxTokens = 4096

// ClaudeAdapter connects to the Anthropic Messages API. It is the only
// non-local backend and is enabled only when an API key is configured.
type ClaudeAdapter struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func (c *ClaudeAdapter) Name() string {
	return "claude"
}

func (c *ClaudeAdapter) client() anthropic.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		option.WithMaxRetries(0),
	}
	if c.Client != nil {
		opts = append(opts, option.WithHTTPClient(c.Client))
	}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	return anthropic.NewClient(opts...)
}

func (c *ClaudeAdapter) ListModels(ctx context.Context) ([]string, error) {
	client := c.client()
	pager := client.Models.ListAutoPaging(ctx, anthropic.ModelListParams{})

	names := []string{}
	for pager.Next() {
		m := pager.Current()
		if m.ID == "" {
			return nil, malformed("claude", "model record without id", nil)
		}
		names = append(names, m.ID)
	}
	if err := pager.Err(); err != nil {
		return nil, c.convert(ctx, "list models", err)
	}
	return names, nil
}

func (c *ClaudeAdapter) Generate(ctx context.Context, model, prompt string) (Stream, error) {
	client := c.client()
	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, c.convert(ctx, "generate", err)
	}
	return &claudeStream{adapter: c, ctx: ctx, stream: stream}, nil
}

func (c *ClaudeAdapter) Available() bool {
	return c.APIKey != ""
}

func (c *ClaudeAdapter) convert(ctx context.Context, op string, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &APIError{Backend: "claude", StatusCode: apiErr.StatusCode, Message: http.StatusText(apiErr.StatusCode)}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("claude: %s: %w", op, ctx.Err())
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return unreachable("claude", err)
	}
	return fmt.Errorf("claude: %s: %w", op, err)
}

type claudeStream struct {
	adapter *ClaudeAdapter
	ctx     context.Context
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

func (s *claudeStream) Recv() (Chunk, error) {
	for s.stream.Next() {
		switch ev := s.stream.Current().AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if d, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && d.Text != "" {
				return Chunk{Text: d.Text}, nil
			}
		case anthropic.MessageStopEvent:
			return Chunk{Done: true}, nil
		}
	}
	if err := s.stream.Err(); err != nil {
		return Chunk{}, s.adapter.convert(s.ctx, "read stream", err)
	}
	return Chunk{}, io.EOF
}

func (s *claudeStream) Close() error {
	return s.stream.Close()
}
