package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func newClaude(url string) *ClaudeAdapter {
	return &ClaudeAdapter{
		BaseURL: url,
		APIKey:  "sk-test",
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestClaudeAdapterGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(w, "message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-test","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":3,"output_tokens":1}}}`)
		writeEvent(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`)
		writeEvent(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		writeEvent(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":2}}`)
		writeEvent(w, "message_stop", `{"type":"message_stop"}`)
	}))
	defer srv.Close()

	s, err := newClaude(srv.URL).Generate(context.Background(), "claude-test", "say hello")
	require.NoError(t, err)
	defer s.Close()

	chunks, err := drain(t, s)
	require.NoError(t, err)
	assert.Equal(t, []Chunk{{Text: "Hello"}, {Text: " world"}, {Done: true}}, chunks)
}

func TestClaudeAdapterModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"type":"error","error":{"type":"not_found_error","message":"model: nope"}}`)
	}))
	defer srv.Close()

	_, err := newClaude(srv.URL).Generate(context.Background(), "nope", "p")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestClaudeAdapterListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"claude-sonnet-4-5","type":"model","display_name":"Claude Sonnet 4.5","created_at":"2025-09-29T00:00:00Z"}],"has_more":false,"first_id":"claude-sonnet-4-5","last_id":"claude-sonnet-4-5"}`)
	}))
	defer srv.Close()

	got, err := newClaude(srv.URL).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"claude-sonnet-4-5"}, got)
}

func TestClaudeAdapterListModelsFollowsPages(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("after_id") {
		case "":
			fmt.Fprint(w, `{"data":[{"id":"claude-a","type":"model","display_name":"A","created_at":"2025-01-01T00:00:00Z"}],"has_more":true,"first_id":"claude-a","last_id":"claude-a"}`)
		case "claude-a":
			fmt.Fprint(w, `{"data":[{"id":"claude-b","type":"model","display_name":"B","created_at":"2025-01-01T00:00:00Z"}],"has_more":false,"first_id":"claude-b","last_id":"claude-b"}`)
		default:
			t.Errorf("unexpected after_id %q", r.URL.Query().Get("after_id"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	got, err := newClaude(srv.URL).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"claude-a", "claude-b"}, got)
	assert.Equal(t, 2, calls)
}

func TestClaudeAdapterAvailable(t *testing.T) {
	assert.True(t, (&ClaudeAdapter{APIKey: "sk"}).Available())
	assert.False(t, (&ClaudeAdapter{}).Available())
	assert.Equal(t, "claude", (&ClaudeAdapter{}).Name())
}
