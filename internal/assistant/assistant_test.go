package assistant

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlorentedev/quill/internal/adapter"
	"github.com/mlorentedev/quill/internal/engine"
	"github.com/mlorentedev/quill/internal/prompt"
)

// recordingBackend remembers the last generation request.
type recordingBackend struct {
	adapter.MockAdapter
	model  string
	prompt string
}

func (r *recordingBackend) Generate(ctx context.Context, model, p string) (adapter.Stream, error) {
	r.model = model
	r.prompt = p
	return r.MockAdapter.Generate(ctx, model, p)
}

func newAssistant(b adapter.Backend, cfg Config) *Assistant {
	return New(engine.New(b), cfg)
}

func TestReviseTextStreamsCumulativeRevision(t *testing.T) {
	b := &recordingBackend{MockAdapter: adapter.MockAdapter{Chunks: []string{"I have", " one apple."}}}
	a := newAssistant(b, Config{})

	got := slices.Collect(a.ReviseText(context.Background(), RevisionRequest{
		Text:     "I has one apple.",
		Language: prompt.English,
		Model:    "llama3.1:latest",
	}))

	assert.Equal(t, []string{"I have", "I have one apple."}, got)
	assert.Equal(t, "llama3.1:latest", b.model)
	assert.Equal(t, prompt.Revision(prompt.English, "I has one apple."), b.prompt)
}

func TestReviseTextPortuguesePrompt(t *testing.T) {
	b := &recordingBackend{MockAdapter: adapter.MockAdapter{Chunks: []string{"ok"}}}
	a := newAssistant(b, Config{})

	for range a.ReviseText(context.Background(), RevisionRequest{Text: "eu tem", Language: prompt.Portuguese, Model: "m"}) {
	}

	assert.True(t, strings.HasSuffix(b.prompt, "Texto revisado:"))
	assert.Contains(t, b.prompt, "eu tem")
}

func TestAssistWithCodingDefaultsModel(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		model string
		want  string
	}{
		{"built-in default", Config{}, "", DefaultCodingModel},
		{"configured default", Config{CodingModel: "qwen2.5-coder:7b"}, "", "qwen2.5-coder:7b"},
		{"explicit model", Config{CodingModel: "qwen2.5-coder:7b"}, "phi3:mini", "phi3:mini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &recordingBackend{MockAdapter: adapter.MockAdapter{Chunks: []string{"x"}}}
			a := newAssistant(b, tt.cfg)

			got := slices.Collect(a.AssistWithCoding(context.Background(), CodingRequest{Task: "reverse a list", Model: tt.model}))

			assert.Equal(t, []string{"x"}, got)
			assert.Equal(t, tt.want, b.model)
		})
	}
}

func TestAssistWithCodingPromptCarriesSnippet(t *testing.T) {
	b := &recordingBackend{MockAdapter: adapter.MockAdapter{Chunks: []string{"x"}}}
	a := newAssistant(b, Config{})

	for range a.AssistWithCoding(context.Background(), CodingRequest{Task: "fix it", Snippet: "x = 1"}) {
	}

	assert.Equal(t, prompt.Coding("fix it", "x = 1"), b.prompt)
	assert.Contains(t, b.prompt, "```python\nx = 1\n```")
}

func TestReviseTextModelUnavailable(t *testing.T) {
	a := newAssistant(&adapter.MockAdapter{Models: []string{"llama3.1:latest"}}, Config{})

	got := slices.Collect(a.ReviseText(context.Background(), RevisionRequest{
		Text:     "hi",
		Language: prompt.English,
		Model:    "missing",
	}))

	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "Error:"))
	assert.Contains(t, got[0], "selected model is available")
}

func TestDefaultTimeoutApplies(t *testing.T) {
	b := &adapter.MockAdapter{Chunks: []string{"a"}, Endless: true, Delay: 5 * time.Millisecond}
	a := newAssistant(b, Config{DefaultTimeout: 30 * time.Millisecond})

	var last engine.Update
	n := 0
	for u := range a.Revise(context.Background(), RevisionRequest{Text: "t", Language: prompt.English, Model: "mock"}) {
		last = u
		n++
		require.Less(t, n, 1000, "stream did not stop")
	}

	assert.Equal(t, engine.Truncated, last.State)
	assert.True(t, strings.HasSuffix(last.Text, engine.TruncationMarker))
}

func TestRequestTimeoutOverridesDefault(t *testing.T) {
	b := &adapter.MockAdapter{Chunks: []string{"a"}, Endless: true, Delay: 5 * time.Millisecond}
	a := newAssistant(b, Config{DefaultTimeout: time.Hour})

	res := a.RunCoding(context.Background(), CodingRequest{Task: "t", Model: "mock", Timeout: 30 * time.Millisecond},
		func(engine.Update) bool { return true })

	assert.Equal(t, engine.Truncated, res.State)
	assert.Positive(t, res.Chunks)
}

func TestRunRevisionReportsResult(t *testing.T) {
	a := newAssistant(&adapter.MockAdapter{Chunks: []string{"a", "b", "c"}}, Config{})

	var texts []string
	res := a.RunRevision(context.Background(), RevisionRequest{Text: "t", Language: prompt.English, Model: "mock"},
		func(u engine.Update) bool {
			texts = append(texts, u.Text)
			return true
		})

	assert.Equal(t, engine.Complete, res.State)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, []string{"a", "ab", "abc"}, texts)
}

func TestCodingModel(t *testing.T) {
	assert.Equal(t, DefaultCodingModel, New(nil, Config{}).CodingModel())
	assert.Equal(t, "m", New(nil, Config{CodingModel: "m"}).CodingModel())
}
