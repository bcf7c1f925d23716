// Package engine drives a streaming generation call and re-emits the
// cumulative text after every chunk, cutting the stream off once a
// wall-clock budget is spent.
//
// The budget is checked after each chunk, never preemptively: a single slow
// chunk can overrun it by an arbitrary amount.
package engine

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mlorentedev/quill/internal/adapter"
	"github.com/mlorentedev/quill/internal/metrics"
)

// TruncationMarker is appended to the last element of a stream that ran out of time.
const TruncationMarker = "\n\n[Response truncated due to timeout]"

// State describes an element of the output sequence, or how a stream ended.
type State int

const (
	Streaming State = iota
	Complete
	Truncated
	Failed
	Abandoned
)

func (s State) String() string {
	switch s {
	case Streaming:
		return "partial"
	case Complete:
		return "complete"
	case Truncated:
		return "truncated"
	case Failed:
		return "error"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Update is one element of the output sequence. Text is cumulative for
// Streaming and Truncated updates and a standalone message for Failed ones.
type Update struct {
	Text  string
	State State
}

// Result summarizes a finished stream.
type Result struct {
	State   State
	Chunks  int
	Elapsed time.Duration
	// Err is set when State is Failed.
	Err error
}

// DefaultModelLabelLimit caps the distinct model names an engine reports as
// metric labels.
const DefaultModelLabelLimit = 32

// Engine runs generations against a single backend.
type Engine struct {
	backend adapter.Backend
	now     func() time.Time
	logger  *slog.Logger
	labels  *modelLabels
}

type Option func(*Engine)

// WithModelLabelLimit sets how many distinct model names are used as metric
// labels before further names are reported as "other".
func WithModelLabelLimit(n int) Option {
	return func(e *Engine) { e.labels = newModelLabels(n) }
}

// WithClock replaces time.Now for budget accounting.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func New(backend adapter.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		now:     time.Now,
		logger:  slog.Default(),
		labels:  newModelLabels(DefaultModelLabelLimit),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backend returns the backend the engine generates against.
func (e *Engine) Backend() adapter.Backend {
	return e.backend
}

// Stream returns the cumulative text of a generation as a lazy sequence.
// Nothing is sent to the backend until the sequence is ranged over, and
// every range issues a fresh generation call.
func (e *Engine) Stream(ctx context.Context, model, prompt string, timeout time.Duration) iter.Seq[string] {
	return func(yield func(string) bool) {
		e.Run(ctx, model, prompt, timeout, func(u Update) bool {
			return yield(u.Text)
		})
	}
}

// Updates is Stream with each element tagged by its State.
func (e *Engine) Updates(ctx context.Context, model, prompt string, timeout time.Duration) iter.Seq[Update] {
	return func(yield func(Update) bool) {
		e.Run(ctx, model, prompt, timeout, yield)
	}
}

// Run performs one generation, calling yield with every update. A
// non-positive timeout disables truncation. Backend failures never escape
// as errors: they become a final Failed update. If yield returns false, or
// ctx ends while the backend is failing, the stream is released and Run
// returns with State Abandoned.
func (e *Engine) Run(ctx context.Context, model, prompt string, timeout time.Duration, yield func(Update) bool) Result {
	start := e.now()
	res := e.run(ctx, model, prompt, timeout, start, yield)
	res.Elapsed = e.now().Sub(start)
	e.record(model, res)
	return res
}

func (e *Engine) run(ctx context.Context, model, prompt string, timeout time.Duration, start time.Time, yield func(Update) bool) Result {
	stream, err := e.backend.Generate(ctx, model, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return Result{State: Abandoned}
		}
		yield(Update{Text: ErrorMessage(err), State: Failed})
		return Result{State: Failed, Err: err}
	}
	defer stream.Close()

	var (
		acc    strings.Builder
		chunks int
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return Result{State: Complete, Chunks: chunks}
		}
		if err != nil {
			// The caller is gone; a read error now says nothing about the backend.
			if ctx.Err() != nil {
				return Result{State: Abandoned, Chunks: chunks}
			}
			yield(Update{Text: ErrorMessage(err), State: Failed})
			return Result{State: Failed, Chunks: chunks, Err: err}
		}

		// A bare completion marker carries no new text and is not re-emitted.
		if !chunk.Done || chunk.Text != "" {
			chunks++
			acc.WriteString(chunk.Text)
			if !yield(Update{Text: acc.String(), State: Streaming}) {
				return Result{State: Abandoned, Chunks: chunks}
			}
		}
		if chunk.Done {
			return Result{State: Complete, Chunks: chunks}
		}

		if timeout > 0 && e.now().Sub(start) > timeout {
			yield(Update{Text: acc.String() + TruncationMarker, State: Truncated})
			return Result{State: Truncated, Chunks: chunks}
		}
	}
}

func (e *Engine) record(model string, res Result) {
	label := e.labels.label(model, res.Chunks > 0)
	metrics.StreamDuration.WithLabelValues(label, res.State.String()).Observe(res.Elapsed.Seconds())
	metrics.StreamChunks.WithLabelValues(label).Observe(float64(res.Chunks))
	metrics.StreamsTotal.WithLabelValues(res.State.String()).Inc()

	attrs := []any{
		"backend", e.backend.Name(),
		"model", model,
		"state", res.State.String(),
		"chunks", res.Chunks,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	}
	if res.Err != nil {
		kind := Classify(res.Err)
		metrics.StreamErrors.WithLabelValues(kind.String()).Inc()
		e.logger.Warn("stream failed", append(attrs, "kind", kind.String(), "error", res.Err)...)
		return
	}
	e.logger.Info("stream finished", attrs...)
}

// modelLabels bounds the model label values. Model names come from callers,
// so only names that produced at least one chunk are admitted, up to limit
// of them.
type modelLabels struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	limit int
}

func newModelLabels(limit int) *modelLabels {
	return &modelLabels{seen: make(map[string]struct{}), limit: limit}
}

// label returns the metric label for model. A model that has not been
// admitted yet is reported as "unknown" when admit is false, and as "other"
// once the limit is reached.
func (l *modelLabels) label(model string, admit bool) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[model]; ok {
		return model
	}
	if !admit {
		return "unknown"
	}
	if len(l.seen) >= l.limit {
		return "other"
	}
	l.seen[model] = struct{}{}
	return model
}
