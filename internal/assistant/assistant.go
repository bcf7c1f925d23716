// Package assistant is the caller-facing surface: it turns revision and
// coding requests into prompts and streams the model's cumulative answer.
package assistant

import (
	"context"
	"iter"
	"time"

	"github.com/mlorentedev/quill/internal/engine"
	"github.com/mlorentedev/quill/internal/metrics"
	"github.com/mlorentedev/quill/internal/prompt"
)

const (
	DefaultCodingModel = "llama3.1:latest"
	DefaultTimeout     = 60 * time.Second
)

// RevisionRequest asks for a corrected version of Text.
type RevisionRequest struct {
	Text     string
	Language prompt.Language
	Model    string
	// Timeout bounds the stream; zero means the configured default.
	Timeout time.Duration
}

// CodingRequest asks for help with Task, optionally about Snippet.
type CodingRequest struct {
	Task    string
	Snippet string
	// Model and Timeout fall back to the configured defaults when zero.
	Model   string
	Timeout time.Duration
}

type Config struct {
	CodingModel    string
	DefaultTimeout time.Duration
}

type Assistant struct {
	engine *engine.Engine
	cfg    Config
}

func New(e *engine.Engine, cfg Config) *Assistant {
	if cfg.CodingModel == "" {
		cfg.CodingModel = DefaultCodingModel
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	return &Assistant{engine: e, cfg: cfg}
}

// ReviseText streams the cumulative revision of req.Text.
func (a *Assistant) ReviseText(ctx context.Context, req RevisionRequest) iter.Seq[string] {
	return texts(a.Revise(ctx, req))
}

// AssistWithCoding streams the cumulative answer to a coding task.
func (a *Assistant) AssistWithCoding(ctx context.Context, req CodingRequest) iter.Seq[string] {
	return texts(a.Code(ctx, req))
}

// Revise is ReviseText with every element tagged by its engine state.
func (a *Assistant) Revise(ctx context.Context, req RevisionRequest) iter.Seq[engine.Update] {
	p := prompt.Revision(req.Language, req.Text)
	metrics.InputChars.WithLabelValues("revise").Observe(float64(len(req.Text)))
	return a.engine.Updates(ctx, req.Model, p, a.timeout(req.Timeout))
}

// Code is AssistWithCoding with every element tagged by its engine state.
func (a *Assistant) Code(ctx context.Context, req CodingRequest) iter.Seq[engine.Update] {
	model := req.Model
	if model == "" {
		model = a.cfg.CodingModel
	}
	p := prompt.Coding(req.Task, req.Snippet)
	metrics.InputChars.WithLabelValues("code").Observe(float64(len(req.Task)))
	return a.engine.Updates(ctx, model, p, a.timeout(req.Timeout))
}

// RunRevision drives a revision to completion, handing each update to yield.
func (a *Assistant) RunRevision(ctx context.Context, req RevisionRequest, yield func(engine.Update) bool) engine.Result {
	p := prompt.Revision(req.Language, req.Text)
	metrics.InputChars.WithLabelValues("revise").Observe(float64(len(req.Text)))
	return a.engine.Run(ctx, req.Model, p, a.timeout(req.Timeout), yield)
}

// RunCoding drives a coding request to completion, handing each update to yield.
func (a *Assistant) RunCoding(ctx context.Context, req CodingRequest, yield func(engine.Update) bool) engine.Result {
	model := req.Model
	if model == "" {
		model = a.cfg.CodingModel
	}
	p := prompt.Coding(req.Task, req.Snippet)
	metrics.InputChars.WithLabelValues("code").Observe(float64(len(req.Task)))
	return a.engine.Run(ctx, model, p, a.timeout(req.Timeout), yield)
}

// CodingModel reports the model used when a coding request names none.
func (a *Assistant) CodingModel() string {
	return a.cfg.CodingModel
}

func (a *Assistant) timeout(d time.Duration) time.Duration {
	if d <= 0 {
		return a.cfg.DefaultTimeout
	}
	return d
}

func texts(updates iter.Seq[engine.Update]) iter.Seq[string] {
	return func(yield func(string) bool) {
		for u := range updates {
			if !yield(u.Text) {
				return
			}
		}
	}
}
