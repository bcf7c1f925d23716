// Package directory lists the models installed on the inference backend.
package directory

import (
	"context"
	"log/slog"
	"slices"

	"github.com/mlorentedev/quill/internal/adapter"
	"github.com/mlorentedev/quill/internal/metrics"
)

// Reporter receives listing failures. It is the side channel through which
// a failed lookup is surfaced while List itself degrades to an empty result.
type Reporter func(err error)

type Directory struct {
	backend adapter.Backend
	report  Reporter
}

type Option func(*Directory)

func WithReporter(r Reporter) Option {
	return func(d *Directory) { d.report = r }
}

func New(backend adapter.Backend, opts ...Option) *Directory {
	d := &Directory{
		backend: backend,
		report: func(err error) {
			slog.Error("list models", "backend", backend.Name(), "error", err)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// List asks the backend for its installed models, preserving its order.
// Every call hits the backend. On failure the error goes to the reporter and
// List returns an empty, non-nil slice.
func (d *Directory) List(ctx context.Context) []string {
	models, err := d.backend.ListModels(ctx)
	if err != nil {
		metrics.ModelListFailures.Inc()
		d.report(err)
		return []string{}
	}
	if models == nil {
		return []string{}
	}
	return models
}

// Default picks preferred when it is installed, otherwise the first model.
// It reports false when models is empty; callers must then stop rather
// than guess a model.
func Default(models []string, preferred string) (string, bool) {
	if len(models) == 0 {
		return "", false
	}
	if preferred != "" && slices.Contains(models, preferred) {
		return preferred, true
	}
	return models[0], true
}
