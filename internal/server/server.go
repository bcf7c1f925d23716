package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mlorentedev/quill/internal/adapter"
	"github.com/mlorentedev/quill/internal/assistant"
	"github.com/mlorentedev/quill/internal/config"
	"github.com/mlorentedev/quill/internal/directory"
	"github.com/mlorentedev/quill/internal/engine"
	"github.com/mlorentedev/quill/internal/handler"
	"github.com/mlorentedev/quill/internal/middleware"
)

// SetupMux wires handlers for backend with the full middleware chain.
func SetupMux(backend adapter.Backend, cfg config.Config) http.Handler {
	eng := engine.New(backend)
	asst := assistant.New(eng, assistant.Config{
		CodingModel:    cfg.CodingModel,
		DefaultTimeout: cfg.Timeout(),
	})
	dir := directory.New(backend)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", handler.Health(backend))
	mux.HandleFunc("/api/models", handler.Models(dir, cfg.DefaultModel))
	mux.HandleFunc("/api/revise", handler.Revise(asst))
	mux.HandleFunc("/api/code", handler.Code(asst))
	mux.HandleFunc("/api/ws", handler.Socket(asst))
	mux.Handle("/metrics", promhttp.Handler())

	var rl *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		rl = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	return middleware.Chain(mux, middleware.Options{RateLimiter: rl, APIKey: cfg.APIKey})
}
