package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"

	"github.com/mlorentedev/quill/internal/adapter"
	"github.com/mlorentedev/quill/internal/config"
)

// loadDotEnv loads environment variables from path. If the file does not exist
// it is silently ignored so that .env files remain optional.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// streamingClient has no overall timeout: a response body may legitimately
// stream for as long as the engine budget allows. Only waiting for headers
// (which covers model loading) is bounded.
func streamingClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 120 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

func buildBackend(cfg config.Config, useMock bool) adapter.Backend {
	if useMock {
		slog.Info("mode: mock backend enabled")
		return &adapter.MockAdapter{Delay: 100 * time.Millisecond}
	}

	switch cfg.Backend {
	case "llamacpp":
		slog.Info("mode: llama.cpp", "url", cfg.LlamaCppURL)
		return &adapter.LlamaCppAdapter{BaseURL: cfg.LlamaCppURL, Client: streamingClient()}
	case "claude":
		slog.Info("mode: claude")
		return &adapter.ClaudeAdapter{APIKey: cfg.ClaudeAPIKey, Client: streamingClient()}
	default:
		slog.Info("mode: ollama", "url", cfg.OllamaURL)
		return &adapter.OllamaAdapter{BaseURL: cfg.OllamaURL, Client: streamingClient()}
	}
}

// renderMarkdown converts markdown text to terminal-formatted output using
// glamour. Falls back to plain text if rendering fails.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// readInput joins args, or reads r when there are none.
func readInput(args []string, r io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
