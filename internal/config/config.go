package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port               int    `yaml:"port"`
	Backend            string `yaml:"backend"`
	OllamaURL          string `yaml:"ollama_url"`
	LlamaCppURL        string `yaml:"llamacpp_url"`
	ClaudeAPIKey       string `yaml:"claude_api_key"`
	DefaultModel       string `yaml:"default_model"`
	CodingModel        string `yaml:"coding_model"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	APIKey             string `yaml:"api_key"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
}

func defaults() Config {
	return Config{
		Port:               8090,
		Backend:            "ollama",
		OllamaURL:          "http://localhost:11434",
		LlamaCppURL:        "http://localhost:8080",
		DefaultModel:       "llama3.1:latest",
		CodingModel:        "llama3.1:latest",
		TimeoutSeconds:     60,
		RateLimitPerMinute: 10,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load loads configuration from a YAML file (if path is non-empty),
// then applies QUILL_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"QUILL_PORT", &cfg.Port},
		{"QUILL_TIMEOUT_SECONDS", &cfg.TimeoutSeconds},
		{"QUILL_RATE_LIMIT_PER_MINUTE", &cfg.RateLimitPerMinute},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", e.key, v, err)
		}
		*e.dst = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"QUILL_BACKEND", &cfg.Backend},
		{"QUILL_OLLAMA_URL", &cfg.OllamaURL},
		{"QUILL_LLAMACPP_URL", &cfg.LlamaCppURL},
		{"QUILL_CLAUDE_API_KEY", &cfg.ClaudeAPIKey},
		{"QUILL_DEFAULT_MODEL", &cfg.DefaultModel},
		{"QUILL_CODING_MODEL", &cfg.CodingModel},
		{"QUILL_API_KEY", &cfg.APIKey},
		{"QUILL_LOG_LEVEL", &cfg.LogLevel},
		{"QUILL_LOG_FORMAT", &cfg.LogFormat},
	}
	for _, e := range strs {
		if v := os.Getenv(e.key); v != "" {
			*e.dst = v
		}
	}
	return nil
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	switch c.Backend {
	case "ollama", "llamacpp", "claude":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config: negative timeout_seconds %d", c.TimeoutSeconds)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("config: negative rate_limit_per_minute %d", c.RateLimitPerMinute)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	return nil
}

// Timeout is the default streaming budget.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
