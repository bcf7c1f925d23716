package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mlorentedev/quill/internal/adapter"
	"github.com/mlorentedev/quill/internal/config"
	"github.com/mlorentedev/quill/internal/server"
)

const usage = `usage: quill [command] [flags]

commands:
  serve    run the HTTP API (default)
  revise   revise text from the arguments or stdin
  code     ask for help with a coding task
  models   list the models installed on the backend

run "quill <command> -h" for the flags of a command`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, errorLine(err))
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return serve(args)
	case "revise":
		return revise(args, stdin, stdout)
	case "code":
		return code(args, stdin, stdout)
	case "models":
		return models(args, stdout)
	case "help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	common := bindCommon(fs)
	port := fs.Int("port", 0, "override listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, backend, err := common.setup()
	if err != nil {
		return err
	}
	if *port > 0 {
		cfg.Port = *port
	}

	handler := server.SetupMux(backend, cfg)

	if cfg.APIKey != "" {
		slog.Info("auth: API key required (X-API-Key header)")
	} else {
		slog.Info("auth: disabled (no api_key configured)")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		slog.Info("quill api listening", "addr", addr, "backend", backend.Name())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}
	slog.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configPath *string
	envFile    *string
	useMock    *bool
}

func bindCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", "", "path to config.yaml"),
		envFile:    fs.String("env", ".env", "path to .env file (ignored if missing)"),
		useMock:    fs.Bool("mock", false, "use the mock backend instead of a real inference server"),
	}
}

// setup loads .env and config, installs the logger, and builds the backend.
func (c commonFlags) setup() (config.Config, adapter.Backend, error) {
	if err := loadDotEnv(*c.envFile); err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, buildBackend(cfg, *c.useMock), nil
}
