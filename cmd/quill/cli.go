package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mlorentedev/quill/internal/adapter"
	"github.com/mlorentedev/quill/internal/assistant"
	"github.com/mlorentedev/quill/internal/directory"
	"github.com/mlorentedev/quill/internal/engine"
	"github.com/mlorentedev/quill/internal/prompt"
)

var errNoModels = errors.New("no models found; make sure the inference server is running and has a model installed")

// streamFailure carries the message of a Failed update, which is already
// written for the user.
type streamFailure struct {
	msg string
}

func (e *streamFailure) Error() string { return e.msg }

// errorLine formats err for stderr. Stream failures are printed as they are.
func errorLine(err error) string {
	var sf *streamFailure
	if errors.As(err, &sf) {
		return sf.msg
	}
	return "error: " + err.Error()
}

func revise(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("revise", flag.ContinueOnError)
	common := bindCommon(fs)
	lang := fs.String("lang", "English", "language of the text (English or Portuguese)")
	model := fs.String("model", "", "model to use (default: configured default_model, else the first installed)")
	timeout := fs.Duration("timeout", 0, "streaming budget (default: configured timeout_seconds)")
	render := fs.Bool("render", false, "print the final text once, rendered as markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	language, err := prompt.ParseLanguage(*lang)
	if err != nil {
		return err
	}
	text, err := readInput(fs.Args(), stdin)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("no text to revise")
	}

	cfg, backend, err := common.setup()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := *model
	if m == "" {
		var ok bool
		if m, ok = directory.Default(directory.New(backend).List(ctx), cfg.DefaultModel); !ok {
			return errNoModels
		}
	}

	a := newCLIAssistant(backend, cfg.CodingModel, cfg.Timeout())
	updates := a.Revise(ctx, assistant.RevisionRequest{
		Text:     text,
		Language: language,
		Model:    m,
		Timeout:  *timeout,
	})
	return printUpdates(stdout, updates, *render)
}

func code(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("code", flag.ContinueOnError)
	common := bindCommon(fs)
	model := fs.String("model", "", "model to use (default: configured coding_model)")
	snippetPath := fs.String("snippet", "", `file holding a code snippet ("-" for stdin)`)
	timeout := fs.Duration("timeout", 0, "streaming budget (default: configured timeout_seconds)")
	render := fs.Bool("render", false, "print the final answer once, rendered as markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	task := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(task) == "" {
		return errors.New("a task is required")
	}
	var snippet string
	switch *snippetPath {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		snippet = strings.TrimRight(string(data), "\n")
	default:
		data, err := os.ReadFile(*snippetPath)
		if err != nil {
			return fmt.Errorf("read snippet: %w", err)
		}
		snippet = strings.TrimRight(string(data), "\n")
	}

	cfg, backend, err := common.setup()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := newCLIAssistant(backend, cfg.CodingModel, cfg.Timeout())
	updates := a.Code(ctx, assistant.CodingRequest{
		Task:    task,
		Snippet: snippet,
		Model:   *model,
		Timeout: *timeout,
	})
	return printUpdates(stdout, updates, *render)
}

func models(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	common := bindCommon(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, backend, err := common.setup()
	if err != nil {
		return err
	}

	list := directory.New(backend).List(context.Background())
	def, ok := directory.Default(list, cfg.DefaultModel)
	if !ok {
		return errNoModels
	}
	for _, m := range list {
		mark := " "
		if m == def {
			mark = "*"
		}
		fmt.Fprintf(stdout, "%s %s\n", mark, m)
	}
	return nil
}

func newCLIAssistant(backend adapter.Backend, codingModel string, timeout time.Duration) *assistant.Assistant {
	return assistant.New(engine.New(backend), assistant.Config{
		CodingModel:    codingModel,
		DefaultTimeout: timeout,
	})
}

// printUpdates writes each cumulative update as the delta past what is
// already on screen. With render set nothing is shown until the stream ends,
// then the final text is rendered once. A failed stream returns its message
// as the error.
func printUpdates(w io.Writer, updates iter.Seq[engine.Update], render bool) error {
	var shown string
	for u := range updates {
		switch u.State {
		case engine.Failed:
			if shown != "" && !render {
				fmt.Fprintln(w)
			}
			return &streamFailure{msg: u.Text}
		case engine.Streaming, engine.Truncated:
			if render {
				shown = u.Text
				continue
			}
			if strings.HasPrefix(u.Text, shown) {
				io.WriteString(w, u.Text[len(shown):])
			} else {
				fmt.Fprintf(w, "\n%s", u.Text)
			}
			shown = u.Text
		}
	}
	if render {
		fmt.Fprintln(w, renderMarkdown(shown))
		return nil
	}
	fmt.Fprintln(w)
	return nil
}
