package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mlorentedev/quill/internal/engine"
)

// streamLine is one element of a streamed answer.
type streamLine struct {
	Text  string `json:"text"`
	State string `json:"state"`
}

// streamSummary closes every stream.
type streamSummary struct {
	Done      bool   `json:"done"`
	State     string `json:"state"`
	Chunks    int    `json:"chunks"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

func lineOf(u engine.Update) streamLine {
	return streamLine{Text: u.Text, State: u.State.String()}
}

func summaryOf(res engine.Result) streamSummary {
	return streamSummary{
		Done:      true,
		State:     res.State.String(),
		Chunks:    res.Chunks,
		ElapsedMs: res.Elapsed.Milliseconds(),
	}
}

// ndjsonWriter writes one JSON value per line and flushes after each, so
// the client sees every update as soon as it is produced.
type ndjsonWriter struct {
	enc *json.Encoder
	rc  *http.ResponseController
}

func newNDJSONWriter(w http.ResponseWriter) *ndjsonWriter {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	return &ndjsonWriter{enc: json.NewEncoder(w), rc: http.NewResponseController(w)}
}

func (n *ndjsonWriter) write(v any) error {
	if err := n.enc.Encode(v); err != nil {
		return err
	}
	if err := n.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// runFunc drives one generation, handing each update to yield.
type runFunc func(ctx context.Context, yield func(engine.Update) bool) engine.Result

// stream forwards updates until the client goes away, then writes the summary.
func (n *ndjsonWriter) stream(ctx context.Context, run runFunc) {
	res := run(ctx, func(u engine.Update) bool {
		return n.write(lineOf(u)) == nil
	})
	if res.State != engine.Abandoned {
		n.write(summaryOf(res))
	}
}
