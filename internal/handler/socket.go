package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mlorentedev/quill/internal/assistant"
	"github.com/mlorentedev/quill/internal/engine"
)

// socketRequest is the single message a client sends after the handshake.
type socketRequest struct {
	Mode           string `json:"mode"`
	Text           string `json:"text"`
	Language       string `json:"language"`
	Task           string `json:"task"`
	CodeSnippet    string `json:"code_snippet"`
	ModelID        string `json:"model_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (req socketRequest) runner(a *assistant.Assistant) (runFunc, error) {
	switch req.Mode {
	case "revise":
		r, err := reviseRequest{
			Text:           req.Text,
			Language:       req.Language,
			ModelID:        req.ModelID,
			TimeoutSeconds: req.TimeoutSeconds,
		}.validate()
		if err != nil {
			return nil, err
		}
		return runRevision(a, r), nil
	case "code":
		r, err := codeRequest{
			Task:           req.Task,
			CodeSnippet:    req.CodeSnippet,
			ModelID:        req.ModelID,
			TimeoutSeconds: req.TimeoutSeconds,
		}.validate()
		if err != nil {
			return nil, err
		}
		return runCoding(a, r), nil
	case "":
		return nil, errors.New("mode is required")
	default:
		return nil, fmt.Errorf("unknown mode %q (want revise or code)", req.Mode)
	}
}

// Socket serves one streamed answer per WebSocket connection. Each update
// is a text message carrying the same object as an NDJSON line, followed by
// the summary and a normal closure.
func Socket(a *assistant.Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Origins are as open as the CORS policy.
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			slog.Warn("websocket accept", "error", err)
			return
		}
		defer c.CloseNow()

		ctx := r.Context()
		var msg socketRequest
		if err := wsjson.Read(ctx, c, &msg); err != nil {
			slog.Warn("websocket read", "error", err)
			c.Close(websocket.StatusUnsupportedData, "expected a JSON request")
			return
		}

		run, err := msg.runner(a)
		if err != nil {
			wsjson.Write(ctx, c, errorResponse{Error: err.Error()})
			c.Close(websocket.StatusPolicyViolation, "invalid request")
			return
		}

		// Anything else the client sends is discarded; its going away cancels ctx.
		ctx = c.CloseRead(ctx)

		res := run(ctx, func(u engine.Update) bool {
			return wsjson.Write(ctx, c, lineOf(u)) == nil
		})
		if res.State == engine.Abandoned {
			return
		}
		if err := wsjson.Write(ctx, c, summaryOf(res)); err != nil {
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}
