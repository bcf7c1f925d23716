package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/mlorentedev/quill/internal/assistant"
	"github.com/mlorentedev/quill/internal/engine"
)

type codeRequest struct {
	Task           string `json:"task"`
	CodeSnippet    string `json:"code_snippet"`
	ModelID        string `json:"model_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (req codeRequest) validate() (assistant.CodingRequest, error) {
	if req.Task == "" {
		return assistant.CodingRequest{}, errors.New("task is required")
	}
	if n := utf8.RuneCountInString(req.Task) + utf8.RuneCountInString(req.CodeSnippet); n > maxTextLength {
		return assistant.CodingRequest{}, fmt.Errorf("task and snippet too long: %d characters (max %d)", n, maxTextLength)
	}
	timeout, err := validTimeout(req.TimeoutSeconds)
	if err != nil {
		return assistant.CodingRequest{}, err
	}
	return assistant.CodingRequest{
		Task:    req.Task,
		Snippet: req.CodeSnippet,
		Model:   req.ModelID,
		Timeout: timeout,
	}, nil
}

// Code streams a coding answer as NDJSON. model_id is optional.
func Code(a *assistant.Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body codeRequest
		if !decodeBody(w, r, &body) {
			return
		}
		req, err := body.validate()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		newNDJSONWriter(w).stream(r.Context(), runCoding(a, req))
	}
}

func runCoding(a *assistant.Assistant, req assistant.CodingRequest) runFunc {
	return func(ctx context.Context, yield func(engine.Update) bool) engine.Result {
		return a.RunCoding(ctx, req, yield)
	}
}
