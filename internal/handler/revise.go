package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mlorentedev/quill/internal/assistant"
	"github.com/mlorentedev/quill/internal/engine"
	"github.com/mlorentedev/quill/internal/prompt"
)

const (
	maxTextLength  = 10000
	maxTimeoutSecs = 300
)

type reviseRequest struct {
	Text           string `json:"text"`
	Language       string `json:"language"`
	ModelID        string `json:"model_id"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

func (req reviseRequest) validate() (assistant.RevisionRequest, error) {
	if req.Text == "" {
		return assistant.RevisionRequest{}, errors.New("text is required")
	}
	if n := utf8.RuneCountInString(req.Text); n > maxTextLength {
		return assistant.RevisionRequest{}, fmt.Errorf("text too long: %d characters (max %d)", n, maxTextLength)
	}
	lang := prompt.English
	if strings.TrimSpace(req.Language) != "" {
		var err error
		if lang, err = prompt.ParseLanguage(req.Language); err != nil {
			return assistant.RevisionRequest{}, err
		}
	}
	if req.ModelID == "" {
		return assistant.RevisionRequest{}, errors.New("model_id is required")
	}
	timeout, err := validTimeout(req.TimeoutSeconds)
	if err != nil {
		return assistant.RevisionRequest{}, err
	}
	return assistant.RevisionRequest{
		Text:     req.Text,
		Language: lang,
		Model:    req.ModelID,
		Timeout:  timeout,
	}, nil
}

func validTimeout(secs int) (time.Duration, error) {
	if secs < 0 || secs > maxTimeoutSecs {
		return 0, fmt.Errorf("timeout_seconds must be between 0 and %d", maxTimeoutSecs)
	}
	return time.Duration(secs) * time.Second, nil
}

// Revise streams the cumulative revision of the posted text as NDJSON.
func Revise(a *assistant.Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body reviseRequest
		if !decodeBody(w, r, &body) {
			return
		}
		req, err := body.validate()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		newNDJSONWriter(w).stream(r.Context(), runRevision(a, req))
	}
}

func runRevision(a *assistant.Assistant, req assistant.RevisionRequest) runFunc {
	return func(ctx context.Context, yield func(engine.Update) bool) engine.Result {
		return a.RunRevision(ctx, req, yield)
	}
}
