package adapter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorModelNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want bool
	}{
		{"404 status", &APIError{Backend: "x", StatusCode: 404}, true},
		{"not found message", &APIError{Backend: "x", StatusCode: 400, Message: "Model Not Found"}, true},
		{"in-stream not found", &APIError{Backend: "x", Message: `model "a" not found`}, true},
		{"server error", &APIError{Backend: "x", StatusCode: 500, Message: "boom"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("generate: %w", tt.err)
			assert.Equal(t, tt.want, errors.Is(wrapped, ErrModelNotFound))
			assert.False(t, errors.Is(wrapped, ErrUnreachable))
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	assert.Equal(t, "ollama: unexpected status 502", (&APIError{Backend: "ollama", StatusCode: 502}).Error())
	assert.Equal(t, "ollama: boom (status 500)", (&APIError{Backend: "ollama", StatusCode: 500, Message: "boom"}).Error())
	assert.Equal(t, "ollama: boom", (&APIError{Backend: "ollama", Message: "boom"}).Error())
}

func TestWrappedSentinels(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	err := unreachable("ollama", cause)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, cause)

	err = malformed("ollama", "decode tags", cause)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.ErrorIs(t, err, cause)

	assert.ErrorIs(t, malformed("ollama", "empty", nil), ErrMalformedResponse)
}
