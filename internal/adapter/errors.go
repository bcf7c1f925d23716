package adapter

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrModelNotFound is reported when the backend rejects the requested model.
	ErrModelNotFound = errors.New("model not found")
	// ErrUnreachable is reported when the backend cannot be contacted at all.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrMalformedResponse is reported when a reply does not have the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-2xx reply from a backend, or an error reported inside
// a stream (StatusCode 0).
type APIError struct {
	Backend    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Message == "":
		return fmt.Sprintf("%s: unexpected status %d", e.Backend, e.StatusCode)
	case e.StatusCode == 0:
		return fmt.Sprintf("%s: %s", e.Backend, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Backend, e.Message, e.StatusCode)
}

// Is lets errors.Is(err, ErrModelNotFound) match a 404 or a "not found" message.
func (e *APIError) Is(target error) bool {
	if target != ErrModelNotFound {
		return false
	}
	return e.StatusCode == http.StatusNotFound || strings.Contains(strings.ToLower(e.Message), "not found")
}

func unreachable(backend string, err error) error {
	return fmt.Errorf("%s: %w: %w", backend, ErrUnreachable, err)
}

func malformed(backend, what string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w: %s", backend, ErrMalformedResponse, what)
	}
	return fmt.Errorf("%s: %w: %s: %w", backend, ErrMalformedResponse, what, err)
}
