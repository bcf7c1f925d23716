package engine

import (
	"errors"
	"fmt"

	"github.com/mlorentedev/quill/internal/adapter"
)

// ErrorKind is the coarse classification of a generation failure.
type ErrorKind int

const (
	Unclassified ErrorKind = iota
	ModelUnavailable
	BackendUnreachable
)

func (k ErrorKind) String() string {
	switch k {
	case ModelUnavailable:
		return "model_unavailable"
	case BackendUnreachable:
		return "backend_unreachable"
	default:
		return "unclassified"
	}
}

// Classify maps a backend error onto an ErrorKind. Malformed replies count
// as an unreachable backend.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, adapter.ErrModelNotFound):
		return ModelUnavailable
	case errors.Is(err, adapter.ErrUnreachable), errors.Is(err, adapter.ErrMalformedResponse):
		return BackendUnreachable
	default:
		return Unclassified
	}
}

// ErrorMessage renders err as the single element a failed stream emits.
// Recognized failures start with "Error:".
func ErrorMessage(err error) string {
	switch Classify(err) {
	case ModelUnavailable:
		return fmt.Sprintf("Error: %v. Please make sure the selected model is available.", err)
	case BackendUnreachable:
		return fmt.Sprintf("Error: %v. Please make sure the inference server is running.", err)
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}
