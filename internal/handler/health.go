package handler

import (
	"net/http"

	"github.com/mlorentedev/quill/internal/adapter"
	"github.com/mlorentedev/quill/internal/metrics"
)

type backendStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type healthResponse struct {
	Status  string        `json:"status"`
	Backend backendStatus `json:"backend"`
}

func Health(backend adapter.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := backendStatus{Name: backend.Name(), Available: backend.Available()}
		gauge := 0.0
		if s.Available {
			gauge = 1
		} else {
			s.Reason = unavailableReason(backend)
		}
		metrics.BackendAvailable.WithLabelValues(s.Name).Set(gauge)

		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Backend: s})
	}
}

func unavailableReason(b adapter.Backend) string {
	switch b.(type) {
	case *adapter.ClaudeAdapter:
		return "no API key"
	case *adapter.OllamaAdapter:
		return "ollama unreachable"
	case *adapter.LlamaCppAdapter:
		return "llama-server unreachable"
	default:
		return "unavailable"
	}
}
