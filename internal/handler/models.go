package handler

import (
	"net/http"

	"github.com/mlorentedev/quill/internal/directory"
)

type modelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// Models lists the installed models and the one a client should preselect.
// An empty listing is a 503: there is nothing a client could select.
func Models(dir *directory.Directory, preferred string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		models := dir.List(r.Context())
		def, ok := directory.Default(models, preferred)
		if !ok {
			writeError(w, http.StatusServiceUnavailable, "no models found; make sure the inference server is running and has a model installed")
			return
		}
		writeJSON(w, http.StatusOK, modelsResponse{Models: models, Default: def})
	}
}
