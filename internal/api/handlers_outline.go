package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/docreader/internal/outline"
	"github.com/dgallion1/docreader/internal/render"
)

// handleOutline scans already rendered article HTML for its sections. The
// response carries the outline and the markup with heading ids applied.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	o, annotated, err := outline.ExtractHTML(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "body exceeds max size", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outline": o,
		"html":    render.Sanitize(annotated),
	})
}
