package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/session"
	"github.com/dgallion1/docreader/internal/tracker"
	"github.com/dgallion1/docreader/internal/viewport"
)

type createSessionRequest struct {
	Slug     string          `json:"slug"`
	Fragment string          `json:"fragment"`
	Layout   viewport.Layout `json:"layout"`
}

type scrollRequest struct {
	Offset float64 `json:"offset"`
}

type navigateRequest struct {
	SectionID string `json:"section_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Slug == "" {
		jsonError(w, "slug is required", http.StatusBadRequest)
		return
	}
	a, err := s.library.BySlug(req.Slug)
	if errors.Is(err, library.ErrNotFound) {
		jsonError(w, "article not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	snap, err := s.sessions.Create(a, req.Fragment, req.Layout)
	if errors.Is(err, session.ErrLimit) {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if errors.Is(err, session.ErrInvalidLayout) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	snap, err := s.sessions.Scroll(chi.URLParam(r, "sessionID"), req.Offset)
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleNavigate scrolls a session to a section. An unknown section leaves
// the session where it was and answers 404 with the unchanged state.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	snap, err := s.sessions.Navigate(chi.URLParam(r, "sessionID"), req.SectionID)
	if errors.Is(err, tracker.ErrSectionNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   "section not found",
			"session": snap,
		})
		return
	}
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "sessionID")) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
