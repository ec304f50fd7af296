package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docreader/internal/config"
	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/metrics"
	"github.com/dgallion1/docreader/internal/session"
)

// Server is the HTTP server of the article reader.
type Server struct {
	router   chi.Router
	library  *library.Library
	sessions *session.Store
	metrics  *metrics.Metrics
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. m may be nil.
func NewServer(lib *library.Library, sessions *session.Store, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		library:  lib,
		sessions: sessions,
		metrics:  m,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil && s.cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/articles/{slug}", s.handleArticlePage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/articles", s.handleListArticles)
		r.Get("/articles/tags", s.handleListTags)
		r.Get("/articles/{slug}", s.handleGetArticle)

		r.Post("/outline", s.handleOutline)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{sessionID}", s.handleGetSession)
		r.Post("/sessions/{sessionID}/scroll", s.handleScroll)
		r.Post("/sessions/{sessionID}/navigate", s.handleNavigate)
		r.Delete("/sessions/{sessionID}", s.handleDeleteSession)

		// Authenticated endpoints. Import is off without an API key.
		if s.cfg.APIKey != "" {
			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
				r.Post("/import", s.handleImport)
			})
		}
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"articles": len(s.library.All()),
		"sessions": s.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
