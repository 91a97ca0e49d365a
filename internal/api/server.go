package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/navdoc/internal/config"
	"github.com/dgallion1/navdoc/internal/loader"
	"github.com/dgallion1/navdoc/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server for navdoc.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
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
	r.Use(Metrics)

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats/loads", s.handleLoadStats)
		r.Get("/reload/{jobID}/status", s.handleReloadStatus)

		r.Group(func(r chi.Router) {
			if s.cfg.APIKey != "" {
				r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
			}
			r.Post("/reload", s.handleReload)
		})

		// Everything below needs a loaded site.
		r.Group(func(r chi.Router) {
			r.Use(s.requireSite)

			r.Get("/tree", s.handleTree)
			r.Get("/tree/node", s.handleNode)
			r.Get("/index", s.handleIndex)
			r.Get("/index/locate", s.handleLocate)
			r.Get("/tables/{name}", s.handleTable)
			r.Get("/symbols", s.handleSymbols)
			r.Get("/symbols/search", s.handleSearch)
			r.Get("/validate", s.handleValidate)
			r.Get("/check", s.handleCheck)
			r.Get("/pages/{page}", s.handlePage)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "loaded": false}
	if cur := s.orchestrator.Catalog().Current(); cur != nil {
		resp["loaded"] = true
		resp["fingerprint"] = cur.Site.Fingerprint
		resp["loaded_at"] = cur.LoadedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

type siteKey struct{}

// requireSite answers 503 until the first load succeeds and pins the current
// site for the rest of the request.
func (s *Server) requireSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site := s.orchestrator.Catalog().Site()
		if site == nil {
			jsonError(w, "no site loaded", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), siteKey{}, site)))
	})
}

func siteFrom(r *http.Request) *loader.Site {
	site, _ := r.Context().Value(siteKey{}).(*loader.Site)
	return site
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
