package api

import (
	"errors"
	"net/http"
	"path"

	"github.com/dgallion1/navdoc/internal/linkcheck"
	"github.com/dgallion1/navdoc/internal/pages"
	"github.com/dgallion1/navdoc/internal/source"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	site := siteFrom(r)
	refs := linkcheck.Collect(site)
	res, err := linkcheck.Check(r.Context(), s.orchestrator.Source(), refs, s.cfg.CheckConcurrency, s.log)
	if err != nil {
		jsonError(w, "link check failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePage returns a generated page as markdown, or its title and anchors
// with format=json.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	if ext := path.Ext(name); ext != ".html" && ext != ".htm" {
		jsonError(w, "only html pages can be viewed", http.StatusBadRequest)
		return
	}

	rc, err := s.orchestrator.Source().Open(r.Context(), name)
	if errors.Is(err, source.ErrNotFound) {
		jsonError(w, "page not found: "+name, http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "open page: "+err.Error(), http.StatusBadGateway)
		return
	}
	defer rc.Close()

	if r.URL.Query().Get("format") == "json" {
		page, err := pages.Inspect(rc)
		if err != nil {
			jsonError(w, "parse page: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	text, err := pages.Markdown(rc)
	if err != nil {
		jsonError(w, "convert page: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(text))
}
