package api

import (
	"bytes"
	"net/http"

	"github.com/dgallion1/navdoc/internal/render"
	"github.com/dgallion1/navdoc/internal/symbols"
)

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	site := siteFrom(r)
	q := r.URL.Query()

	tbl := site.AllSymbols()
	if name := q.Get("table"); name != "" {
		t, ok := site.SymbolTable(name)
		if !ok {
			jsonError(w, "symbol table not found: "+name, http.StatusNotFound)
			return
		}
		tbl = t
	}

	format := q.Get("format")
	if format == "" {
		format = render.FormatJSON
	}
	if format == render.FormatJSON && q.Get("group") == "true" {
		writeJSON(w, http.StatusOK, map[string]any{
			"name":   tbl.Name,
			"groups": symbols.GroupByInitial(tbl.Entries),
		})
		return
	}
	writeRendered(w, format, func(buf *bytes.Buffer) error {
		return render.Symbols(buf, tbl, format)
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	site := siteFrom(r)
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, "q is required", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil || limit <= 0 {
		jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	results := site.Search(query, limit)
	if results == nil {
		results = []symbols.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}
