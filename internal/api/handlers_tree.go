package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/navdoc/internal/navindex"
	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/dgallion1/navdoc/internal/render"
	"github.com/go-chi/chi/v5"
)

var contentTypes = map[string]string{
	render.FormatText:     "text/plain; charset=utf-8",
	render.FormatTable:    "text/plain; charset=utf-8",
	render.FormatMarkdown: "text/markdown; charset=utf-8",
	"md":                  "text/markdown; charset=utf-8",
	render.FormatHTML:     "text/html; charset=utf-8",
	render.FormatJSON:     "application/json",
	render.FormatJS:       "application/javascript; charset=utf-8",
	render.FormatCSV:      "text/csv; charset=utf-8",
}

// writeRendered runs fn into a buffer so a render error still yields a clean
// 400 response.
func writeRendered(w http.ResponseWriter, format string, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ct, ok := contentTypes[strings.ToLower(format)]
	if !ok {
		ct = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.Write(buf.Bytes())
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	site := siteFrom(r)
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatJSON
	}
	depth, err := queryInt(r, "depth", 0)
	if err != nil || depth < 0 {
		jsonError(w, "depth must be a non-negative integer", http.StatusBadRequest)
		return
	}
	opts := render.Options{MaxDepth: depth, Inline: r.URL.Query().Get("inline") == "true"}
	writeRendered(w, format, func(buf *bytes.Buffer) error {
		return render.Tree(buf, site.Tree, format, opts)
	})
}

// parsePath reads "0,2,1" into a child-index path. An empty string is the root.
func parsePath(v string) ([]int, error) {
	if v == "" {
		return []int{}, nil
	}
	parts := strings.Split(v, ",")
	path := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		path[i] = n
	}
	return path, nil
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	site := siteFrom(r)
	q := r.URL.Query()
	depth, err := queryInt(r, "depth", 1)
	if err != nil || depth < 0 {
		jsonError(w, "depth must be a non-negative integer", http.StatusBadRequest)
		return
	}

	var (
		node *navtree.NavNode
		path []int
	)
	switch {
	case q.Has("link"):
		node, path = site.NodeForLink(q.Get("link"))
	case q.Has("path"):
		path, err = parsePath(q.Get("path"))
		if err != nil {
			jsonError(w, "path must be comma-separated child indexes", http.StatusBadRequest)
			return
		}
		node, _ = navtree.NodeAt(site.Tree.Root, path)
	default:
		jsonError(w, "path or link is required", http.StatusBadRequest)
		return
	}
	if node == nil {
		jsonError(w, "node not found", http.StatusNotFound)
		return
	}
	unresolved := node.Unresolved()
	if depth > 0 {
		node = render.Prune(node, depth)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":       path,
		"node":       node,
		"unresolved": unresolved,
	})
}

type partitionSummary struct {
	Number  int    `json:"number"`
	First   string `json:"first"`
	Entries int    `json:"entries"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	site := siteFrom(r)
	q := r.URL.Query()

	if q.Has("partition") {
		n, err := strconv.Atoi(q.Get("partition"))
		if err != nil {
			jsonError(w, "partition must be an integer", http.StatusBadRequest)
			return
		}
		for _, p := range site.Partitions {
			if p.Number != n {
				continue
			}
			if q.Get("format") == render.FormatJS {
				writeRendered(w, render.FormatJS, func(buf *bytes.Buffer) error {
					return render.PartitionJS(buf, p)
				})
				return
			}
			writeJSON(w, http.StatusOK, p)
			return
		}
		jsonError(w, "partition not loaded", http.StatusNotFound)
		return
	}

	summaries := make([]partitionSummary, 0, len(site.Partitions))
	for _, p := range site.Partitions {
		summaries = append(summaries, partitionSummary{Number: p.Number, First: p.First(), Entries: len(p.Entries)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":      site.Tree.Index,
		"partitions": summaries,
	})
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	site := siteFrom(r)
	url := r.URL.Query().Get("url")
	if url == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}
	resp := map[string]any{
		"url":        url,
		"normalized": navindex.NormalizeURL(url),
		"partition":  site.Locate(url),
	}
	if n, path := site.NodeForLink(url); n != nil {
		resp["path"] = path
		resp["label"] = n.Label
		resp["link"] = n.Link
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	site := siteFrom(r)
	name := chi.URLParam(r, "name")
	tbl, ok := site.Table(name)
	if !ok {
		jsonError(w, "table not found: "+name, http.StatusNotFound)
		return
	}
	if r.URL.Query().Get("format") == render.FormatJS {
		writeRendered(w, render.FormatJS, func(buf *bytes.Buffer) error {
			return render.TableJS(buf, tbl)
		})
		return
	}
	writeJSON(w, http.StatusOK, tbl)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	report := siteFrom(r).Validate()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     report.OK(),
		"report": report,
	})
}
