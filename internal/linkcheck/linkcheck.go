// Package linkcheck verifies that the pages and anchors a site links to
// exist.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/navdoc/internal/loader"
	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/dgallion1/navdoc/internal/pages"
	"github.com/dgallion1/navdoc/internal/source"
	"golang.org/x/sync/errgroup"
)

// Problem kinds.
const (
	MissingPage   = "missing_page"
	MissingAnchor = "missing_anchor"
	OutsideSite   = "outside_site"
)

// Ref is one link found in the navigation data.
type Ref struct {
	Link   string `json:"link"`
	Label  string `json:"label"`
	Origin string `json:"origin"` // tree, table name, partition or symbol table
}

// Problem is one broken link.
type Problem struct {
	Kind string `json:"kind"`
	Ref  Ref    `json:"ref"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s (%q in %s)", p.Kind, p.Ref.Link, p.Ref.Label, p.Ref.Origin)
}

// Result summarizes a check.
type Result struct {
	Pages    int       `json:"pages"`
	Links    int       `json:"links"`
	Problems []Problem `json:"problems"`
}

// Broken counts missing pages and anchors. Links outside the site are
// reported but not counted.
func (r *Result) Broken() int {
	n := 0
	for _, p := range r.Problems {
		if p.Kind != OutsideSite {
			n++
		}
	}
	return n
}

// Collect lists every link of the tree, the sub-tables, the partitions and
// the symbol tables.
func Collect(site *loader.Site) []Ref {
	var refs []Ref
	navtree.Walk(site.Tree.Root, func(n *navtree.NavNode, _ int, _ []int) error {
		if n.Link != "" {
			refs = append(refs, Ref{Link: n.Link, Label: n.Label, Origin: "tree"})
		}
		return nil
	})

	names := make([]string, 0, len(site.Tables))
	for name := range site.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, e := range site.Tables[name].Entries {
			navtree.Walk(e, func(n *navtree.NavNode, _ int, _ []int) error {
				if n.Link != "" {
					refs = append(refs, Ref{Link: n.Link, Label: n.Label, Origin: name})
				}
				return nil
			})
		}
	}

	for _, p := range site.Partitions {
		origin := fmt.Sprintf("navtreeindex%d", p.Number)
		for _, e := range p.Entries {
			refs = append(refs, Ref{Link: e.Link, Origin: origin})
		}
	}

	for _, t := range site.Symbols {
		for _, e := range t.Entries {
			if e.HasLink {
				refs = append(refs, Ref{Link: e.Link, Label: e.Name, Origin: t.Name})
			}
		}
	}
	return refs
}

// Check fetches every distinct page once, concurrently, and reports links to
// absent pages or anchors.
func Check(ctx context.Context, src source.Source, refs []Ref, concurrency int, log *slog.Logger) (*Result, error) {
	if concurrency <= 0 {
		concurrency = 8
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	byPage := make(map[string][]Ref)
	var order []string
	for _, r := range refs {
		page, _ := navtree.SplitLink(r.Link)
		if page == "" || isExternal(page) {
			continue
		}
		if _, ok := byPage[page]; !ok {
			order = append(order, page)
		}
		byPage[page] = append(byPage[page], r)
	}
	sort.Strings(order)

	var mu sync.Mutex
	found := make(map[string]*pages.Page, len(order))
	outside := make(map[string]bool)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, page := range order {
		g.Go(func() error {
			rc, err := src.Open(gctx, page)
			if errors.Is(err, source.ErrNotFound) {
				return nil
			}
			if errors.Is(err, source.ErrOutsideSite) {
				mu.Lock()
				outside[page] = true
				mu.Unlock()
				return nil
			}
			if err != nil {
				return err
			}
			defer rc.Close()
			p, err := pages.Inspect(rc)
			if err != nil {
				log.Warn("page not parseable", "page", page, "error", err)
				p = &pages.Page{}
			}
			mu.Lock()
			found[page] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Pages: len(order), Links: len(refs), Problems: []Problem{}}
	for _, page := range order {
		p, ok := found[page]
		for _, r := range dedupe(byPage[page]) {
			_, frag := navtree.SplitLink(r.Link)
			switch {
			case outside[page]:
				res.Problems = append(res.Problems, Problem{Kind: OutsideSite, Ref: r})
			case !ok:
				res.Problems = append(res.Problems, Problem{Kind: MissingPage, Ref: r})
			case frag != "" && !p.HasAnchor(frag):
				res.Problems = append(res.Problems, Problem{Kind: MissingAnchor, Ref: r})
			}
		}
	}
	log.Info("link check complete", "pages", res.Pages, "links", res.Links, "problems", len(res.Problems))
	return res, nil
}

// dedupe keeps the first reference per link.
func dedupe(refs []Ref) []Ref {
	seen := make(map[string]bool, len(refs))
	out := refs[:0:0]
	for _, r := range refs {
		if seen[r.Link] {
			continue
		}
		seen[r.Link] = true
		out = append(out, r)
	}
	return out
}

func isExternal(page string) bool {
	return strings.Contains(page, "://") || strings.HasPrefix(page, "mailto:")
}
