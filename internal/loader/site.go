package loader

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dgallion1/navdoc/internal/navindex"
	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/dgallion1/navdoc/internal/symbols"
)

// Site is an immutable, fully loaded navigation data set.
type Site struct {
	Tree        *navtree.Tree             `json:"tree"`
	Tables      map[string]*navtree.Table `json:"tables"`
	Partitions  []*navtree.Partition      `json:"partitions,omitempty"`
	Symbols     []*symbols.Table          `json:"symbols,omitempty"`
	Missing     []string                  `json:"missing,omitempty"`
	Fingerprint string                    `json:"fingerprint"`

	searchOnce sync.Once
	search     *symbols.Index
}

// Stats summarizes a site.
type Stats struct {
	Nodes        int `json:"nodes"`
	Tables       int `json:"tables"`
	Partitions   int `json:"partitions"`
	SymbolTables int `json:"symbol_tables"`
	Symbols      int `json:"symbols"`
	Missing      int `json:"missing"`
	Unresolved   int `json:"unresolved"`
}

func (s *Site) Stats() Stats {
	st := Stats{
		Tables:       len(s.Tables),
		Partitions:   len(s.Partitions),
		SymbolTables: len(s.Symbols),
		Missing:      len(s.Missing),
	}
	if s.Tree != nil {
		st.Nodes = navtree.Count(s.Tree.Root)
		st.Unresolved = len(navtree.Unresolved(s.Tree.Root))
	}
	for _, t := range s.Symbols {
		st.Symbols += len(t.Entries)
	}
	return st
}

// Table returns a loaded sub-table by name.
func (s *Site) Table(name string) (*navtree.Table, bool) {
	t, ok := s.Tables[name]
	return t, ok
}

// SymbolTable returns a symbol table by name.
func (s *Site) SymbolTable(name string) (*symbols.Table, bool) {
	for _, t := range s.Symbols {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// AllSymbols merges every symbol table, dropping duplicate rows.
func (s *Site) AllSymbols() *symbols.Table {
	return symbols.Merge("all", s.Symbols...)
}

// Search ranks symbols across all tables. The index is built on first use.
func (s *Site) Search(query string, limit int) []symbols.Result {
	s.searchOnce.Do(func() {
		s.search = symbols.BuildIndex(s.Symbols...)
	})
	return s.search.Search(query, limit)
}

// Locate returns the partition number holding url, or -1.
func (s *Site) Locate(url string) int {
	return navindex.Locate(s.Tree.Index, navindex.NormalizeURL(url))
}

// NodeForLink finds the node for link through the partitions, falling back
// to a tree walk when the partitions are absent or stale.
func (s *Site) NodeForLink(link string) (*navtree.NavNode, []int) {
	if n, path, _ := navindex.Resolve(s.Tree, s.Partitions, link); n != nil {
		return n, path
	}
	if n, path := navtree.FindByLink(s.Tree.Root, link); n != nil {
		return n, path
	}
	return navtree.FindByLink(s.Tree.Root, navindex.NormalizeURL(link))
}

// Report collects every validation finding for a site.
type Report struct {
	Tree    []navtree.Violation `json:"tree"`
	Tables  []navtree.Violation `json:"tables"`
	Index   []navtree.Violation `json:"index"`
	Symbols []string            `json:"symbols"`
	Missing []string            `json:"missing"`
}

// OK reports whether the site has no violations. Missing files alone do not
// fail validation.
func (r *Report) OK() bool {
	return len(r.Tree) == 0 && len(r.Tables) == 0 && len(r.Index) == 0 && len(r.Symbols) == 0
}

// Validate checks the tree, every sub-table, the index and every symbol row.
func (s *Site) Validate() *Report {
	r := &Report{
		Tree:    navtree.Validate(s.Tree),
		Index:   navtree.CheckIndex(s.Tree, s.Partitions),
		Missing: s.Missing,
	}
	for _, name := range sortedKeys(s.Tables) {
		for _, v := range navtree.ValidateTable(s.Tables[name]) {
			v.Message = name + ": " + v.Message
			r.Tables = append(r.Tables, v)
		}
	}
	r.Index = append(r.Index, checkPartitionPaths(s.Tree, s.Partitions)...)
	for _, t := range s.Symbols {
		for _, err := range symbols.Validate(t) {
			r.Symbols = append(r.Symbols, err.Error())
		}
	}
	return r
}

// checkPartitionPaths verifies that every partition path leads to a node
// carrying the partition key.
func checkPartitionPaths(t *navtree.Tree, partitions []*navtree.Partition) []navtree.Violation {
	var out []navtree.Violation
	for _, p := range partitions {
		for _, e := range p.Entries {
			n, ok := navtree.NodeAt(t.Root, e.Path)
			switch {
			case !ok:
				out = append(out, navtree.Violation{Path: e.Path, Message: fmt.Sprintf("partition %d: %q points outside the tree", p.Number, e.Link)})
			case n.Link != e.Link && navindex.NormalizeURL(n.Link) != e.Link:
				out = append(out, navtree.Violation{Path: e.Path, Label: n.Label, Message: fmt.Sprintf("partition %d: %q points to %q", p.Number, e.Link, n.Link)})
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
