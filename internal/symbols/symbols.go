package symbols

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/facette/natsort"
)

// Table is a named symbol index table.
type Table struct {
	Name    string                `json:"name"`
	Entries []navtree.SymbolEntry `json:"entries"`
}

// Group is one alphabetical section of a symbol listing.
type Group struct {
	Key     string                `json:"key"`
	Entries []navtree.SymbolEntry `json:"entries"`
}

// FromTable converts a leaf-only navigation sub-table into a symbol table.
// It fails when any entry has children or a pending ref.
func FromTable(tbl *navtree.Table) (*Table, error) {
	out := &Table{Name: tbl.Name, Entries: make([]navtree.SymbolEntry, 0, len(tbl.Entries))}
	for _, e := range tbl.Entries {
		if !e.IsLeaf() || e.Ref != "" {
			return nil, fmt.Errorf("table %s: entry %q is not a leaf", tbl.Name, e.Label)
		}
		out.Entries = append(out.Entries, navtree.SymbolEntry{
			Name:    e.Label,
			Link:    e.Link,
			HasLink: e.Link != "",
		})
	}
	return out, nil
}

// IsSymbolTable reports whether every entry of tbl is a leaf whose link
// carries a fragment, the shape of a generated member listing.
func IsSymbolTable(tbl *navtree.Table) bool {
	if len(tbl.Entries) == 0 {
		return false
	}
	for _, e := range tbl.Entries {
		if !e.IsLeaf() || e.Ref != "" {
			return false
		}
		if _, frag := navtree.SplitLink(e.Link); frag == "" {
			return false
		}
	}
	return true
}

// Validate returns one error per invalid row.
func Validate(t *Table) []error {
	var errs []error
	for i, e := range t.Entries {
		if err := navtree.ValidateSymbol(e); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", t.Name, i, err))
		}
	}
	return errs
}

// Merge concatenates tables in order, dropping rows whose (name, link) was
// already seen.
func Merge(name string, tables ...*Table) *Table {
	type key struct{ name, link string }
	seen := make(map[key]bool)
	out := &Table{Name: name}
	for _, t := range tables {
		for _, e := range t.Entries {
			k := key{e.Name, e.Link}
			if seen[k] {
				continue
			}
			seen[k] = true
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// GroupByInitial buckets entries by their lower-cased first character.
// Groups are sorted by key; entries within a group are in natural order, with
// ties kept in table order.
func GroupByInitial(entries []navtree.SymbolEntry) []Group {
	buckets := make(map[string][]navtree.SymbolEntry)
	for _, e := range entries {
		k := initial(e.Name)
		buckets[k] = append(buckets[k], e)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		list := buckets[k]
		sort.SliceStable(list, func(i, j int) bool {
			a, b := strings.ToLower(list[i].Name), strings.ToLower(list[j].Name)
			if a == b {
				return false
			}
			return natsort.Compare(a, b)
		})
		groups = append(groups, Group{Key: k, Entries: list})
	}
	return groups
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "#"
	}
	return string(unicode.ToLower(r))
}
