package navtree

import "strings"

// Tree is a loaded navigation tree table.
type Tree struct {
	Root       *NavNode `json:"root"`
	Index      []string `json:"index,omitempty"`        // NAVTREEINDEX partition boundaries
	SyncOnMsg  string   `json:"sync_on_msg,omitempty"`  // SYNCONMSG
	SyncOffMsg string   `json:"sync_off_msg,omitempty"` // SYNCOFFMSG
}

// NavNode is one labeled link in the navigation tree.
type NavNode struct {
	Label    string     `json:"label"`
	Link     string     `json:"link,omitempty"`     // page URL or page#fragment
	Ref      string     `json:"ref,omitempty"`      // separately defined sub-table name
	Children []*NavNode `json:"children,omitempty"` // nil for leaves
}

// Table is a named sub-table, e.g. `var modules = [...]`.
type Table struct {
	Name    string     `json:"name"`
	Entries []*NavNode `json:"entries"`
}

// SymbolEntry is one row of a symbol index table.
type SymbolEntry struct {
	Name    string `json:"name"`
	Link    string `json:"link,omitempty"`
	HasLink bool   `json:"has_link"`
}

// PartitionEntry maps a link to its child-index path from the root.
type PartitionEntry struct {
	Link string `json:"link"`
	Path []int  `json:"path"`
}

// Partition is the content of one navtreeindexN.js file.
type Partition struct {
	Number  int              `json:"number"`
	Entries []PartitionEntry `json:"entries"`
}

// IsLeaf reports whether n has no children.
func (n *NavNode) IsLeaf() bool {
	return n.Children == nil
}

// Unresolved reports whether n names a sub-table that was never attached.
func (n *NavNode) Unresolved() bool {
	return n.Ref != "" && n.Children == nil
}

// Lookup returns the path stored for link, or nil when the partition lacks it.
func (p *Partition) Lookup(link string) ([]int, bool) {
	for _, e := range p.Entries {
		if e.Link == link {
			return e.Path, true
		}
	}
	return nil, false
}

// First returns the first key of the partition.
func (p *Partition) First() string {
	if len(p.Entries) == 0 {
		return ""
	}
	return p.Entries[0].Link
}

// SplitLink splits "page#fragment" into its parts.
func SplitLink(link string) (page, fragment string) {
	page, fragment, _ = strings.Cut(link, "#")
	return page, fragment
}

// Clone returns a deep copy of n.
func (n *NavNode) Clone() *NavNode {
	if n == nil {
		return nil
	}
	cp := &NavNode{Label: n.Label, Link: n.Link, Ref: n.Ref}
	if n.Children != nil {
		cp.Children = make([]*NavNode, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Clone()
		}
	}
	return cp
}
