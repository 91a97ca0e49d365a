package jsdata

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/navdoc/internal/navtree"
)

// Well-known variable names written into navtreedata.js.
const (
	VarNavTree      = "NAVTREE"
	VarNavTreeIndex = "NAVTREEINDEX"
	VarSyncOn       = "SYNCONMSG"
	VarSyncOff      = "SYNCOFFMSG"
)

// PartitionVar returns the variable name of navtreeindex<n>.js.
func PartitionVar(n int) string {
	return VarNavTreeIndex + strconv.Itoa(n)
}

// NavTreeData interprets a parsed navtreedata.js.
func NavTreeData(s *Script) (*navtree.Tree, error) {
	nav, ok := s.Lookup(VarNavTree)
	if !ok {
		return nil, fmt.Errorf("%s: %s not declared", s.Filename, VarNavTree)
	}
	entries, err := entryList(s.Filename, VarNavTree, nav)
	if err != nil {
		return nil, err
	}
	if len(entries) != 1 {
		return nil, fmt.Errorf("%s: %s must hold exactly one top-level entry, found %d", s.Filename, VarNavTree, len(entries))
	}

	tree := &navtree.Tree{Root: entries[0]}

	if idx, ok := s.Lookup(VarNavTreeIndex); ok {
		if idx.Kind != KindArray {
			return nil, fmt.Errorf("%s:%s: %s must be an array, got %s", s.Filename, idx.Pos, VarNavTreeIndex, idx.Kind)
		}
		tree.Index = make([]string, 0, len(idx.Items))
		for _, item := range idx.Items {
			if item.Kind != KindString {
				return nil, fmt.Errorf("%s:%s: %s entries must be strings, got %s", s.Filename, item.Pos, VarNavTreeIndex, item.Kind)
			}
			tree.Index = append(tree.Index, item.Str)
		}
	}
	if msg, ok := s.Lookup(VarSyncOn); ok && msg.Kind == KindString {
		tree.SyncOnMsg = msg.Str
	}
	if msg, ok := s.Lookup(VarSyncOff); ok && msg.Kind == KindString {
		tree.SyncOffMsg = msg.Str
	}
	return tree, nil
}

// TableData interprets `var <name> = [...]` as a sub-table.
func TableData(s *Script, name string) (*navtree.Table, error) {
	v, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %s not declared", s.Filename, name)
	}
	entries, err := entryList(s.Filename, name, v)
	if err != nil {
		return nil, err
	}
	return &navtree.Table{Name: name, Entries: entries}, nil
}

// PartitionData interprets `var NAVTREEINDEX<n> = { "link": [path...], ... }`.
func PartitionData(s *Script, n int) (*navtree.Partition, error) {
	name := PartitionVar(n)
	v, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %s not declared", s.Filename, name)
	}
	if v.Kind != KindObject {
		return nil, fmt.Errorf("%s:%s: %s must be an object, got %s", s.Filename, v.Pos, name, v.Kind)
	}
	p := &navtree.Partition{Number: n, Entries: make([]navtree.PartitionEntry, 0, len(v.Fields))}
	for _, f := range v.Fields {
		if f.Value.Kind != KindArray {
			return nil, fmt.Errorf("%s:%s: path for %q must be an array", s.Filename, f.Value.Pos, f.Key)
		}
		path := make([]int, 0, len(f.Value.Items))
		for _, item := range f.Value.Items {
			i, ok := item.Int()
			if !ok || i < 0 {
				return nil, fmt.Errorf("%s:%s: path for %q holds %s", s.Filename, item.Pos, f.Key, item.GoString())
			}
			path = append(path, i)
		}
		p.Entries = append(p.Entries, navtree.PartitionEntry{Link: f.Key, Path: path})
	}
	return p, nil
}

// SymbolRows interprets `var <name> = [[name, link|null(, null)], ...]`.
func SymbolRows(s *Script, name string) ([]navtree.SymbolEntry, error) {
	v, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %s not declared", s.Filename, name)
	}
	if v.Kind != KindArray {
		return nil, fmt.Errorf("%s:%s: %s must be an array, got %s", s.Filename, v.Pos, name, v.Kind)
	}
	rows := make([]navtree.SymbolEntry, 0, len(v.Items))
	for _, item := range v.Items {
		if item.Kind != KindArray || len(item.Items) < 1 || len(item.Items) > 3 {
			return nil, fmt.Errorf("%s:%s: symbol row must be [name, link]", s.Filename, item.Pos)
		}
		nameVal := item.Items[0]
		if nameVal.Kind != KindString {
			return nil, fmt.Errorf("%s:%s: symbol name must be a string, got %s", s.Filename, nameVal.Pos, nameVal.Kind)
		}
		row := navtree.SymbolEntry{Name: nameVal.Str}
		if len(item.Items) > 1 {
			link := item.Items[1]
			switch link.Kind {
			case KindString:
				row.Link, row.HasLink = link.Str, true
			case KindNull:
			default:
				return nil, fmt.Errorf("%s:%s: symbol link must be a string or null, got %s", s.Filename, link.Pos, link.Kind)
			}
		}
		if len(item.Items) == 3 && !item.Items[2].IsNull() {
			return nil, fmt.Errorf("%s:%s: symbol %s has children", s.Filename, item.Pos, row.Name)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func entryList(filename, name string, v Value) ([]*navtree.NavNode, error) {
	if v.Kind != KindArray {
		return nil, fmt.Errorf("%s:%s: %s must be an array, got %s", filename, v.Pos, name, v.Kind)
	}
	out := make([]*navtree.NavNode, 0, len(v.Items))
	for _, item := range v.Items {
		n, err := entry(filename, item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// entry decodes [label, link|null, children|ref|null].
func entry(filename string, v Value) (*navtree.NavNode, error) {
	if v.Kind != KindArray || len(v.Items) != 3 {
		return nil, fmt.Errorf("%s:%s: navigation entry must be [label, link, children]", filename, v.Pos)
	}
	label, link, kids := v.Items[0], v.Items[1], v.Items[2]
	if label.Kind != KindString {
		return nil, fmt.Errorf("%s:%s: label must be a string, got %s", filename, label.Pos, label.Kind)
	}
	n := &navtree.NavNode{Label: label.Str}
	switch link.Kind {
	case KindString:
		n.Link = link.Str
	case KindNull:
	default:
		return nil, fmt.Errorf("%s:%s: link must be a string or null, got %s", filename, link.Pos, link.Kind)
	}
	switch kids.Kind {
	case KindNull:
	case KindString:
		n.Ref = kids.Str
	case KindArray:
		if len(kids.Items) == 0 {
			return nil, fmt.Errorf("%s:%s: %q has an empty child list", filename, kids.Pos, n.Label)
		}
		children, err := entryList(filename, n.Label, kids)
		if err != nil {
			return nil, err
		}
		n.Children = children
	default:
		return nil, fmt.Errorf("%s:%s: children must be an array, a table name, or null, got %s", filename, kids.Pos, kids.Kind)
	}
	return n, nil
}
