package navtree

import (
	"fmt"
	"regexp"
	"strings"
)

// Violation describes one structural problem.
type Violation struct {
	Path    []int  `json:"path,omitempty"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Label != "" {
		return fmt.Sprintf("%v %q: %s", v.Path, v.Label, v.Message)
	}
	return fmt.Sprintf("%v: %s", v.Path, v.Message)
}

var symbolLinkPattern = regexp.MustCompile(`^[^#\s]+#[^#\s]+$`)

// Validate checks every node of t and returns all violations found.
func Validate(t *Tree) []Violation {
	if t == nil || t.Root == nil {
		return []Violation{{Message: "tree has no root"}}
	}
	var out []Violation
	Walk(t.Root, func(n *NavNode, _ int, path []int) error {
		p := append([]int{}, path...)
		if strings.TrimSpace(n.Label) == "" {
			out = append(out, Violation{Path: p, Message: "empty label"})
		}
		if n.Children != nil && len(n.Children) == 0 {
			out = append(out, Violation{Path: p, Label: n.Label, Message: "non-nil children must not be empty"})
		}
		if msg := checkLink(n.Link); msg != "" {
			out = append(out, Violation{Path: p, Label: n.Label, Message: msg})
		}
		return nil
	})
	return out
}

// ValidateTable applies the node checks to every entry of a sub-table.
func ValidateTable(tbl *Table) []Violation {
	var out []Violation
	for i, e := range tbl.Entries {
		sub := Validate(&Tree{Root: e})
		for _, v := range sub {
			v.Path = append([]int{i}, v.Path...)
			out = append(out, v)
		}
	}
	return out
}

func checkLink(link string) string {
	if link == "" {
		return ""
	}
	if strings.Count(link, "#") > 1 {
		return fmt.Sprintf("link %q has more than one fragment", link)
	}
	page, _ := SplitLink(link)
	if page == "" {
		return fmt.Sprintf("link %q has no page", link)
	}
	return ""
}

// ValidateSymbol checks one symbol index row.
func ValidateSymbol(e SymbolEntry) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("symbol has empty name")
	}
	if e.HasLink && !symbolLinkPattern.MatchString(e.Link) {
		return fmt.Errorf("symbol %s: link %q is not page#fragment", e.Name, e.Link)
	}
	return nil
}

// CheckIndex verifies the navigation index against the tree and, when
// present, the loaded partitions. Partitions are matched by Number.
func CheckIndex(t *Tree, partitions []*Partition) []Violation {
	if t == nil {
		return nil
	}
	links := make(map[string]bool)
	for _, e := range Links(t.Root) {
		links[e.Link] = true
	}
	byNumber := make(map[int]*Partition, len(partitions))
	for _, p := range partitions {
		byNumber[p.Number] = p
	}

	var out []Violation
	for i, boundary := range t.Index {
		if !links[boundary] {
			out = append(out, Violation{Message: fmt.Sprintf("index boundary %d %q is not reachable in the tree", i, boundary)})
		}
		p, ok := byNumber[i]
		if !ok {
			continue
		}
		if first := p.First(); first != boundary {
			out = append(out, Violation{Message: fmt.Sprintf("index boundary %d %q does not match partition first key %q", i, boundary, first)})
		}
	}
	return out
}
