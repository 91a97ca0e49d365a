package navtree

import "errors"

var (
	// SkipChildren, returned by a WalkFunc, prunes the current node's subtree.
	SkipChildren = errors.New("skip children")
	// Stop, returned by a WalkFunc, ends the walk without error.
	Stop = errors.New("stop walk")
)

// WalkFunc is called for every visited node. path holds the child indexes
// leading from the root to n and must not be retained.
type WalkFunc func(n *NavNode, depth int, path []int) error

// Walk visits root and its descendants depth-first in pre-order, children in
// insertion order.
func Walk(root *NavNode, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	err := walk(root, 0, nil, fn)
	if errors.Is(err, Stop) {
		return nil
	}
	return err
}

func walk(n *NavNode, depth int, path []int, fn WalkFunc) error {
	if err := fn(n, depth, path); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for i, c := range n.Children {
		if err := walk(c, depth+1, append(path, i), fn); err != nil {
			return err
		}
	}
	return nil
}

// WalkBreadthFirst visits root and its descendants level by level.
func WalkBreadthFirst(root *NavNode, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	type item struct {
		node  *NavNode
		depth int
		path  []int
	}
	queue := []item{{node: root}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		err := fn(it.node, it.depth, it.path)
		if errors.Is(err, Stop) {
			return nil
		}
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		for i, c := range it.node.Children {
			p := make([]int, len(it.path)+1)
			copy(p, it.path)
			p[len(it.path)] = i
			queue = append(queue, item{node: c, depth: it.depth + 1, path: p})
		}
	}
	return nil
}

// NodeAt follows child indexes from root. An empty path yields root.
func NodeAt(root *NavNode, path []int) (*NavNode, bool) {
	n := root
	if n == nil {
		return nil, false
	}
	for _, i := range path {
		if i < 0 || i >= len(n.Children) {
			return nil, false
		}
		n = n.Children[i]
	}
	return n, true
}

// FindByLink returns the first node in depth-first order whose link equals
// link, along with its path.
func FindByLink(root *NavNode, link string) (*NavNode, []int) {
	var found *NavNode
	var foundPath []int
	Walk(root, func(n *NavNode, _ int, path []int) error {
		if n.Link == link {
			found = n
			foundPath = append([]int{}, path...)
			return Stop
		}
		return nil
	})
	return found, foundPath
}

// Links returns every linked node as (link, path) in depth-first order.
func Links(root *NavNode) []PartitionEntry {
	var out []PartitionEntry
	Walk(root, func(n *NavNode, _ int, path []int) error {
		if n.Link != "" {
			out = append(out, PartitionEntry{Link: n.Link, Path: append([]int{}, path...)})
		}
		return nil
	})
	return out
}

// Unresolved lists refs that were never attached, in depth-first order.
func Unresolved(root *NavNode) []string {
	var out []string
	Walk(root, func(n *NavNode, _ int, _ []int) error {
		if n.Unresolved() {
			out = append(out, n.Ref)
		}
		return nil
	})
	return out
}

// Count returns the number of nodes under and including root.
func Count(root *NavNode) int {
	total := 0
	Walk(root, func(*NavNode, int, []int) error {
		total++
		return nil
	})
	return total
}
