package navindex

import (
	"sort"
	"strings"

	"github.com/dgallion1/navdoc/internal/navtree"
)

// DefaultPartitionSize is the number of links per navtreeindex file.
const DefaultPartitionSize = 250

// Locate returns the partition that holds url: the largest i with
// index[i] <= url, or -1 when url sorts before every boundary. The scan stops
// at the first boundary greater than url, so an unsorted index yields the
// same answer a browser-side consumer would compute.
func Locate(index []string, url string) int {
	i := -1
	for i+1 < len(index) && index[i+1] <= url {
		i++
	}
	return i
}

// NormalizeURL drops characters other than letters, digits, '_' and '-'
// from the fragment of link.
func NormalizeURL(link string) string {
	page, frag, ok := strings.Cut(link, "#")
	if !ok {
		return link
	}
	var b strings.Builder
	b.Grow(len(frag))
	for _, r := range frag {
		if r == '_' || r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return page
	}
	return page + "#" + b.String()
}

// Build regenerates the navigation index and partition files for a tree:
// every linked node contributes (link, path), the first path wins for
// duplicate links, entries are sorted by link and split into chunks of size.
func Build(root *navtree.NavNode, size int) ([]string, []*navtree.Partition) {
	if size <= 0 {
		size = DefaultPartitionSize
	}

	seen := make(map[string]bool)
	var entries []navtree.PartitionEntry
	for _, e := range navtree.Links(root) {
		if seen[e.Link] {
			continue
		}
		seen[e.Link] = true
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Link < entries[j].Link
	})

	var index []string
	var partitions []*navtree.Partition
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		chunk := make([]navtree.PartitionEntry, end-start)
		copy(chunk, entries[start:end])
		partitions = append(partitions, &navtree.Partition{
			Number:  len(partitions),
			Entries: chunk,
		})
		index = append(index, chunk[0].Link)
	}
	return index, partitions
}

// Resolve finds the node for link using the index and the loaded partitions.
// It returns the partition number consulted (-1 when none applies).
func Resolve(t *navtree.Tree, partitions []*navtree.Partition, link string) (*navtree.NavNode, []int, int) {
	url := NormalizeURL(link)
	i := Locate(t.Index, url)
	if i < 0 {
		return nil, nil, -1
	}
	for _, p := range partitions {
		if p.Number != i {
			continue
		}
		path, ok := p.Lookup(url)
		if !ok {
			return nil, nil, i
		}
		n, ok := navtree.NodeAt(t.Root, path)
		if !ok {
			return nil, nil, i
		}
		return n, path, i
	}
	return nil, nil, i
}
