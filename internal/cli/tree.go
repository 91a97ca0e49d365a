package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/navdoc/internal/jsdata"
	"github.com/dgallion1/navdoc/internal/loader"
	"github.com/dgallion1/navdoc/internal/navindex"
	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/dgallion1/navdoc/internal/render"
	"github.com/spf13/cobra"
)

func runTree(cmd *cobra.Command, flags *siteFlags) error {
	format, err := stringFlag(cmd, "format")
	if err != nil {
		return err
	}
	depth, err := intFlag(cmd, "depth")
	if err != nil {
		return err
	}
	inline, err := boolFlag(cmd, "inline")
	if err != nil {
		return err
	}
	if depth < 0 {
		return fmt.Errorf("--depth must be >= 0")
	}

	site, _, err := flags.load(cmd)
	if err != nil {
		return err
	}
	return render.Tree(cmd.OutOrStdout(), site.Tree, format, render.Options{MaxDepth: depth, Inline: inline})
}

var pathArg = regexp.MustCompile(`^\d+(,\d+)*$`)

// findNode treats arg as a child-index path when it looks like one, "/" as
// the root, and as a link otherwise.
func findNode(site *loader.Site, arg string) (*navtree.NavNode, []int, error) {
	if arg == "/" {
		return site.Tree.Root, []int{}, nil
	}
	if pathArg.MatchString(arg) {
		parts := strings.Split(arg, ",")
		path := make([]int, len(parts))
		for i, p := range parts {
			path[i], _ = strconv.Atoi(p)
		}
		n, ok := navtree.NodeAt(site.Tree.Root, path)
		if !ok {
			return nil, nil, fmt.Errorf("no node at path %s", arg)
		}
		return n, path, nil
	}
	n, path := site.NodeForLink(arg)
	if n == nil {
		return nil, nil, fmt.Errorf("no node links to %s", arg)
	}
	return n, path, nil
}

func runNode(cmd *cobra.Command, flags *siteFlags, arg string) error {
	depth, err := intFlag(cmd, "depth")
	if err != nil {
		return err
	}
	asJSON, err := boolFlag(cmd, "json")
	if err != nil {
		return err
	}

	site, _, err := flags.load(cmd)
	if err != nil {
		return err
	}
	n, path, err := findNode(site, arg)
	if err != nil {
		return err
	}
	unresolved := n.Unresolved()
	if depth > 0 {
		n = render.Prune(n, depth)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return printJSON(out, map[string]any{"path": path, "node": n, "unresolved": unresolved})
	}
	fmt.Fprintf(out, "path: %s\n", formatPath(path))
	if unresolved {
		fmt.Fprintf(out, "unresolved: %s\n", n.Ref)
	}
	return render.Text(out, n)
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func runLocate(cmd *cobra.Command, flags *siteFlags, url string) error {
	asJSON, err := boolFlag(cmd, "json")
	if err != nil {
		return err
	}
	site, _, err := flags.load(cmd)
	if err != nil {
		return err
	}

	normalized := navindex.NormalizeURL(url)
	partition := site.Locate(url)
	n, path := site.NodeForLink(url)

	out := cmd.OutOrStdout()
	if asJSON {
		resp := map[string]any{"url": url, "normalized": normalized, "partition": partition}
		if n != nil {
			resp["path"] = path
			resp["label"] = n.Label
		}
		return printJSON(out, resp)
	}

	if partition < 0 {
		fmt.Fprintf(out, "%s: before the first index boundary, falls back to the root page\n", normalized)
	} else {
		fmt.Fprintf(out, "%s: %s\n", normalized, jsdata.PartitionVar(partition))
	}
	if n == nil {
		fmt.Fprintln(out, "not in the tree")
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", formatPath(path), n.Label)
	return nil
}

// runExport writes a fresh navtreedata.js with a rebuilt index, its
// partitions and every loaded sub-table.
func runExport(cmd *cobra.Command, flags *siteFlags, dir string) error {
	size, err := intFlag(cmd, "partition-size")
	if err != nil {
		return err
	}
	inline, err := boolFlag(cmd, "inline")
	if err != nil {
		return err
	}
	if size <= 0 {
		return fmt.Errorf("--partition-size must be > 0")
	}

	site, _, err := flags.load(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	index, partitions := navindex.Build(site.Tree.Root, size)
	tree := *site.Tree
	tree.Index = index

	written := 0
	write := func(name string, fn func(w *bufio.Writer) error) error {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		defer f.Close()
		bw := bufio.NewWriter(f)
		if err := fn(bw); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written++
		return f.Close()
	}

	if err := write(loader.RootFile, func(w *bufio.Writer) error {
		return render.NavTreeJS(w, &tree, inline)
	}); err != nil {
		return err
	}
	for _, p := range partitions {
		if err := write(fmt.Sprintf("navtreeindex%d.js", p.Number), func(w *bufio.Writer) error {
			return render.PartitionJS(w, p)
		}); err != nil {
			return err
		}
	}
	if !inline {
		for name, tbl := range site.Tables {
			if err := write(name+".js", func(w *bufio.Writer) error {
				return render.TableJS(w, tbl)
			}); err != nil {
				return err
			}
		}
	}
	for _, st := range site.Symbols {
		if _, ok := site.Tables[st.Name]; ok {
			continue
		}
		if err := write(st.Name+".js", func(w *bufio.Writer) error {
			return render.SymbolsJS(w, st.Name, st.Entries)
		}); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d files to %s (%d partitions)\n", written, dir, len(partitions))
	return nil
}
