package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/navdoc/internal/navtree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Supported output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
	FormatJS       = "js"
	FormatCSV      = "csv"
	FormatTable    = "table"
)

// Options control tree rendering.
type Options struct {
	// MaxDepth drops nodes deeper than this level; 0 renders everything.
	MaxDepth int
	// Inline writes resolved sub-tables in place of their ref in js output.
	Inline bool
}

// TreeFormats lists the formats Tree accepts.
var TreeFormats = []string{FormatText, FormatMarkdown, FormatHTML, FormatJSON, FormatJS}

// Tree writes t in the given format.
func Tree(w io.Writer, t *navtree.Tree, format string, opts Options) error {
	if t == nil || t.Root == nil {
		return fmt.Errorf("render: empty tree")
	}
	root := t.Root
	if opts.MaxDepth > 0 {
		root = Prune(root, opts.MaxDepth)
	}
	switch strings.ToLower(format) {
	case FormatText, "":
		return Text(w, root)
	case FormatMarkdown, "md":
		return Markdown(w, root)
	case FormatHTML:
		return HTML(w, root)
	case FormatJSON:
		out := *t
		out.Root = root
		return writeJSON(w, &out)
	case FormatJS:
		out := *t
		out.Root = root
		return NavTreeJS(w, &out, opts.Inline)
	default:
		return fmt.Errorf("unsupported tree format: %s", format)
	}
}

// Prune returns a copy of root without nodes deeper than maxDepth. A node
// whose children were cut keeps its ref so the outline still shows it.
func Prune(root *navtree.NavNode, maxDepth int) *navtree.NavNode {
	return prune(root, 0, maxDepth)
}

func prune(n *navtree.NavNode, depth, maxDepth int) *navtree.NavNode {
	cp := &navtree.NavNode{Label: n.Label, Link: n.Link, Ref: n.Ref}
	if depth >= maxDepth {
		return cp
	}
	if n.Children != nil {
		cp.Children = make([]*navtree.NavNode, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = prune(c, depth+1, maxDepth)
		}
	}
	return cp
}

// Text writes an indented outline, two spaces per level.
func Text(w io.Writer, root *navtree.NavNode) error {
	var b strings.Builder
	navtree.Walk(root, func(n *navtree.NavNode, depth int, _ []int) error {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Label)
		if n.Link != "" {
			b.WriteString("  (" + n.Link + ")")
		}
		if n.Unresolved() {
			b.WriteString("  -> " + n.Ref)
		}
		b.WriteByte('\n')
		return nil
	})
	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown writes the tree as a nested link list.
func Markdown(w io.Writer, root *navtree.NavNode) error {
	var b strings.Builder
	navtree.Walk(root, func(n *navtree.NavNode, depth int, _ []int) error {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- ")
		if n.Link != "" {
			fmt.Fprintf(&b, "[%s](%s)", escapeMarkdown(n.Label), n.Link)
		} else {
			b.WriteString(escapeMarkdown(n.Label))
		}
		b.WriteByte('\n')
		return nil
	})
	_, err := io.WriteString(w, b.String())
	return err
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`, "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// HTML writes the tree as a nested <ul> outline.
func HTML(w io.Writer, root *navtree.NavNode) error {
	ul := element(atom.Ul, "ul", html.Attribute{Key: "class", Val: "navtree"})
	ul.AppendChild(htmlItem(root))
	if err := html.Render(w, ul); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func htmlItem(n *navtree.NavNode) *html.Node {
	li := element(atom.Li, "li")
	var label *html.Node
	if n.Link != "" {
		label = element(atom.A, "a", html.Attribute{Key: "href", Val: n.Link})
	} else {
		label = element(atom.Span, "span")
	}
	label.AppendChild(&html.Node{Type: html.TextNode, Data: n.Label})
	li.AppendChild(label)
	if n.Unresolved() {
		li.Attr = append(li.Attr, html.Attribute{Key: "data-ref", Val: n.Ref})
	}
	if len(n.Children) > 0 {
		ul := element(atom.Ul, "ul")
		for _, c := range n.Children {
			ul.AppendChild(htmlItem(c))
		}
		li.AppendChild(ul)
	}
	return li
}

func element(a atom.Atom, tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: tag, Attr: attrs}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
