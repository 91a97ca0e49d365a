package parser

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser reads a Markdown outline using goldmark. Headings nest by
// level; list items under a heading become its children, nested lists nest.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(_ context.Context, r io.Reader, filename string) (*navtree.Tree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	type stackEntry struct {
		node  *navtree.NavNode
		level int
	}
	root := &navtree.NavNode{Label: stem(filename)}
	stack := []stackEntry{{node: root, level: 0}}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			label, link := linkText(node, src)
			newNode := &navtree.NavNode{Label: label, Link: link}

			// Pop stack until we find a parent with lower level.
			for len(stack) > 1 && stack[len(stack)-1].level >= node.Level {
				stack = stack[:len(stack)-1]
			}
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, newNode)
			stack = append(stack, stackEntry{node: newNode, level: node.Level})

		case *ast.List:
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, listItems(node, src)...)
		}
	}
	return outline(root, filename, false)
}

func listItems(list *ast.List, src []byte) []*navtree.NavNode {
	var out []*navtree.NavNode
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		if _, ok := item.(*ast.ListItem); !ok {
			continue
		}
		n := &navtree.NavNode{}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch block := c.(type) {
			case *ast.List:
				n.Children = append(n.Children, listItems(block, src)...)
			case *ast.TextBlock, *ast.Paragraph:
				if n.Label == "" {
					n.Label, n.Link = linkText(block, src)
				}
			}
		}
		out = append(out, n)
	}
	return out
}

// linkText returns the inline text of a block and the destination of its
// first link.
func linkText(n ast.Node, src []byte) (string, string) {
	var link string
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if l, ok := c.(*ast.Link); ok && entering && link == "" {
			link = string(l.Destination)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return unescapeMarkdown(strings.TrimSpace(inlineText(n, src))), link
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}

// unescapeMarkdown drops backslashes before ASCII punctuation.
func unescapeMarkdown(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
