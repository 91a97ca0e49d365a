package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/navdoc/internal/navtree"
	"golang.org/x/net/html"
)

// HTMLParser reads a nested <ul><li><a> navigation outline. The first
// top-level list in <body> is the tree; <title> or the first heading names
// the root.
type HTMLParser struct{}

func (p *HTMLParser) Parse(_ context.Context, r io.Reader, filename string) (*navtree.Tree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	root := &navtree.NavNode{Label: stem(filename)}
	titled := false
	if title := findTitle(doc); title != "" {
		root.Label = title
		titled = true
	}

	body := findBody(doc)
	if body == nil {
		body = doc
	}
	if !titled {
		if h := findHeading(body); h != "" {
			root.Label = h
			titled = true
		}
	}
	if ul := findElement(body, "ul", "ol"); ul != nil {
		root.Children = listEntries(ul)
	}
	return outline(root, filename, titled)
}

func listEntries(ul *html.Node) []*navtree.NavNode {
	var out []*navtree.NavNode
	for li := ul.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		n := &navtree.NavNode{Ref: attr(li, "data-ref")}
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && n.Label == "" {
				n.Label = strings.TrimSpace(c.Data)
				continue
			}
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "ul", "ol":
				n.Children = append(n.Children, listEntries(c)...)
			case "a":
				if n.Label == "" {
					n.Label = textContent(c)
					n.Link = attr(c, "href")
				}
			default:
				if n.Label == "" {
					n.Label = textContent(c)
				}
			}
		}
		out = append(out, n)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findHeading(n *html.Node) string {
	if n.Type == html.ElementNode && headingLevel(n.Data) > 0 {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findHeading(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	return findElement(n, "body")
}

// findElement returns the first element in document order with one of tags.
func findElement(n *html.Node, tags ...string) *html.Node {
	if n.Type == html.ElementNode {
		for _, t := range tags {
			if n.Data == t {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if e := findElement(c, tags...); e != nil {
			return e
		}
	}
	return nil
}
