// Package pages inspects the HTML pages a navigation tree links to.
package pages

import (
	"fmt"
	"io"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Page is what navdoc needs to know about one generated HTML page.
type Page struct {
	Title    string   `json:"title"`
	Anchors  []string `json:"anchors"`
	Headings []string `json:"headings,omitempty"`
}

// HasAnchor reports whether id is a fragment target on the page.
func (p *Page) HasAnchor(id string) bool {
	i := sort.SearchStrings(p.Anchors, id)
	return i < len(p.Anchors) && p.Anchors[i] == id
}

// Inspect reads the page title, its fragment targets and its section
// headings.
func Inspect(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	p := &Page{Title: strings.TrimSpace(doc.Find("div.title").First().Text())}
	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	seen := make(map[string]bool)
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			p.Anchors = append(p.Anchors, id)
		}
	}
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("id", ""))
	})
	doc.Find("a[name]").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("name", ""))
	})
	sort.Strings(p.Anchors)

	contents(doc).Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			p.Headings = append(p.Headings, t)
		}
	})
	return p, nil
}

// Leave underscores in C identifiers unescaped.
var converter = md.NewConverter("", true, &md.Options{EscapeMode: "disabled"})

// Markdown converts the page body to Markdown.
func Markdown(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	body := contents(doc)
	body.Find("script, style, div.navpath, div.memproto > table.mlabels").Remove()

	out := converter.Convert(body)
	title := strings.TrimSpace(doc.Find("div.title").First().Text())
	if title != "" && !strings.HasPrefix(out, "# ") {
		out = "# " + title + "\n\n" + out
	}
	return strings.TrimSpace(out), nil
}

// contents selects the generated page body, falling back to <body>.
func contents(doc *goquery.Document) *goquery.Selection {
	if s := doc.Find("div.contents"); s.Length() > 0 {
		return s.First()
	}
	return doc.Find("body")
}
