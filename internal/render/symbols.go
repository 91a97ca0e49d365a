package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/dgallion1/navdoc/internal/symbols"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// SymbolFormats lists the formats Symbols accepts.
var SymbolFormats = []string{FormatMarkdown, FormatHTML, FormatCSV, FormatTable, FormatJSON, FormatJS}

// Symbols writes a symbol table in the given format.
func Symbols(w io.Writer, t *symbols.Table, format string) error {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md", "":
		return SymbolsMarkdown(w, t)
	case FormatHTML:
		return SymbolsHTML(w, t)
	case FormatCSV:
		return SymbolsCSV(w, t)
	case FormatTable, FormatText:
		return SymbolsTable(w, t)
	case FormatJSON:
		return writeJSON(w, t)
	case FormatJS:
		return SymbolsJS(w, t.Name, t.Entries)
	default:
		return fmt.Errorf("unsupported symbol format: %s", format)
	}
}

// SymbolsMarkdown writes the table grouped by initial, one "- x -" section
// per group.
func SymbolsMarkdown(w io.Writer, t *symbols.Table) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", escapeMarkdown(t.Name))
	for _, g := range symbols.GroupByInitial(t.Entries) {
		fmt.Fprintf(&b, "\n## - %s -\n\n", escapeMarkdown(g.Key))
		for _, e := range g.Entries {
			if e.HasLink {
				fmt.Fprintf(&b, "- [`%s`](%s)\n", e.Name, e.Link)
			} else {
				fmt.Fprintf(&b, "- `%s`\n", e.Name)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// SymbolsHTML writes a standalone HTML page for the table.
func SymbolsHTML(w io.Writer, t *symbols.Table) error {
	var src bytes.Buffer
	if err := SymbolsMarkdown(&src, t); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := goldmark.Convert(src.Bytes(), &body); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	title := html.EscapeString(t.Name)
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n", title, body.String())
	return err
}

// SymbolsCSV writes name,link rows with a header.
func SymbolsCSV(w io.Writer, t *symbols.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "link"}); err != nil {
		return err
	}
	for _, e := range t.Entries {
		if err := cw.Write([]string{e.Name, e.Link}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SymbolsTable writes an aligned terminal table.
func SymbolsTable(w io.Writer, t *symbols.Table) error {
	x := table.NewWriter()
	x.SetTitle(t.Name)
	x.AppendHeader(table.Row{"#", "name", "page", "anchor"})
	for i, e := range t.Entries {
		page, frag := navtree.SplitLink(e.Link)
		x.AppendRow(table.Row{strconv.Itoa(i), e.Name, page, frag})
	}
	_, err := io.WriteString(w, x.Render()+"\n")
	return err
}

// SearchTable writes ranked search results as a terminal table.
func SearchTable(w io.Writer, results []symbols.Result) error {
	x := table.NewWriter()
	x.AppendHeader(table.Row{"score", "name", "link", "table"})
	for _, r := range results {
		x.AppendRow(table.Row{strconv.FormatFloat(r.Score, 'f', 2, 64), r.Entry.Name, r.Entry.Link, r.Table})
	}
	_, err := io.WriteString(w, x.Render()+"\n")
	return err
}
