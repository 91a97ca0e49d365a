package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/navdoc/internal/jsdata"
	"github.com/dgallion1/navdoc/internal/navtree"
)

// NavTreeJS regenerates navtreedata.js. Nodes with a ref are written as the
// ref name unless inline is set, in which case resolved children are written
// in place.
func NavTreeJS(w io.Writer, t *navtree.Tree, inline bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "var %s =\n[\n", jsdata.VarNavTree)
	writeEntry(bw, t.Root, 1, inline, true)
	bw.WriteString("];\n")

	if t.Index != nil {
		fmt.Fprintf(bw, "\nvar %s =\n[\n", jsdata.VarNavTreeIndex)
		for i, link := range t.Index {
			bw.WriteString(jsQuote(link))
			if i < len(t.Index)-1 {
				bw.WriteByte(',')
			}
			bw.WriteByte('\n')
		}
		bw.WriteString("];\n")
	}

	if t.SyncOnMsg != "" {
		fmt.Fprintf(bw, "\nvar %s = %s;\n", jsdata.VarSyncOn, jsQuote(t.SyncOnMsg))
	}
	if t.SyncOffMsg != "" {
		fmt.Fprintf(bw, "var %s = %s;\n", jsdata.VarSyncOff, jsQuote(t.SyncOffMsg))
	}
	return bw.Flush()
}

// TableJS regenerates a sub-table file: `var name = [...];`.
func TableJS(w io.Writer, tbl *navtree.Table) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "var %s =\n[\n", tbl.Name)
	for i, e := range tbl.Entries {
		writeEntry(bw, e, 2, false, i == len(tbl.Entries)-1)
	}
	bw.WriteString("];\n")
	return bw.Flush()
}

// PartitionJS regenerates navtreeindex<n>.js.
func PartitionJS(w io.Writer, p *navtree.Partition) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "var %s =\n{\n", jsdata.PartitionVar(p.Number))
	for i, e := range p.Entries {
		bw.WriteString(jsQuote(e.Link))
		bw.WriteString(":[")
		for j, idx := range e.Path {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(strconv.Itoa(idx))
		}
		bw.WriteByte(']')
		if i < len(p.Entries)-1 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
	}
	bw.WriteString("};\n")
	return bw.Flush()
}

// SymbolsJS regenerates a symbol index table file.
func SymbolsJS(w io.Writer, name string, entries []navtree.SymbolEntry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "var %s =\n[\n", name)
	for i, e := range entries {
		link := "null"
		if e.HasLink {
			link = jsQuote(e.Link)
		}
		fmt.Fprintf(bw, "    [ %s, %s, null ]", jsQuote(e.Name), link)
		if i < len(entries)-1 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
	}
	bw.WriteString("];\n")
	return bw.Flush()
}

func writeEntry(bw *bufio.Writer, n *navtree.NavNode, depth int, inline, last bool) {
	indent := strings.Repeat("  ", depth)
	link := "null"
	if n.Link != "" {
		link = jsQuote(n.Link)
	}
	fmt.Fprintf(bw, "%s[ %s, %s, ", indent, jsQuote(n.Label), link)

	switch {
	case n.Ref != "" && !(inline && n.Children != nil):
		bw.WriteString(jsQuote(n.Ref) + " ]")
	case len(n.Children) > 0:
		bw.WriteString("[\n")
		for i, c := range n.Children {
			writeEntry(bw, c, depth+1, inline, i == len(n.Children)-1)
		}
		bw.WriteString(indent + "] ]")
	default:
		bw.WriteString("null ]")
	}
	if !last {
		bw.WriteByte(',')
	}
	bw.WriteByte('\n')
}

// jsQuote writes s as a double-quoted JavaScript string literal.
func jsQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20, r == 0x2028, r == 0x2029:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
