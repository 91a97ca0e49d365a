package jsdata

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// SyntaxError reports input that is not a sequence of literal declarations.
type SyntaxError struct {
	Filename string
	Pos      Pos
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%s: %s", e.Filename, e.Pos, e.Msg)
}

// ParseReader reads r fully and parses it.
func ParseReader(ctx context.Context, r io.Reader, filename string) (*Script, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return Parse(ctx, filename, src)
}

// Parse extracts the top-level var declarations of a generated JavaScript
// data file. Only literal initialisers are accepted.
func Parse(ctx context.Context, filename string, src []byte) (*Script, error) {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	defer tree.Close()

	d := &decoder{filename: filename, src: src}
	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		if bad == nil {
			bad = root
		}
		return nil, d.errorf(bad, "syntax error")
	}

	script := &Script{Filename: filename}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "comment", "empty_statement":
			continue
		case "variable_declaration", "lexical_declaration":
			vars, err := d.declaration(stmt)
			if err != nil {
				return nil, err
			}
			script.Vars = append(script.Vars, vars...)
		default:
			return nil, d.errorf(stmt, "unsupported statement %s", stmt.Type())
		}
	}
	return script, nil
}

type decoder struct {
	filename string
	src      []byte
}

func (d *decoder) errorf(n *sitter.Node, format string, args ...any) error {
	pt := n.StartPoint()
	return &SyntaxError{
		Filename: d.filename,
		Pos:      Pos{Row: int(pt.Row) + 1, Column: int(pt.Column) + 1},
		Msg:      fmt.Sprintf(format, args...),
	}
}

func (d *decoder) declaration(stmt *sitter.Node) ([]Var, error) {
	var vars []Var
	for j := 0; j < int(stmt.NamedChildCount()); j++ {
		decl := stmt.NamedChild(j)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			return nil, d.errorf(decl, "unsupported declaration target")
		}
		name := nameNode.Content(d.src)
		valueNode := decl.ChildByFieldName("value")
		if valueNode == nil {
			return nil, d.errorf(decl, "%s has no initialiser", name)
		}
		v, err := d.value(valueNode)
		if err != nil {
			return nil, err
		}
		vars = append(vars, Var{Name: name, Value: v})
	}
	return vars, nil
}

func (d *decoder) value(n *sitter.Node) (Value, error) {
	pt := n.StartPoint()
	pos := Pos{Row: int(pt.Row) + 1, Column: int(pt.Column) + 1}

	switch n.Type() {
	case "null":
		return Value{Kind: KindNull, Pos: pos}, nil
	case "true", "false":
		return Value{Kind: KindBool, Bool: n.Type() == "true", Pos: pos}, nil
	case "string":
		s, err := unquote(n.Content(d.src))
		if err != nil {
			return Value{}, d.errorf(n, "%v", err)
		}
		return Value{Kind: KindString, Str: s, Pos: pos}, nil
	case "number":
		f, err := parseNumber(n.Content(d.src))
		if err != nil {
			return Value{}, d.errorf(n, "%v", err)
		}
		return Value{Kind: KindNumber, Num: f, Pos: pos}, nil
	case "unary_expression":
		arg := n.ChildByFieldName("argument")
		op := n.ChildByFieldName("operator")
		if arg == nil || op == nil || arg.Type() != "number" {
			return Value{}, d.errorf(n, "unsupported unary expression")
		}
		v, err := d.value(arg)
		if err != nil {
			return Value{}, err
		}
		switch op.Content(d.src) {
		case "-":
			v.Num = -v.Num
		case "+":
		default:
			return Value{}, d.errorf(n, "unsupported unary operator %s", op.Content(d.src))
		}
		v.Pos = pos
		return v, nil
	case "parenthesized_expression":
		if n.NamedChildCount() != 1 {
			return Value{}, d.errorf(n, "unsupported parenthesized expression")
		}
		return d.value(n.NamedChild(0))
	case "array":
		v := Value{Kind: KindArray, Items: []Value{}, Pos: pos}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "comment" {
				continue
			}
			item, err := d.value(c)
			if err != nil {
				return Value{}, err
			}
			v.Items = append(v.Items, item)
		}
		return v, nil
	case "object":
		v := Value{Kind: KindObject, Fields: []Field{}, Pos: pos}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "comment":
				continue
			case "pair":
			default:
				return Value{}, d.errorf(c, "unsupported object member %s", c.Type())
			}
			key, err := d.key(c.ChildByFieldName("key"))
			if err != nil {
				return Value{}, err
			}
			valueNode := c.ChildByFieldName("value")
			if valueNode == nil {
				return Value{}, d.errorf(c, "property %s has no value", key)
			}
			fv, err := d.value(valueNode)
			if err != nil {
				return Value{}, err
			}
			v.Fields = append(v.Fields, Field{Key: key, Value: fv})
		}
		return v, nil
	default:
		return Value{}, d.errorf(n, "unsupported expression %s", n.Type())
	}
}

func (d *decoder) key(n *sitter.Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("%s: object property without key", d.filename)
	}
	switch n.Type() {
	case "string":
		s, err := unquote(n.Content(d.src))
		if err != nil {
			return "", d.errorf(n, "%v", err)
		}
		return s, nil
	case "property_identifier", "number":
		return n.Content(d.src), nil
	default:
		return "", d.errorf(n, "unsupported property key %s", n.Type())
	}
}

func parseNumber(raw string) (float64, error) {
	s := strings.ReplaceAll(raw, "_", "")
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	i, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return float64(i), nil
}

// unquote decodes a single- or double-quoted JavaScript string literal.
func unquote(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != raw[len(raw)-1] || (raw[0] != '"' && raw[0] != '\'') {
		return "", fmt.Errorf("malformed string literal %s", raw)
	}
	body := raw[1 : len(raw)-1]
	if !strings.Contains(body, `\`) {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape in %s", raw)
		}
		switch e := body[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case 'x':
			if i+2 >= len(body) {
				return "", fmt.Errorf("short \\x escape in %s", raw)
			}
			r, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("bad \\x escape in %s", raw)
			}
			b.WriteRune(rune(r))
			i += 2
		case 'u':
			r, n, err := unicodeEscape(body[i+1:])
			if err != nil {
				return "", fmt.Errorf("%v in %s", err, raw)
			}
			b.WriteRune(r)
			i += n
		default:
			// \" \' \\ \/ and any other character stand for themselves.
			r, size := utf8.DecodeRuneInString(body[i:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String(), nil
}

// unicodeEscape decodes the text following `\u` and returns the rune and the
// number of bytes consumed.
func unicodeEscape(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, fmt.Errorf("bad \\u{} escape")
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, fmt.Errorf("bad \\u{} escape")
		}
		return rune(v), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("short \\u escape")
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad \\u escape")
	}
	r := rune(v)
	// Surrogate pair.
	if r >= 0xD800 && r < 0xDC00 && len(s) >= 10 && s[4] == '\\' && s[5] == 'u' {
		if lo, err := strconv.ParseUint(s[6:10], 16, 16); err == nil && lo >= 0xDC00 && lo < 0xE000 {
			return (r-0xD800)<<10 + (rune(lo) - 0xDC00) + 0x10000, 10, nil
		}
	}
	return r, 4, nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}
