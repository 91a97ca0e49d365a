package jsdata

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, filename, src string) *Script {
	t.Helper()
	s, err := Parse(context.Background(), filename, []byte(src))
	if err != nil {
		t.Fatalf("parse %s: %v", filename, err)
	}
	return s
}

func TestParse_Literals(t *testing.T) {
	src := `/* header */
var A = [ "x", 'y', null, true, false, 42, -1.5, [ ], { "k": [0, 1], other: 2 } ];
var B = "solo";
`
	s := mustParse(t, "lit.js", src)
	if len(s.Vars) != 2 {
		t.Fatalf("expected 2 vars, got %d", len(s.Vars))
	}
	a, ok := s.Lookup("A")
	if !ok || a.Kind != KindArray {
		t.Fatalf("expected array A, got %+v", a)
	}
	kinds := make([]Kind, 0, len(a.Items))
	for _, it := range a.Items {
		kinds = append(kinds, it.Kind)
	}
	want := []Kind{KindString, KindString, KindNull, KindBool, KindBool, KindNumber, KindNumber, KindArray, KindObject}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if a.Items[1].Str != "y" {
		t.Errorf("expected single-quoted string y, got %q", a.Items[1].Str)
	}
	if !a.Items[3].Bool || a.Items[4].Bool {
		t.Errorf("booleans decoded wrong: %+v %+v", a.Items[3], a.Items[4])
	}
	if a.Items[6].Num != -1.5 {
		t.Errorf("expected -1.5, got %v", a.Items[6].Num)
	}
	if len(a.Items[7].Items) != 0 {
		t.Errorf("expected empty array")
	}
	obj := a.Items[8]
	if len(obj.Fields) != 2 || obj.Fields[0].Key != "k" || obj.Fields[1].Key != "other" {
		t.Errorf("object fields decoded wrong: %+v", obj.Fields)
	}
	if b, _ := s.Lookup("B"); b.Str != "solo" {
		t.Errorf("expected B=solo, got %+v", b)
	}
	if _, ok := s.Lookup("C"); ok {
		t.Errorf("expected C to be absent")
	}
}

func TestParse_StringEscapes(t *testing.T) {
	src := `var S = [ "a\"b", 'it\'s', "tab\there", "é", "\x41", "back\\slash", "\/" ];`
	s := mustParse(t, "esc.js", src)
	v, _ := s.Lookup("S")
	var got []string
	for _, it := range v.Items {
		got = append(got, it.Str)
	}
	want := []string{`a"b`, "it's", "tab\there", "é", "A", `back\slash`, "/"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("escapes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse(context.Background(), "bad.js", []byte(`var X = [ "a", ;`))
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if se.Filename != "bad.js" || se.Pos.Row != 1 {
		t.Errorf("unexpected error position %+v", se)
	}
}

func TestParse_RejectsNonLiterals(t *testing.T) {
	tests := []string{
		`var X = foo();`,
		`var X = [ y ];`,
		`function f() {}`,
		`var X = { ...y };`,
	}
	for _, src := range tests {
		_, err := Parse(context.Background(), "x.js", []byte(src))
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%s: expected SyntaxError, got %v", src, err)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{`"plain"`, "plain", true},
		{`''`, "", true},
		{`"\u{1F600}"`, "😀", true},
		{`"😀"`, "😀", true},
		{`"line\
cont"`, "linecont", true},
		{`"mismatch'`, "", false},
		{`"\x4"`, "", false},
		{`"\u12"`, "", false},
	}
	for _, tt := range tests {
		got, err := unquote(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("unquote(%s) err=%v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("unquote(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNavTreeData_WHD(t *testing.T) {
	src, err := os.ReadFile("testdata/navtreedata.js")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	s, err := Parse(context.Background(), "navtreedata.js", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tree, err := NavTreeData(s)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}

	if tree.Root.Label != "Wi-Fi Host Driver (WHD)" || tree.Root.Link != "index.html" {
		t.Errorf("unexpected root %q %q", tree.Root.Label, tree.Root.Link)
	}
	if len(tree.Root.Children) != 12 {
		t.Fatalf("expected 12 top-level children, got %d", len(tree.Root.Children))
	}

	modules := tree.Root.Children[9]
	if modules.Label != "Modules" || modules.Link != "modules.html" || modules.Ref != "modules" {
		t.Errorf("unexpected Modules entry %+v", modules)
	}
	if modules.Children != nil {
		t.Errorf("expected unresolved ref to have nil children")
	}

	overview := tree.Root.Children[0]
	if overview.Link != "index.html#overview" || !overview.IsLeaf() {
		t.Errorf("unexpected overview entry %+v", overview)
	}

	globals := tree.Root.Children[11].Children[1]
	if globals.Label != "Globals" || len(globals.Children) != 6 {
		t.Fatalf("unexpected Globals entry %+v", globals)
	}
	if globals.Children[5].Ref != "globals_defs" {
		t.Errorf("expected Macros to reference globals_defs, got %q", globals.Children[5].Ref)
	}

	wantIndex := []string{
		"annotated.html",
		"group__wifiutilities.html#ga92b6063464e66c62c633fc19ca73d68c",
		"structwhd__list__t.html#a86988a65e0d3ece7990c032c159786d6",
		"whd__types_8h.html#a27ea061512955c1fa154666b11346771",
		"whd__types_8h.html#a5adb0953a8527552bc47001673830602ac52c278360c46c8fb831604c3333adf6",
		"whd__types_8h.html#ac7923e15c2e0a935cb7c8cad13b9dc6e",
	}
	if diff := cmp.Diff(wantIndex, tree.Index); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	if tree.SyncOnMsg != "click to disable panel synchronisation" {
		t.Errorf("unexpected SYNCONMSG %q", tree.SyncOnMsg)
	}
	if tree.SyncOffMsg != "click to enable panel synchronisation" {
		t.Errorf("unexpected SYNCOFFMSG %q", tree.SyncOffMsg)
	}
}

func TestNavTreeData_Idempotent(t *testing.T) {
	src, err := os.ReadFile("testdata/navtreedata.js")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	load := func() any {
		s, err := Parse(context.Background(), "navtreedata.js", src)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		tree, err := NavTreeData(s)
		if err != nil {
			t.Fatalf("interpret: %v", err)
		}
		return tree
	}
	if diff := cmp.Diff(load(), load()); diff != "" {
		t.Errorf("two loads differ (-first +second):\n%s", diff)
	}
}

func TestNavTreeData_Errors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"missing", `var OTHER = [];`, "NAVTREE not declared"},
		{"two roots", `var NAVTREE = [ [ "a", "a.html", null ], [ "b", "b.html", null ] ];`, "exactly one"},
		{"short entry", `var NAVTREE = [ [ "a", "a.html" ] ];`, "[label, link, children]"},
		{"empty children", `var NAVTREE = [ [ "a", "a.html", [ ] ] ];`, "empty child list"},
		{"bad label", `var NAVTREE = [ [ 1, "a.html", null ] ];`, "label must be a string"},
		{"bad index", `var NAVTREE = [ [ "a", "a.html", null ] ]; var NAVTREEINDEX = [ 3 ];`, "must be strings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, "navtreedata.js", tt.src)
			_, err := NavTreeData(s)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTableData(t *testing.T) {
	src := `var modules =
[
    [ "WHD Bus API", "group__busapi.html", "group__busapi" ],
    [ "WHD Wi-Fi API", "group__wifiapi.html", [
      [ "WHD Wi-Fi Management API", "group__wifimanagement.html", null ]
    ] ]
];`
	s := mustParse(t, "modules.js", src)
	tbl, err := TableData(s, "modules")
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if tbl.Name != "modules" || len(tbl.Entries) != 2 {
		t.Fatalf("unexpected table %+v", tbl)
	}
	if tbl.Entries[0].Ref != "group__busapi" {
		t.Errorf("expected ref group__busapi, got %q", tbl.Entries[0].Ref)
	}
	if len(tbl.Entries[1].Children) != 1 {
		t.Errorf("expected inline child")
	}
	if _, err := TableData(s, "annotated"); err == nil {
		t.Errorf("expected error for undeclared table")
	}
}

func TestPartitionData(t *testing.T) {
	src := `var NAVTREEINDEX2 =
{
"annotated.html":[10,0],
"index.html":[],
"index.html#apis":[8]
};`
	s := mustParse(t, "navtreeindex2.js", src)
	p, err := PartitionData(s, 2)
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if p.Number != 2 || len(p.Entries) != 3 {
		t.Fatalf("unexpected partition %+v", p)
	}
	if diff := cmp.Diff([]int{10, 0}, p.Entries[0].Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	if len(p.Entries[1].Path) != 0 || p.Entries[1].Path == nil {
		t.Errorf("expected empty non-nil root path, got %#v", p.Entries[1].Path)
	}
	if p.Entries[2].Link != "index.html#apis" {
		t.Errorf("expected source key order, got %q", p.Entries[2].Link)
	}

	bad := mustParse(t, "navtreeindex0.js", `var NAVTREEINDEX0 = { "a.html": [1.5] };`)
	if _, err := PartitionData(bad, 0); err == nil {
		t.Errorf("expected error for fractional path index")
	}
}

func TestSymbolRows_WHD(t *testing.T) {
	src, err := os.ReadFile("testdata/whd__wifi__api_8h.js")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	s, err := Parse(context.Background(), "whd__wifi__api_8h.js", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rows, err := SymbolRows(s, "whd__wifi__api_8h")
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if len(rows) != 103 {
		t.Fatalf("expected 103 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.Name != "whd_scan_result_callback_t" || first.Link != "group__wifijoin.html#ga9f8c6096922212981dd2101a17aec471" || !first.HasLink {
		t.Errorf("unexpected first row %+v", first)
	}
	if rows[len(rows)-1].Name != "whd_print_stats" {
		t.Errorf("unexpected last row %+v", rows[len(rows)-1])
	}
}

func TestSymbolRows_NullLinkAndErrors(t *testing.T) {
	s := mustParse(t, "x.js", `var x = [ [ "a", null ], [ "b", "p.html#f" ] ];`)
	rows, err := SymbolRows(s, "x")
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if rows[0].HasLink || rows[0].Link != "" {
		t.Errorf("expected null link, got %+v", rows[0])
	}

	bad := mustParse(t, "y.js", `var y = [ [ "a", "p.html#f", [ [ "c", null, null ] ] ] ];`)
	if _, err := SymbolRows(bad, "y"); err == nil {
		t.Errorf("expected error for row with children")
	}
}
