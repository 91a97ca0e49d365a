package parser

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/google/go-cmp/cmp"
)

func TestJSParser_WHD(t *testing.T) {
	f, err := os.Open("../jsdata/testdata/navtreedata.js")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	p, err := ForFile("navtreedata.js")
	if err != nil {
		t.Fatalf("ForFile: %v", err)
	}
	tree, err := p.Parse(context.Background(), f, "navtreedata.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root.Label != "Wi-Fi Host Driver (WHD)" || len(tree.Root.Children) != 12 {
		t.Errorf("unexpected root %q with %d children", tree.Root.Label, len(tree.Root.Children))
	}
	if len(tree.Index) != 6 {
		t.Errorf("expected 6 index entries, got %d", len(tree.Index))
	}
}

func TestJSONParser(t *testing.T) {
	input := `{"root":{"label":"Root","link":"index.html","children":[{"label":"A","ref":"a"}]},"index":["index.html"]}`
	tree, err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(input), "tree.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &navtree.Tree{
		Root:  &navtree.NavNode{Label: "Root", Link: "index.html", Children: []*navtree.NavNode{{Label: "A", Ref: "a"}}},
		Index: []string{"index.html"},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	if _, err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(`{"index":[]}`), "x.json"); err == nil {
		t.Error("expected error for missing root")
	}
	if _, err := (&JSONParser{}).Parse(context.Background(), strings.NewReader(`{"root":{},"extra":1}`), "x.json"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"navtreedata.js", "tree.JSON", "nav.md", "nav.markdown", "nav.htm"} {
		if _, err := ForFile(name); err != nil {
			t.Errorf("ForFile(%q): %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("IsSupportedExtension(%q) = false", name)
		}
	}
	if _, err := ForFile("manual.pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}
