package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/google/go-cmp/cmp"
)

func TestMarkdownParser_HeadingsAndLists(t *testing.T) {
	input := `# [Wi-Fi Host Driver](index.html)

- [WHD Overview](index.html#overview)
- [Modules](modules.html)
  - [Bus API](group__busapi.html)
  - Plain label

## [Files](files.html)

- [File List](files.html)
- ` + "`whd_types.h`" + `
`
	p := &MarkdownParser{}
	tree, err := p.Parse(context.Background(), strings.NewReader(input), "nav.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &navtree.NavNode{Label: "Wi-Fi Host Driver", Link: "index.html", Children: []*navtree.NavNode{
		{Label: "WHD Overview", Link: "index.html#overview"},
		{Label: "Modules", Link: "modules.html", Children: []*navtree.NavNode{
			{Label: "Bus API", Link: "group__busapi.html"},
			{Label: "Plain label"},
		}},
		{Label: "Files", Link: "files.html", Children: []*navtree.NavNode{
			{Label: "File List", Link: "files.html"},
			{Label: "whd_types.h"},
		}},
	}}
	if diff := cmp.Diff(want, tree.Root); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownParser_EscapedLabels(t *testing.T) {
	input := "- [Root](index.html)\n  - [whd\\_init](a.html#x)\n  - Data \\[raw\\]\n"
	tree, err := (&MarkdownParser{}).Parse(context.Background(), strings.NewReader(input), "nav.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root.Label != "Root" || len(tree.Root.Children) != 2 {
		t.Fatalf("unexpected root %+v", tree.Root)
	}
	if got := tree.Root.Children[0].Label; got != "whd_init" {
		t.Errorf("expected unescaped label, got %q", got)
	}
	if got := tree.Root.Children[1].Label; got != "Data [raw]" {
		t.Errorf("expected unescaped label, got %q", got)
	}
}

func TestMarkdownParser_SeveralTopLevelEntries(t *testing.T) {
	input := "- [A](a.html)\n- [B](b.html)\n"
	tree, err := (&MarkdownParser{}).Parse(context.Background(), strings.NewReader(input), "docs/outline.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Root.Label != "outline" || len(tree.Root.Children) != 2 {
		t.Errorf("expected synthetic root named after the file, got %+v", tree.Root)
	}
}

func TestMarkdownParser_NoEntries(t *testing.T) {
	_, err := (&MarkdownParser{}).Parse(context.Background(), strings.NewReader("Just some plain text.\n"), "empty.md")
	if err == nil {
		t.Fatal("expected error for outline without entries")
	}
}
