package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/navdoc/internal/jsdata"
	"github.com/dgallion1/navdoc/internal/navtree"
)

// Parser converts a navigation source file into a Tree.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, filename string) (*navtree.Tree, error)
}

// SupportedExtensions lists file extensions navdoc can read a tree from.
var SupportedExtensions = map[string]bool{
	".js":       true,
	".json":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".js":
		return &JSParser{}, nil
	case ".json":
		return &JSONParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// JSParser reads Doxygen's navtreedata.js.
type JSParser struct{}

func (p *JSParser) Parse(ctx context.Context, r io.Reader, filename string) (*navtree.Tree, error) {
	s, err := jsdata.ParseReader(ctx, r, filename)
	if err != nil {
		return nil, err
	}
	return jsdata.NavTreeData(s)
}

// JSONParser reads a tree previously exported as JSON.
type JSONParser struct{}

func (p *JSONParser) Parse(_ context.Context, r io.Reader, filename string) (*navtree.Tree, error) {
	var tree navtree.Tree
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	if tree.Root == nil {
		return nil, fmt.Errorf("%s: missing root", filename)
	}
	return &tree, nil
}

// stem returns the file name without directory and extension.
func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// outline finishes a parsed outline. Without a document title, a single
// top-level entry becomes the root itself, as in navtreedata.js.
func outline(root *navtree.NavNode, filename string, titled bool) (*navtree.Tree, error) {
	if len(root.Children) == 0 {
		return nil, fmt.Errorf("%s: no navigation entries", filename)
	}
	if len(root.Children) == 1 && !titled {
		root = root.Children[0]
	}
	return &navtree.Tree{Root: root}, nil
}
