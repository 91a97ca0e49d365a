package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDirSource_OpenAndList(t *testing.T) {
	fsys := fstest.MapFS{
		"navtreedata.js": {Data: []byte("var NAVTREE = [];")},
		"modules.js":     {Data: []byte("var modules = [];")},
		"index.html":     {Data: []byte("<html></html>")},
	}
	src := NewDirSource(fsys)
	ctx := context.Background()

	data, err := ReadFile(ctx, src, "/navtreedata.js")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "var NAVTREE = [];" {
		t.Errorf("unexpected content %q", data)
	}

	names, err := src.List(ctx, "*.js")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"modules.js", "navtreedata.js"}, names); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestDirSource_NotFoundAndInvalid(t *testing.T) {
	src := NewDirSource(fstest.MapFS{})
	ctx := context.Background()

	_, err := src.Open(ctx, "missing.js")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := src.Open(ctx, "../etc/passwd"); !errors.Is(err, ErrOutsideSite) || errors.Is(err, ErrNotFound) {
		t.Errorf("expected invalid name error, got %v", err)
	}
	if _, err := src.Open(ctx, ""); err == nil {
		t.Errorf("expected error for empty name")
	}
}

func TestDirSource_CanceledContext(t *testing.T) {
	src := NewDirSource(fstest.MapFS{"a.js": {Data: []byte("x")}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Open(ctx, "a.js"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestHTTPSource_Open(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/docs/html/navtreedata.js":
			w.Write([]byte("var NAVTREE = [];"))
		case "/docs/html/broken.js":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/docs/html/", "secret", WithTimeout(5*time.Second))
	defer src.Close()
	ctx := context.Background()

	data, err := ReadFile(ctx, src, "navtreedata.js")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "var NAVTREE = [];" {
		t.Errorf("unexpected content %q", data)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}

	if _, err := src.Open(ctx, "missing.js"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	_, err = src.Open(ctx, "broken.js")
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestNew_PicksSourceKind(t *testing.T) {
	src, err := New("https://example.com/docs", "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := src.(*HTTPSource); !ok {
		t.Errorf("expected HTTPSource, got %T", src)
	}

	dir := t.TempDir()
	src, err = New(dir, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := src.(*DirSource); !ok {
		t.Errorf("expected DirSource, got %T", src)
	}

	if _, err := New(dir+"/nope", ""); err == nil {
		t.Errorf("expected error for missing directory")
	}
}
