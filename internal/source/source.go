package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// ErrNotFound is returned when a site file does not exist.
var ErrNotFound = errors.New("not found")

// ErrOutsideSite is returned for names that escape the site root, such as
// the ../../other/html links Doxygen writes for tag files.
var ErrOutsideSite = errors.New("outside the site")

// Source opens files of a generated documentation site by relative name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Lister is implemented by sources that can enumerate their files.
type Lister interface {
	List(ctx context.Context, pattern string) ([]string, error)
}

// ReadFile reads a whole file from src.
func ReadFile(ctx context.Context, src Source, name string) ([]byte, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// DirSource serves files from an fs.FS, typically Doxygen's html directory.
type DirSource struct {
	fsys fs.FS
}

func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

// OpenDir returns a DirSource rooted at a local directory.
func OpenDir(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open site dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open site dir: %s is not a directory", dir)
	}
	return NewDirSource(os.DirFS(dir)), nil
}

func (s *DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// List returns file names matching a path.Match pattern, sorted.
func (s *DirSource) List(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := fs.Glob(s.fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", pattern, err)
	}
	sort.Strings(names)
	return names, nil
}

// cleanName rejects names that escape the site root.
func cleanName(name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if clean == "." || !fs.ValidPath(clean) {
		return "", fmt.Errorf("invalid file name %q: %w", name, ErrOutsideSite)
	}
	return clean, nil
}

// New picks an HTTPSource for http(s) URLs and a DirSource otherwise.
func New(site, token string, opts ...HTTPOption) (Source, error) {
	if strings.HasPrefix(site, "http://") || strings.HasPrefix(site, "https://") {
		return NewHTTPSource(site, token, opts...), nil
	}
	return OpenDir(site)
}
