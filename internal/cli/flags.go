package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/navdoc/internal/loader"
	"github.com/dgallion1/navdoc/internal/parser"
	"github.com/dgallion1/navdoc/internal/source"
	"github.com/spf13/cobra"
)

// siteFlags are the persistent flags every site command shares.
type siteFlags struct {
	site     string
	token    string
	root     string
	strict   bool
	symbols  []string
	discover bool
	verbose  bool
}

func (f *siteFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.site, "site", os.Getenv("NAVDOC_SITE"), "Doxygen html directory or base URL (default $NAVDOC_SITE)")
	pf.StringVar(&f.token, "token", os.Getenv("NAVDOC_SITE_TOKEN"), "Bearer token for a hosted site")
	pf.StringVar(&f.root, "root", os.Getenv("NAVDOC_ROOT"), "Tree file inside the site: navtreedata.js, or a .json/.md/.html outline")
	pf.BoolVar(&f.strict, "strict", false, "Fail when a referenced sub-table or symbol file is missing")
	pf.StringSliceVar(&f.symbols, "symbols", nil, "Extra symbol table names (comma-separated, e.g. whd__wifi__api_8h)")
	pf.BoolVar(&f.discover, "discover", true, "Scan the site directory for symbol table files")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log loading details to stderr")
}

func (f *siteFlags) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (f *siteFlags) source() (source.Source, error) {
	site := strings.TrimSpace(f.site)
	if site == "" {
		return nil, fmt.Errorf("--site is required (or set NAVDOC_SITE)")
	}
	return source.New(site, f.token)
}

// load opens the site and loads its navigation data.
func (f *siteFlags) load(cmd *cobra.Command) (*loader.Site, source.Source, error) {
	if f.root != "" && !parser.IsSupportedExtension(f.root) {
		return nil, nil, fmt.Errorf("--root %s: unsupported file type", f.root)
	}
	src, err := f.source()
	if err != nil {
		return nil, nil, err
	}
	log := f.logger(cmd).With("site", f.site)
	site, err := loader.Load(cmd.Context(), src, loader.Options{
		Root:         f.root,
		Strict:       f.strict,
		SymbolTables: f.symbols,
		Discover:     f.discover,
		Logger:       log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", f.site, err)
	}
	for _, name := range site.Missing {
		log.Warn("missing file", "file", name)
	}
	return site, src, nil
}

func boolFlag(cmd *cobra.Command, name string) (bool, error) {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return v, nil
}

func intFlag(cmd *cobra.Command, name string) (int, error) {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return v, nil
}

func stringFlag(cmd *cobra.Command, name string) (string, error) {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(v), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
