// Package loader assembles a documentation site's navigation data: the tree,
// its cross-file sub-tables, the index partitions and the symbol tables.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"log/slog"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/dgallion1/navdoc/internal/jsdata"
	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/dgallion1/navdoc/internal/parser"
	"github.com/dgallion1/navdoc/internal/source"
	"github.com/dgallion1/navdoc/internal/symbols"
	"golang.org/x/sync/errgroup"
)

// RootFile is the navigation data file Doxygen writes.
const RootFile = "navtreedata.js"

// Phase names a loading step, reported through Options.OnPhase.
type Phase string

const (
	PhaseParsing   Phase = "parsing"
	PhaseResolving Phase = "resolving"
	PhaseIndexing  Phase = "indexing"
)

// Options control Load.
type Options struct {
	Root         string   // tree file, RootFile when empty
	Strict       bool     // fail on missing sub-table or symbol files
	Concurrency  int      // parallel file reads per wave
	SymbolTables []string // extra symbol table names, e.g. whd__wifi__api_8h
	Discover     bool     // scan listable sources for symbol table files
	Logger       *slog.Logger
	OnPhase      func(Phase)
}

func (o Options) withDefaults() Options {
	if o.Root == "" {
		o.Root = RootFile
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// CycleError reports a sub-table that references itself through its
// descendants.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "reference cycle: " + strings.Join(e.Chain, " -> ")
}

type loader struct {
	src     source.Source
	opts    Options
	log     *slog.Logger
	hash    hash.Hash
	site    *Site
	tried   map[string]bool
	missing map[string]bool
}

// Load reads the site's navigation data from src.
func Load(ctx context.Context, src source.Source, opts Options) (*Site, error) {
	opts = opts.withDefaults()
	l := &loader{
		src:     src,
		opts:    opts,
		log:     opts.Logger,
		hash:    sha256.New(),
		site:    &Site{Tables: make(map[string]*navtree.Table)},
		tried:   make(map[string]bool),
		missing: make(map[string]bool),
	}

	l.phase(PhaseParsing)
	files, err := l.fetch(ctx, []string{opts.Root})
	if err != nil {
		return nil, err
	}
	if files[0].missing {
		return nil, fmt.Errorf("load %s: %w", opts.Root, source.ErrNotFound)
	}
	p, err := parser.ForFile(opts.Root)
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(ctx, bytes.NewReader(files[0].data), opts.Root)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", opts.Root, err)
	}
	l.site.Tree = tree

	l.phase(PhaseResolving)
	if err := l.resolve(ctx); err != nil {
		return nil, err
	}

	l.phase(PhaseIndexing)
	if err := l.loadPartitions(ctx); err != nil {
		return nil, err
	}
	if err := l.loadSymbols(ctx); err != nil {
		return nil, err
	}

	for name := range l.missing {
		l.site.Missing = append(l.site.Missing, name)
	}
	sort.Strings(l.site.Missing)
	l.site.Fingerprint = hex.EncodeToString(l.hash.Sum(nil))

	st := l.site.Stats()
	l.log.Info("site loaded",
		"nodes", st.Nodes,
		"tables", st.Tables,
		"partitions", st.Partitions,
		"symbol_tables", st.SymbolTables,
		"missing", st.Missing,
	)
	return l.site, nil
}

func (l *loader) phase(p Phase) {
	if l.opts.OnPhase != nil {
		l.opts.OnPhase(p)
	}
}

type fetched struct {
	name    string
	data    []byte
	missing bool
}

// fetch reads files concurrently. Absent files come back marked missing.
// Contents are added to the fingerprint in the order given.
func (l *loader) fetch(ctx context.Context, files []string) ([]fetched, error) {
	out := make([]fetched, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, name := range files {
		g.Go(func() error {
			data, err := source.ReadFile(gctx, l.src, name)
			if errors.Is(err, source.ErrNotFound) {
				out[i] = fetched{name: name, missing: true}
				return nil
			}
			if err != nil {
				return err
			}
			out[i] = fetched{name: name, data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, f := range out {
		if f.missing {
			continue
		}
		l.hash.Write([]byte(f.name))
		l.hash.Write([]byte{0})
		l.hash.Write(f.data)
	}
	return out, nil
}

type pending struct {
	node  *navtree.NavNode
	chain []string
}

func collectRefs(n *navtree.NavNode, chain []string) []pending {
	var out []pending
	navtree.Walk(n, func(c *navtree.NavNode, _ int, _ []int) error {
		if c.Unresolved() {
			out = append(out, pending{node: c, chain: chain})
		}
		return nil
	})
	return out
}

// resolve attaches sub-tables breadth first. Each wave reads every table
// referenced by the previous one that was not read before.
func (l *loader) resolve(ctx context.Context) error {
	queue := collectRefs(l.site.Tree.Root, nil)
	for wave := 0; len(queue) > 0; wave++ {
		var names []string
		for _, p := range queue {
			if !l.tried[p.node.Ref] {
				l.tried[p.node.Ref] = true
				names = append(names, p.node.Ref)
			}
		}
		sort.Strings(names)
		if err := l.loadTables(ctx, names); err != nil {
			return err
		}
		l.log.Debug("resolved wave", "wave", wave, "refs", len(queue), "tables", len(names))

		var next []pending
		for _, p := range queue {
			name := p.node.Ref
			if slices.Contains(p.chain, name) {
				return &CycleError{Chain: append(slices.Clone(p.chain), name)}
			}
			tbl, ok := l.site.Tables[name]
			if !ok || len(tbl.Entries) == 0 {
				continue
			}
			p.node.Children = make([]*navtree.NavNode, len(tbl.Entries))
			for i, e := range tbl.Entries {
				p.node.Children[i] = e.Clone()
			}
			chain := append(slices.Clone(p.chain), name)
			for _, c := range p.node.Children {
				next = append(next, collectRefs(c, chain)...)
			}
		}
		queue = next
	}
	return nil
}

func (l *loader) loadTables(ctx context.Context, names []string) error {
	files := make([]string, len(names))
	for i, name := range names {
		files[i] = name + ".js"
	}
	got, err := l.fetch(ctx, files)
	if err != nil {
		return err
	}
	for i, f := range got {
		name := names[i]
		if f.missing {
			if l.opts.Strict {
				return fmt.Errorf("sub-table %s: %w", name, source.ErrNotFound)
			}
			l.log.Warn("sub-table missing", "table", name, "file", f.name)
			l.missing[f.name] = true
			continue
		}
		s, err := jsdata.Parse(ctx, f.name, f.data)
		if err != nil {
			return err
		}
		tbl, err := jsdata.TableData(s, name)
		if err != nil {
			return err
		}
		l.site.Tables[name] = tbl
	}
	return nil
}

func (l *loader) loadPartitions(ctx context.Context) error {
	n := len(l.site.Tree.Index)
	if n == 0 {
		return nil
	}
	files := make([]string, n)
	for i := range files {
		files[i] = fmt.Sprintf("navtreeindex%d.js", i)
	}
	got, err := l.fetch(ctx, files)
	if err != nil {
		return err
	}
	for i, f := range got {
		if f.missing {
			l.log.Debug("partition missing", "file", f.name)
			l.missing[f.name] = true
			continue
		}
		s, err := jsdata.Parse(ctx, f.name, f.data)
		if err != nil {
			return err
		}
		part, err := jsdata.PartitionData(s, i)
		if err != nil {
			return err
		}
		l.site.Partitions = append(l.site.Partitions, part)
	}
	return nil
}

func (l *loader) loadSymbols(ctx context.Context) error {
	have := make(map[string]bool)
	add := func(t *symbols.Table) {
		if !have[t.Name] {
			have[t.Name] = true
			l.site.Symbols = append(l.site.Symbols, t)
		}
	}

	// Sub-tables that are plain member listings double as symbol tables.
	tableNames := make([]string, 0, len(l.site.Tables))
	for name := range l.site.Tables {
		tableNames = append(tableNames, name)
	}
	sort.Strings(tableNames)
	for _, name := range tableNames {
		tbl := l.site.Tables[name]
		if !symbols.IsSymbolTable(tbl) {
			continue
		}
		st, err := symbols.FromTable(tbl)
		if err != nil {
			return err
		}
		add(st)
	}

	var explicit []string
	for _, name := range l.opts.SymbolTables {
		name = strings.TrimSuffix(strings.TrimSpace(name), ".js")
		if name == "" || have[name] || slices.Contains(explicit, name) {
			continue
		}
		if _, ok := l.site.Tables[name]; ok {
			l.log.Warn("navigation sub-table is not a symbol table", "table", name)
			continue
		}
		explicit = append(explicit, name)
	}
	sort.Strings(explicit)
	if err := l.loadSymbolFiles(ctx, explicit, false); err != nil {
		return err
	}

	if l.opts.Discover {
		discovered, err := l.discover(ctx, have, explicit)
		if err != nil {
			return err
		}
		if err := l.loadSymbolFiles(ctx, discovered, true); err != nil {
			return err
		}
	}

	sort.Slice(l.site.Symbols, func(i, j int) bool {
		return l.site.Symbols[i].Name < l.site.Symbols[j].Name
	})
	return nil
}

// loadSymbolFiles reads `<name>.js` for each name. Discovered files that do
// not hold a symbol table are skipped.
func (l *loader) loadSymbolFiles(ctx context.Context, names []string, discovered bool) error {
	if len(names) == 0 {
		return nil
	}
	files := make([]string, len(names))
	for i, name := range names {
		files[i] = name + ".js"
	}
	got, err := l.fetch(ctx, files)
	if err != nil {
		return err
	}
	for i, f := range got {
		name := names[i]
		if f.missing {
			if l.opts.Strict {
				return fmt.Errorf("symbol table %s: %w", name, source.ErrNotFound)
			}
			l.log.Warn("symbol table missing", "table", name)
			l.missing[f.name] = true
			continue
		}
		rows, err := symbolRows(ctx, f, name)
		if err != nil {
			if discovered {
				l.log.Debug("skipping file", "file", f.name, "error", err)
				continue
			}
			return err
		}
		l.site.Symbols = append(l.site.Symbols, &symbols.Table{Name: name, Entries: rows})
	}
	return nil
}

func symbolRows(ctx context.Context, f fetched, name string) ([]navtree.SymbolEntry, error) {
	s, err := jsdata.Parse(ctx, f.name, f.data)
	if err != nil {
		return nil, err
	}
	return jsdata.SymbolRows(s, name)
}

// discover lists *.js files that are neither navigation data nor already
// loaded.
func (l *loader) discover(ctx context.Context, have map[string]bool, explicit []string) ([]string, error) {
	lister, ok := l.src.(source.Lister)
	if !ok {
		l.log.Warn("symbol discovery needs a listable source")
		return nil, nil
	}
	files, err := lister.List(ctx, "*.js")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".js")
		switch {
		case f == l.opts.Root, strings.HasPrefix(name, "navtree"):
		case have[name], slices.Contains(explicit, name):
		case l.tried[name]:
		default:
			out = append(out, name)
		}
	}
	return out, nil
}
