package cli

import (
	"fmt"
	"strings"

	"github.com/dgallion1/navdoc/internal/render"
	"github.com/dgallion1/navdoc/internal/symbols"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func runSymbols(cmd *cobra.Command, flags *siteFlags, args []string) error {
	format, err := stringFlag(cmd, "format")
	if err != nil {
		return err
	}
	list, err := boolFlag(cmd, "list")
	if err != nil {
		return err
	}

	site, _, err := flags.load(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if list {
		x := table.NewWriter()
		x.AppendHeader(table.Row{"table", "symbols"})
		for _, t := range site.Symbols {
			x.AppendRow(table.Row{t.Name, len(t.Entries)})
		}
		_, err := fmt.Fprintln(out, x.Render())
		return err
	}

	var tbl *symbols.Table
	if len(args) == 1 {
		name := strings.TrimSuffix(args[0], ".js")
		t, ok := site.SymbolTable(name)
		if !ok {
			return fmt.Errorf("no symbol table %q (try --symbols %s)", name, name)
		}
		tbl = t
	} else {
		tbl = site.AllSymbols()
	}
	return render.Symbols(out, tbl, format)
}

func runSearch(cmd *cobra.Command, flags *siteFlags, args []string) error {
	limit, err := intFlag(cmd, "limit")
	if err != nil {
		return err
	}
	asJSON, err := boolFlag(cmd, "json")
	if err != nil {
		return err
	}
	if limit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}

	site, _, err := flags.load(cmd)
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")
	results := site.Search(query, limit)

	out := cmd.OutOrStdout()
	if asJSON {
		if results == nil {
			results = []symbols.Result{}
		}
		return printJSON(out, map[string]any{"query": query, "results": results})
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "no symbols match %q\n", query)
		return nil
	}
	return render.SearchTable(out, results)
}
