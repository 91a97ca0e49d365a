package cli

import (
	"bytes"
	"fmt"
	"path"

	"github.com/dgallion1/navdoc/internal/linkcheck"
	"github.com/dgallion1/navdoc/internal/navtree"
	"github.com/dgallion1/navdoc/internal/pages"
	"github.com/dgallion1/navdoc/internal/source"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func runValidate(cmd *cobra.Command, flags *siteFlags) error {
	asJSON, err := boolFlag(cmd, "json")
	if err != nil {
		return err
	}
	site, _, err := flags.load(cmd)
	if err != nil {
		return err
	}
	report := site.Validate()

	out := cmd.OutOrStdout()
	if asJSON {
		if err := printJSON(out, map[string]any{"ok": report.OK(), "report": report}); err != nil {
			return err
		}
	} else {
		x := table.NewWriter()
		x.SetTitle("validation")
		x.AppendHeader(table.Row{"section", "path", "label", "message"})
		appendViolations(x, "tree", report.Tree)
		appendViolations(x, "tables", report.Tables)
		appendViolations(x, "index", report.Index)
		for _, msg := range report.Symbols {
			x.AppendRow(table.Row{"symbols", "", "", msg})
		}
		for _, name := range report.Missing {
			x.AppendRow(table.Row{"missing", "", "", name})
		}
		rows := len(report.Tree) + len(report.Tables) + len(report.Index) + len(report.Symbols) + len(report.Missing)
		if rows == 0 {
			fmt.Fprintln(out, "ok")
		} else {
			fmt.Fprintln(out, x.Render())
		}
	}
	if !report.OK() {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func appendViolations(x table.Writer, section string, vs []navtree.Violation) {
	for _, v := range vs {
		x.AppendRow(table.Row{section, formatPath(v.Path), v.Label, v.Message})
	}
}

func runCheck(cmd *cobra.Command, flags *siteFlags) error {
	concurrency, err := intFlag(cmd, "concurrency")
	if err != nil {
		return err
	}
	asJSON, err := boolFlag(cmd, "json")
	if err != nil {
		return err
	}
	site, src, err := flags.load(cmd)
	if err != nil {
		return err
	}

	res, err := linkcheck.Check(cmd.Context(), src, linkcheck.Collect(site), concurrency, flags.logger(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		if err := printJSON(out, res); err != nil {
			return err
		}
	} else {
		x := table.NewWriter()
		x.SetTitle(fmt.Sprintf("%d links on %d pages", res.Links, res.Pages))
		x.AppendHeader(table.Row{"problem", "link", "label", "origin"})
		for _, p := range res.Problems {
			x.AppendRow(table.Row{p.Kind, p.Ref.Link, p.Ref.Label, p.Ref.Origin})
		}
		fmt.Fprintln(out, x.Render())
	}
	if n := res.Broken(); n > 0 {
		return fmt.Errorf("%d broken links", n)
	}
	return nil
}

func runPage(cmd *cobra.Command, flags *siteFlags, name string) error {
	asJSON, err := boolFlag(cmd, "json")
	if err != nil {
		return err
	}
	if ext := path.Ext(name); ext != ".html" && ext != ".htm" {
		return fmt.Errorf("%s is not an html page", name)
	}
	src, err := flags.source()
	if err != nil {
		return err
	}

	data, err := source.ReadFile(cmd.Context(), src, name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		page, err := pages.Inspect(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		return printJSON(out, page)
	}
	text, err := pages.Markdown(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("convert %s: %w", name, err)
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
