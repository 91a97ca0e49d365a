// Package cli implements the navdoc command line.
package cli

import (
	"fmt"

	"github.com/dgallion1/navdoc/internal/navindex"
	"github.com/dgallion1/navdoc/internal/render"
	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	flags := &siteFlags{}

	rootCmd := &cobra.Command{
		Use:   "navdoc",
		Short: "Inspect Doxygen navigation data",
		Long: `navdoc loads the navigation tree, index partitions and symbol tables
that Doxygen writes next to its HTML pages, and renders, searches,
validates or regenerates them.`,
		SilenceUsage: true,
	}
	flags.register(rootCmd)

	// Navigate Commands
	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the resolved navigation tree",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runTree(cmd, flags) },
	}
	treeCmd.Flags().String("format", render.FormatText, "Output format: text|markdown|html|json|js")
	treeCmd.Flags().Int("depth", 0, "Maximum depth to print (0 = all)")
	treeCmd.Flags().Bool("inline", false, "Write resolved sub-tables in place of their ref (js only)")

	nodeCmd := &cobra.Command{
		Use:   "node <path|link>",
		Short: "Show one node by child-index path (e.g. 0,2) or by link",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runNode(cmd, flags, args[0]) },
	}
	nodeCmd.Flags().Int("depth", 1, "Levels of children to print")
	nodeCmd.Flags().Bool("json", false, "Print machine-readable node")

	locateCmd := &cobra.Command{
		Use:   "locate <url>",
		Short: "Find the index partition and tree path for a page URL",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runLocate(cmd, flags, args[0]) },
	}
	locateCmd.Flags().Bool("json", false, "Print machine-readable location")

	// Symbol Commands
	symbolsCmd := &cobra.Command{
		Use:   "symbols [table]",
		Short: "List a symbol table, or every symbol when no table is named",
		Args:  cobra.MaximumNArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runSymbols(cmd, flags, args) },
	}
	symbolsCmd.Flags().String("format", render.FormatTable, "Output format: table|markdown|html|csv|json|js")
	symbolsCmd.Flags().Bool("list", false, "Only list the loaded symbol table names")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank symbols matching a query (BM25 with typo fallback)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runSearch(cmd, flags, args) },
	}
	searchCmd.Flags().Int("limit", 10, "Maximum number of results")
	searchCmd.Flags().Bool("json", false, "Print machine-readable results")

	// Inspect Commands
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the tree, sub-tables, index and symbol rows",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runValidate(cmd, flags) },
	}
	validateCmd.Flags().Bool("json", false, "Print machine-readable report")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that every linked page and anchor exists",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runCheck(cmd, flags) },
	}
	checkCmd.Flags().Int("concurrency", 8, "Pages fetched in parallel")
	checkCmd.Flags().Bool("json", false, "Print machine-readable result")

	pageCmd := &cobra.Command{
		Use:   "page <name.html>",
		Short: "Print a generated page as markdown",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runPage(cmd, flags, args[0]) },
	}
	pageCmd.Flags().Bool("json", false, "Print the page title and anchors instead")

	// Generate Commands
	exportCmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Regenerate navtreedata.js, index partitions and tables into dir",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return runExport(cmd, flags, args[0]) },
	}
	exportCmd.Flags().Int("partition-size", navindex.DefaultPartitionSize, "Links per navtreeindex file")
	exportCmd.Flags().Bool("inline", false, "Write one self-contained navtreedata.js")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "navdoc %s\n", version)
		},
	}

	rootCmd.AddCommand(
		treeCmd,
		nodeCmd,
		locateCmd,
		symbolsCmd,
		searchCmd,
		validateCmd,
		checkCmd,
		pageCmd,
		exportCmd,
		versionCmd,
	)

	return rootCmd
}
