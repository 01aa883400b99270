package main

import (
	"fmt"
	"io"
	"path/filepath"

	"meshfixture/internal/catalog"
	"meshfixture/internal/gate"
	"meshfixture/internal/logging"

	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	var (
		check bool
		show  bool
		style string
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Regenerate the fixture catalog",
		Long: `Writes the markdown summary of every fixture. With --check nothing is written;
the regenerated catalog is compared with the committed one and any drift is
printed as a unified diff (exit 1). With --show the regenerated catalog is
rendered to the terminal instead of written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := newGenerator()
			out := cmd.OutOrStdout()
			switch {
			case check:
				return checkCatalog(out, g)
			case show:
				return showCatalog(out, g, style)
			}
			if code := writeCatalog(out, g); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Report drift against the committed catalog without writing")
	cmd.Flags().BoolVar(&show, "show", false, "Render the catalog to the terminal without writing")
	cmd.Flags().StringVar(&style, "style", "auto", "Render style for --show: auto, dark, light, notty")
	cmd.MarkFlagsMutuallyExclusive("check", "show")
	return cmd
}

func newGenerator() *catalog.Generator {
	return catalog.NewGenerator(openStore(), cfg.CatalogPath(workspace), logging.Named(logger, logging.CategoryCatalog))
}

func writeCatalog(out io.Writer, g *catalog.Generator) int {
	if _, err := g.Write(); err != nil {
		fmt.Fprintf(out, "Catalog generation failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Wrote %s\n", displayPath(g.Path()))
	return 0
}

func checkCatalog(out io.Writer, g *catalog.Generator) error {
	result, err := g.Check()
	if err != nil {
		return exitf(1, "Catalog check failed: %v", err)
	}
	if result.Empty() {
		fmt.Fprintf(out, "%s is up to date.\n", displayPath(g.Path()))
		return nil
	}
	fmt.Fprint(out, result.Unified())
	fmt.Fprintf(out, "\n%s\n", gate.CatalogStaleHint(filepath.Base(g.Path())))
	return exitCode(1)
}

func showCatalog(out io.Writer, g *catalog.Generator, style string) error {
	c, err := g.Build()
	if err != nil {
		return exitf(1, "Catalog generation failed: %v", err)
	}
	rendered, err := c.Render(style, 100)
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)
	return nil
}
