package main

import (
	"errors"
	"fmt"

	"meshfixture/internal/builder"
	"meshfixture/internal/fixture"
	"meshfixture/internal/logging"

	"github.com/spf13/cobra"
)

func newNewCmd() *cobra.Command {
	var (
		mode  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a fixture from the unit tetrahedron template",
		Example: `  fixturectl new matlab_irregular_closed_shell_dense_01 --mode volume
  fixturectl new matlab_intersections_fail_fast_01 --mode failfast
  fixturectl new unit_like_case --mode deterministic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := fixture.ValidateName(name); err != nil {
				return exitf(2, "Fixture name must not contain slashes or spaces.")
			}
			m, err := fixture.ParseMode(mode)
			if err != nil {
				return err
			}

			f, err := builder.New(logging.Named(logger, logging.CategoryScaffold)).Scaffold(name, m)
			if err != nil {
				return err
			}

			store := openStore()
			path, err := store.Write(f, force)
			switch {
			case errors.Is(err, fixture.ErrConflict):
				return exitf(3, "Fixture already exists: %s. Use --force to overwrite.", displayPath(store.Path(name)))
			case err != nil:
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created fixture: %s\n", displayPath(path))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "volume", "Assertion style to scaffold: volume, deterministic, count, failfast")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing fixture file")
	return cmd
}
