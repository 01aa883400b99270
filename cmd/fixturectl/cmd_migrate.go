package main

import (
	"errors"
	"fmt"

	"meshfixture/internal/fixture"
	"meshfixture/internal/logging"
	"meshfixture/internal/schema"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	var (
		write bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "migrate <name>",
		Short: "Rewrite a fixture's options into the current schema generation",
		Long: `Folds the legacy checkSelfIntersections flag into autoResolveIntersections and
failOnSelfIntersections and prints the migrated fixture. --write replaces the
stored file and requires --force.

A fixture that fails validation is refused and left untouched.

Exit codes: 0 ok, 2 fixture missing, unreadable or invalid, 3 overwrite refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.Named(logger, logging.CategoryMigrate)
			store := openStore()
			path := store.Path(args[0])

			data, err := store.Read(path)
			switch {
			case errors.Is(err, fixture.ErrNotFound):
				return exitf(2, "Fixture not found: %s", displayPath(path))
			case err != nil:
				return exitf(2, "Migrate failed: %v", err)
			}

			// Either generation may come in; only the current one goes out.
			before := schema.New(schema.GenerationAuto, log)
			if err := before.Validate(data); err != nil {
				return exitf(2, "Migrate refused: %s is invalid: %v", displayPath(path), err)
			}
			f, err := fixture.Unmarshal(data)
			if err != nil {
				return exitf(2, "Migrate failed: %v", err)
			}

			opts, changed := schema.Migrate(f.Options)
			f.Options = opts
			if fixture.EnforceModeInvariants(f) {
				log.Warn("Fail-fast fixture options forced during migration", zap.String("fixture", f.Name))
				changed = true
			}

			migrated, err := fixture.Marshal(f)
			if err != nil {
				return err
			}
			after := schema.New(schema.GenerationCurrent, log)
			if err := after.Validate(migrated); err != nil {
				return exitf(2, "Migrate failed: result does not pass %s validation: %v", after.Generation(), err)
			}

			out := cmd.OutOrStdout()
			if !write {
				_, err = out.Write(migrated)
				return err
			}

			if !changed {
				fmt.Fprintf(out, "Fixture already current: %s\n", displayPath(path))
				return nil
			}
			if !force {
				return exitf(3, "Refusing to overwrite %s without --force.", displayPath(path))
			}
			if f.Name != args[0] {
				return exitf(2, "Migrate failed: fixture name %q does not match file %s", f.Name, displayPath(path))
			}
			written, err := store.Write(f, true)
			if err != nil {
				return exitf(2, "Migrate failed: %v", err)
			}
			fmt.Fprintf(out, "Migrated fixture: %s\n", displayPath(written))
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Replace the stored fixture")
	cmd.Flags().BoolVar(&force, "force", false, "Allow --write to overwrite")
	return cmd
}
