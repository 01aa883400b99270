package main

import (
	"context"
	"io"
	"path/filepath"

	"meshfixture/internal/config"
	"meshfixture/internal/gate"
	"meshfixture/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGateCmd() *cobra.Command {
	var (
		skipCatalog bool
		skipTests   bool
		batteryPath string
	)

	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Run the regression gate",
		Long: `Runs, in order: fixture validation, catalog regeneration, the catalog
freshness diff and the external test command. Stops at the first failing
step and exits with its code.

A YAML battery (--battery or gate.battery) replaces the default steps. Builtin
steps available to a battery: validate, catalog, catalog-check.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.Named(logger, logging.CategoryGate)

			path := batteryPath
			if path == "" && cfg.Gate.Battery != "" {
				path = config.Resolve(workspace, cfg.Gate.Battery)
			}
			var battery *gate.Battery
			if path != "" {
				var err error
				if battery, err = gate.LoadBattery(path); err != nil {
					return err
				}
			} else {
				battery = gate.DefaultBattery(gate.Defaults{
					DiffCommand: cfg.CatalogDiffCommand(),
					CatalogName: filepath.Base(cfg.Catalog.Path),
					TestCommand: cfg.Gate.TestCommand,
				})
			}
			if skipCatalog {
				battery = battery.Without(gate.TaskCatalog, gate.TaskCatalogDiff)
			}
			if skipTests {
				battery = battery.Without(gate.TaskTests)
			}

			runner := gate.NewRunner(workspace, cmd.OutOrStdout(), log)
			runner.DefaultTimeout = cfg.Gate.GetTaskTimeout()
			registerBuiltins(runner)

			ctx, stop := interruptContext(cmd.Context())
			defer stop()

			results, err := runner.Run(ctx, battery)
			if err != nil {
				return err
			}
			if code := gate.ExitCode(results); code != 0 {
				log.Debug("Gate failed", zap.String("run_id", runner.RunID()), zap.Int("exit_code", code))
				return exitCode(code)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCatalog, "skip-catalog", false, "Skip catalog regeneration and freshness check")
	cmd.Flags().BoolVar(&skipTests, "skip-tests", false, "Skip the external test command")
	cmd.Flags().StringVar(&batteryPath, "battery", "", "YAML battery replacing the default steps")
	return cmd
}

func registerBuiltins(r *gate.Runner) {
	r.Register(gate.TaskValidate, func(ctx context.Context, out io.Writer) (int, error) {
		v, err := newValidator(logging.CategoryValidate)
		if err != nil {
			return 1, err
		}
		return validateStore(out, v, openStore()), nil
	})
	r.Register(gate.TaskCatalog, func(ctx context.Context, out io.Writer) (int, error) {
		return writeCatalog(out, newGenerator()), nil
	})
	r.Register("catalog-check", func(ctx context.Context, out io.Writer) (int, error) {
		if err := checkCatalog(out, newGenerator()); err != nil {
			return 1, nil
		}
		return 0, nil
	})
}
