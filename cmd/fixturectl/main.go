// Command fixturectl manages the regression fixtures of the mesh-to-tetra
// conversion engine: import, scaffold, validate, catalog, intake status and
// the regression gate.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"meshfixture/internal/config"
	"meshfixture/internal/fixture"
	"meshfixture/internal/logging"
	"meshfixture/internal/schema"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// exitError carries a process exit code. A nil err means the command has
// already printed everything it had to say.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitf(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func exitCode(code int) error {
	return &exitError{code: code}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fixturectl",
		Short: "Regression fixture tooling for the mesh-to-tetra engine",
		Long: `fixturectl builds and checks the JSON regression fixtures consumed by the
mesh-to-tetrahedra test suite.

Fixtures live in one directory, one file per fixture name. Every command reads
fixturectl.yaml from the workspace when present.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = filepath.Join(workspace, config.DefaultFileName)
			}
			var err error
			cfg, err = config.Load(path)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config %s: %w", path, err)
			}
			logger, err = logging.New(cfg.Logging, verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logging.Named(logger, logging.CategoryConfig).Debug("Config loaded",
				zap.String("path", path),
				zap.String("fixtures", cfg.FixturesDir(workspace)))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "Workspace directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <workspace>/fixturectl.yaml)")

	root.AddCommand(
		newImportCmd(),
		newNewCmd(),
		newValidateCmd(),
		newCatalogCmd(),
		newStatusCmd(),
		newGateCmd(),
		newMigrateCmd(),
		newConfigCmd(),
	)
	return root
}

func openStore() *fixture.Store {
	return fixture.NewStore(cfg.FixturesDir(workspace), cfg.Fixtures.Extension, logging.Named(logger, logging.CategoryStore))
}

func newValidator(cat logging.Category) (*schema.Validator, error) {
	gen, err := schema.ParseGeneration(cfg.Schema.Generation)
	if err != nil {
		return nil, err
	}
	return schema.New(gen, logging.Named(logger, cat)), nil
}

// displayPath shortens path to be workspace-relative when possible.
func displayPath(path string) string {
	if rel, err := filepath.Rel(workspace, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
