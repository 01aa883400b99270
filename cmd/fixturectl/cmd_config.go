package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"meshfixture/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage fixturectl.yaml",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Writes fixturectl.yaml (or --config) with every default spelled out.

Exit codes: 0 written, 3 file exists without --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = filepath.Join(workspace, config.DefaultFileName)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return exitf(3, "Config already exists: %s. Use --force to overwrite.", displayPath(path))
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", displayPath(path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
