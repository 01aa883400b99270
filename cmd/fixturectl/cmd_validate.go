package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"meshfixture/internal/fixture"
	"meshfixture/internal/logging"
	"meshfixture/internal/schema"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every fixture against the schema",
		Long: `Checks every fixture file and reports one error per failing file.

Exit codes: 0 all valid, 1 no fixtures found, 2 one or more invalid.
With --watch the check re-runs on every fixture change until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newValidator(logging.CategoryValidate)
			if err != nil {
				return err
			}
			store := openStore()
			out := cmd.OutOrStdout()

			if watch {
				ctx, stop := interruptContext(cmd.Context())
				defer stop()
				return v.Watch(ctx, store, schema.DefaultDebounce, func(r *schema.Report, err error) {
					printValidation(out, r, err)
					fmt.Fprintln(out)
				})
			}

			if code := validateStore(out, v, store); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Re-validate on fixture changes until interrupted")
	return cmd
}

func validateStore(out io.Writer, v *schema.Validator, store *fixture.Store) int {
	r, err := v.ValidateStore(store)
	return printValidation(out, r, err)
}

// printValidation writes the batch result and returns the exit code.
func printValidation(out io.Writer, r *schema.Report, err error) int {
	if errors.Is(err, fixture.ErrNotFound) || (err == nil && r.Files == 0) {
		fmt.Fprintln(out, "No fixture files found.")
		return 1
	}
	if err != nil {
		fmt.Fprintf(out, "Fixture validation failed: %v\n", err)
		return 2
	}

	for _, w := range r.Warnings() {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	if !r.OK() {
		fmt.Fprintln(out, "Fixture validation failed:")
		for _, e := range r.Errors() {
			fmt.Fprintf(out, " - %s\n", e)
		}
		return 2
	}
	fmt.Fprintf(out, "Validated %d fixtures successfully.\n", r.Files)
	return 0
}

// interruptContext is cancelled on SIGINT or SIGTERM.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
