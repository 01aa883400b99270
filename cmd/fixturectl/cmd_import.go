package main

import (
	"errors"
	"fmt"

	"meshfixture/internal/builder"
	"meshfixture/internal/fixture"
	"meshfixture/internal/logging"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var (
		outName          string
		mode             string
		volumeTolerance  float64
		planeTolerance   float64
		epsilon          float64
		autoResolve      bool
		noAutoResolve    bool
		failOnIntersect  bool
		allowIntersect   bool
		exceptionMessage string
		indexBase        string
		force            bool
	)

	cmd := &cobra.Command{
		Use:   "import <case.json>",
		Short: "Import an exported mesh case as a fixture",
		Long: `Converts a mesh case exported from the reference implementation into a
fixture. Faces and tetrahedra may be 1-based or 0-based; declare the base with
--index-base or an indexBase field in the case to skip inference.

Exit codes: 0 created, 2 input file missing, 3 import failed, 4 fixture exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.Named(logger, logging.CategoryImport)

			m, err := fixture.ParseMode(mode)
			if err != nil {
				return err
			}
			base, err := fixture.ParseIndexBase(indexBase)
			if err != nil {
				return err
			}

			req := builder.DefaultRequest()
			req.Name = outName
			req.Mode = m
			req.IndexBase = base
			req.Tolerances = builder.Tolerances{
				Volume:        cfg.Import.VolumeTolerance,
				PlaneDistance: cfg.Import.PlaneDistanceTolerance,
				Epsilon:       cfg.Import.Epsilon,
			}
			req.ExpectedExceptionContains = cfg.Import.ExpectedExceptionContains

			flags := cmd.Flags()
			if flags.Changed("volume-tolerance") {
				req.Tolerances.Volume = volumeTolerance
			}
			if flags.Changed("plane-distance-tolerance") {
				req.Tolerances.PlaneDistance = planeTolerance
			}
			if flags.Changed("epsilon") {
				req.Tolerances.Epsilon = epsilon
			}
			if flags.Changed("expected-exception-contains") {
				req.ExpectedExceptionContains = exceptionMessage
			}
			req.AutoResolveIntersections = autoResolve && !noAutoResolve
			req.FailOnSelfIntersections = failOnIntersect && !allowIntersect

			f, err := builder.New(log).ImportFile(args[0], req)
			switch {
			case errors.Is(err, fixture.ErrNotFound):
				return exitf(2, "Input file not found: %s", args[0])
			case err != nil:
				return exitf(3, "Import failed: %v", err)
			}

			path, err := openStore().Write(f, force)
			switch {
			case errors.Is(err, fixture.ErrConflict):
				return exitf(4, "Fixture exists: %s. Use --force to overwrite.", displayPath(openStore().Path(f.Name)))
			case err != nil:
				return exitf(3, "Import failed: %v", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created fixture: %s\n", displayPath(path))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&outName, "out-name", "", "Override output fixture name")
	flags.StringVar(&mode, "mode", "volume", "Assertion mode: volume, deterministic, count, failfast")
	flags.Float64Var(&volumeTolerance, "volume-tolerance", fixture.DefaultVolumeTolerance, "Expected volume tolerance")
	flags.Float64Var(&planeTolerance, "plane-distance-tolerance", fixture.DefaultPlaneDistanceTolerance, "Engine plane distance tolerance")
	flags.Float64Var(&epsilon, "epsilon", fixture.DefaultEpsilon, "Engine epsilon")
	flags.BoolVar(&autoResolve, "auto-resolve-intersections", true, "Let the engine resolve self-intersections")
	flags.BoolVar(&noAutoResolve, "no-auto-resolve-intersections", false, "Disable self-intersection resolution")
	flags.BoolVar(&failOnIntersect, "fail-on-self-intersections", true, "Fail on unresolved self-intersections")
	flags.BoolVar(&allowIntersect, "allow-self-intersections", false, "Tolerate unresolved self-intersections")
	flags.StringVar(&exceptionMessage, "expected-exception-contains", fixture.DefaultExceptionContains, "Expected exception substring for failfast mode")
	flags.StringVar(&indexBase, "index-base", "auto", "Index base of faces and tetrahedra: auto, 0 or 1")
	flags.BoolVar(&force, "force", false, "Overwrite if target fixture exists")
	return cmd
}
