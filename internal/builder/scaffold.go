package builder

import (
	"fmt"

	"meshfixture/internal/fixture"

	"go.uber.org/zap"
)

// unitVolume is the volume of the unit right tetrahedron.
const unitVolume = 1.0 / 6.0

// unitTemplate returns the canonical unit tetrahedron surface, outward
// wound and 0-based.
func unitTemplate() fixture.Input {
	return fixture.Input{
		Vertices: []fixture.Vertex{
			{0, 0, 0},
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
		Faces: []fixture.Face{
			{0, 2, 1},
			{0, 1, 3},
			{1, 2, 3},
			{0, 3, 2},
		},
	}
}

// Scaffold returns a fixture for name built from the unit tetrahedron
// template, with the expected block for mode.
func (b *Builder) Scaffold(name string, mode fixture.Mode) (*fixture.Fixture, error) {
	if err := fixture.ValidateName(name); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unsupported mode %q", fixture.ErrMalformedInput, mode)
	}

	volume := unitVolume
	outcome := caseOutcome{
		volume: &volume,
		tetras: []fixture.Tetra{{0, 1, 2, 3}},
	}
	expected, err := expectedFor(mode, outcome, fixture.DefaultVolumeTolerance, fixture.DefaultExceptionContains)
	if err != nil {
		return nil, err
	}

	f := &fixture.Fixture{
		Name:     name,
		Input:    unitTemplate(),
		Expected: expected,
		Options:  fixture.DefaultOptions(),
	}
	if fixture.EnforceModeInvariants(f) {
		b.logger.Debug("Fail-fast options applied", zap.String("fixture", name))
	}
	b.logger.Info("Fixture scaffolded", zap.String("fixture", name), zap.String("mode", mode.String()))
	return f, nil
}
