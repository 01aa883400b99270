// Package fixture defines the regression fixture record fed to the
// mesh-to-tetrahedra conversion engine, and the pieces every fixture tool
// shares: assertion-mode classification, index normalization, naming rules
// and the on-disk fixture store.
package fixture

import (
	"encoding/json"
	"fmt"
)

// Defaults applied when a fixture is built without explicit tolerances.
const (
	DefaultVolumeTolerance        = 1e-8
	DefaultPlaneDistanceTolerance = 1e-10
	DefaultEpsilon                = 1e-8
	DefaultExceptionContains      = "self-intersections"
)

// Vertex is an (x, y, z) mesh coordinate.
type Vertex [3]float64

// Face is a triangle given as three 0-based vertex indices.
type Face [3]int

// Tetra is a tetrahedron given as four 0-based vertex indices.
type Tetra [4]int

// Fixture is one persisted regression case. The file holding it is keyed by Name.
type Fixture struct {
	Name     string   `json:"name"`
	Input    Input    `json:"input"`
	Expected Expected `json:"expected"`
	Options  Options  `json:"options"`
}

// Input is the closed surface mesh handed to the conversion engine.
type Input struct {
	Vertices []Vertex `json:"vertices"`
	Faces    []Face   `json:"faces"`
}

// Expected is the outcome the engine must reproduce. Which optional fields
// are present decides the assertion Mode.
type Expected struct {
	TetraVolume               float64 `json:"tetraVolume"`
	VolumeTolerance           float64 `json:"volumeTolerance"`
	TetraCount                *int    `json:"tetraCount,omitempty"`
	ExactTetrahedra           []Tetra `json:"exactTetrahedra,omitzero"`
	ExpectedExceptionContains string  `json:"expectedExceptionContains,omitempty"`
}

// Options are the engine run flags stored with a fixture. Two generations of
// self-intersection flags exist: the legacy CheckSelfIntersections and the
// current AutoResolveIntersections / FailOnSelfIntersections pair.
type Options struct {
	CheckInput               bool    `json:"checkInput"`
	CheckSelfIntersections   *bool   `json:"checkSelfIntersections,omitempty"`
	AutoResolveIntersections *bool   `json:"autoResolveIntersections,omitempty"`
	FailOnSelfIntersections  *bool   `json:"failOnSelfIntersections,omitempty"`
	Verbose                  bool    `json:"verbose"`
	PlaneDistanceTolerance   float64 `json:"planeDistanceTolerance"`
	Epsilon                  float64 `json:"epsilon"`
}

// ResolvedOptions are the effective self-intersection flags after applying
// the generation fallback rules.
type ResolvedOptions struct {
	AutoResolveIntersections bool
	FailOnSelfIntersections  bool
}

// DefaultOptions returns the current-generation options the builders start from.
func DefaultOptions() Options {
	return Options{
		CheckInput:               true,
		AutoResolveIntersections: Bool(true),
		FailOnSelfIntersections:  Bool(true),
		Verbose:                  false,
		PlaneDistanceTolerance:   DefaultPlaneDistanceTolerance,
		Epsilon:                  DefaultEpsilon,
	}
}

// Resolve returns the effective flags: a current-generation key wins, then
// the legacy key, then true.
func (o Options) Resolve() ResolvedOptions {
	return ResolvedOptions{
		AutoResolveIntersections: firstBool(o.AutoResolveIntersections, o.CheckSelfIntersections),
		FailOnSelfIntersections:  firstBool(o.FailOnSelfIntersections, o.CheckSelfIntersections),
	}
}

func firstBool(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return true
}

// EnforceModeInvariants applies the option constraints implied by the
// fixture's mode. A fail-fast fixture must keep the engine from resolving
// self-intersections, otherwise the expected exception is unreachable.
// It reports whether any option was changed.
func EnforceModeInvariants(f *Fixture) bool {
	if Classify(f.Expected) != ModeFailFast {
		return false
	}
	changed := false
	if f.Options.AutoResolveIntersections == nil || *f.Options.AutoResolveIntersections {
		f.Options.AutoResolveIntersections = Bool(false)
		changed = true
	}
	if f.Options.FailOnSelfIntersections == nil || !*f.Options.FailOnSelfIntersections {
		f.Options.FailOnSelfIntersections = Bool(true)
		changed = true
	}
	if f.Options.CheckSelfIntersections != nil {
		f.Options.CheckSelfIntersections = nil
		changed = true
	}
	return changed
}

// Marshal encodes a fixture the way it is stored on disk: two-space
// indentation and a trailing newline.
func Marshal(f *Fixture) ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode fixture %q: %w", f.Name, err)
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes a stored fixture into its typed form.
func Unmarshal(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return &f, nil
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n.
func Int(n int) *int { return &n }
