// Package builder assembles canonical fixtures, either by importing an
// externally exported mesh case or by scaffolding the unit tetrahedron
// template. Both paths share one mode table and one set of option rules.
package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"meshfixture/internal/fixture"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Tolerances are the numeric tolerances written into a built fixture.
type Tolerances struct {
	Volume        float64
	PlaneDistance float64
	Epsilon       float64
}

// DefaultTolerances returns the tolerances used when none are supplied.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Volume:        fixture.DefaultVolumeTolerance,
		PlaneDistance: fixture.DefaultPlaneDistanceTolerance,
		Epsilon:       fixture.DefaultEpsilon,
	}
}

func (t Tolerances) check() error {
	switch {
	case t.Volume < 0:
		return fmt.Errorf("%w: volume tolerance must be non-negative", fixture.ErrMalformedInput)
	case t.PlaneDistance < 0:
		return fmt.Errorf("%w: plane distance tolerance must be non-negative", fixture.ErrMalformedInput)
	case t.Epsilon < 0:
		return fmt.Errorf("%w: epsilon must be non-negative", fixture.ErrMalformedInput)
	}
	return nil
}

// Request carries everything an import needs besides the case data.
type Request struct {
	// Name overrides the name found in the case data.
	Name string
	Mode fixture.Mode

	Tolerances Tolerances

	AutoResolveIntersections  bool
	FailOnSelfIntersections   bool
	ExpectedExceptionContains string

	// IndexBase declares the addressing of faces and tetrahedra. When auto,
	// an indexBase field in the case data is honoured before falling back
	// to inference.
	IndexBase fixture.IndexBase
}

// DefaultRequest returns a volume-only request with default tolerances and
// both resolution flags enabled.
func DefaultRequest() Request {
	return Request{
		Mode:                      fixture.ModeVolumeOnly,
		Tolerances:                DefaultTolerances(),
		AutoResolveIntersections:  true,
		FailOnSelfIntersections:   true,
		ExpectedExceptionContains: fixture.DefaultExceptionContains,
		IndexBase:                 fixture.IndexBaseAuto,
	}
}

// Builder produces fixtures. It never touches the fixture store; callers
// persist the result with fixture.Store.Write.
type Builder struct {
	logger *zap.Logger
}

// New returns a builder. A nil logger discards output.
func New(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// ImportFile reads a case file and imports it. A missing file is reported
// as fixture.ErrNotFound.
func (b *Builder) ImportFile(path string, req Request) (*fixture.Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: input file %s", fixture.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return b.Import(data, req)
}

// Import converts an exported mesh case into a fixture. Structural problems
// in the case data fail immediately with an error wrapping
// fixture.ErrMalformedInput.
func (b *Builder) Import(data []byte, req Request) (*fixture.Fixture, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: unsupported mode %q", fixture.ErrMalformedInput, req.Mode)
	}
	if err := req.Tolerances.check(); err != nil {
		return nil, err
	}

	src, err := parseCase(data)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = src.name
	}
	if name == "" {
		return nil, fmt.Errorf("%w: fixture name missing: provide 'name' in input or --out-name", fixture.ErrMalformedInput)
	}
	if err := fixture.ValidateName(name); err != nil {
		return nil, err
	}
	log := b.logger.With(zap.String("fixture", name))

	base := req.IndexBase
	if base == fixture.IndexBaseAuto {
		base = src.indexBase
	}

	if !src.vertices.IsArray() || len(src.vertices.Array()) < 4 {
		return nil, fmt.Errorf("%w: vertices must be an array with at least 4 entries", fixture.ErrMalformedInput)
	}
	if !src.faces.IsArray() || len(src.faces.Array()) < 4 {
		return nil, fmt.Errorf("%w: faces must be an array with at least 4 entries", fixture.ErrMalformedInput)
	}
	vertices, err := parseVertices(src.vertices)
	if err != nil {
		return nil, err
	}
	faces, err := b.normalize(log, src.faces, fixture.FaceWidth, "faces", base, len(vertices))
	if err != nil {
		return nil, err
	}

	var outcome caseOutcome
	if req.Mode != fixture.ModeFailFast {
		if outcome, err = b.readOutcome(log, src, base, len(vertices)); err != nil {
			return nil, err
		}
	}

	expected, err := expectedFor(req.Mode, outcome, req.Tolerances.Volume, req.ExpectedExceptionContains)
	if err != nil {
		return nil, err
	}

	f := &fixture.Fixture{
		Name:     name,
		Input:    fixture.Input{Vertices: vertices, Faces: fixture.ToFaces(faces)},
		Expected: expected,
		Options:  optionsFor(req),
	}
	if fixture.EnforceModeInvariants(f) {
		log.Warn("Fail-fast fixture requested self-intersection resolution; forcing autoResolveIntersections=false, failOnSelfIntersections=true")
	}

	log.Info("Fixture imported",
		zap.String("mode", fixture.Classify(f.Expected).String()),
		zap.Int("vertices", len(f.Input.Vertices)),
		zap.Int("faces", len(f.Input.Faces)))
	return f, nil
}

// caseSource is the raw case record.
type caseSource struct {
	name       string
	vertices   gjson.Result
	faces      gjson.Result
	tetrahedra gjson.Result
	tetraCount gjson.Result
	volume     gjson.Result
	indexBase  fixture.IndexBase
}

func parseCase(data []byte) (*caseSource, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: input is not valid JSON", fixture.ErrMalformedInput)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: input JSON must be an object", fixture.ErrMalformedInput)
	}

	src := &caseSource{
		name:       strings.TrimSpace(doc.Get("name").String()),
		vertices:   doc.Get("vertices"),
		faces:      doc.Get("faces"),
		tetrahedra: doc.Get("tetrahedra"),
		tetraCount: doc.Get("tetraCount"),
		volume:     doc.Get("tetraVolume"),
	}
	if raw := doc.Get("indexBase"); present(raw) {
		base, err := fixture.ParseIndexBase(raw.String())
		if err != nil {
			return nil, err
		}
		src.indexBase = base
	}
	return src, nil
}

func parseVertices(raw gjson.Result) ([]fixture.Vertex, error) {
	items := raw.Array()
	vertices := make([]fixture.Vertex, len(items))
	for i, item := range items {
		coords := item.Array()
		if !item.IsArray() || len(coords) != 3 {
			return nil, fmt.Errorf("%w: vertices[%d] must be [x,y,z] numeric", fixture.ErrMalformedInput, i)
		}
		for j, c := range coords {
			if !fixture.IsNumber(c) {
				return nil, fmt.Errorf("%w: vertices[%d] must be [x,y,z] numeric", fixture.ErrMalformedInput, i)
			}
			vertices[i][j] = c.Float()
		}
	}
	return vertices, nil
}

// normalize parses an index array, converts it to 0-based and checks every
// index against the vertex count.
func (b *Builder) normalize(log *zap.Logger, raw gjson.Result, width int, label string, base fixture.IndexBase, vertexCount int) ([][]int, error) {
	rows, err := fixture.ParseIndexRows(raw, width, label)
	if err != nil {
		return nil, err
	}
	norm, err := fixture.NormalizeIndices(rows, width, label, base)
	if err != nil {
		return nil, err
	}
	if norm.Inferred {
		log.Warn("Index base inferred as 1-based; declare indexBase or pass --index-base to confirm",
			zap.String("array", label))
	}
	for i, row := range norm.Rows {
		for _, v := range row {
			if v < 0 || v >= vertexCount {
				return nil, fmt.Errorf("%w: %s[%d] has out-of-range indices", fixture.ErrMalformedInput, label, i)
			}
		}
	}
	return norm.Rows, nil
}

// caseOutcome is what the case data says the engine produced.
type caseOutcome struct {
	volume *float64
	count  *int
	tetras []fixture.Tetra
}

func (b *Builder) readOutcome(log *zap.Logger, src *caseSource, base fixture.IndexBase, vertexCount int) (caseOutcome, error) {
	var out caseOutcome
	if present(src.tetraCount) {
		n, ok := fixture.Integer(src.tetraCount)
		if !ok || n < 0 {
			return out, fmt.Errorf("%w: tetraCount must be a non-negative integer", fixture.ErrMalformedInput)
		}
		out.count = fixture.Int(n)
	}
	if present(src.tetrahedra) {
		rows, err := b.normalize(log, src.tetrahedra, fixture.TetraWidth, "tetrahedra", base, vertexCount)
		if err != nil {
			return out, err
		}
		out.tetras = fixture.ToTetras(rows)
	}
	if present(src.volume) {
		if !fixture.IsNumber(src.volume) {
			return out, fmt.Errorf("%w: tetraVolume must be numeric", fixture.ErrMalformedInput)
		}
		v := src.volume.Float()
		out.volume = &v
	}
	return out, nil
}

// expectedFor is the mode table shared by import and scaffold.
func expectedFor(mode fixture.Mode, out caseOutcome, tolerance float64, exception string) (fixture.Expected, error) {
	expected := fixture.Expected{VolumeTolerance: tolerance}

	if mode == fixture.ModeFailFast {
		exception = strings.TrimSpace(exception)
		if exception == "" {
			return expected, fmt.Errorf("%w: fail-fast mode requires a non-empty expected exception message", fixture.ErrMalformedInput)
		}
		expected.TetraCount = fixture.Int(0)
		expected.ExpectedExceptionContains = exception
		return expected, nil
	}

	if out.volume == nil {
		return expected, fmt.Errorf("%w: tetraVolume is required in input JSON for %s mode", fixture.ErrMalformedInput, mode.Alias())
	}
	expected.TetraVolume = *out.volume

	switch mode {
	case fixture.ModeDeterministic:
		if out.tetras == nil {
			return expected, fmt.Errorf("%w: deterministic mode requires tetrahedra in input JSON", fixture.ErrMalformedInput)
		}
		if out.count != nil && *out.count != len(out.tetras) {
			return expected, fmt.Errorf("%w: tetraCount %d does not match %d tetrahedra", fixture.ErrMalformedInput, *out.count, len(out.tetras))
		}
		expected.ExactTetrahedra = out.tetras
		expected.TetraCount = fixture.Int(len(out.tetras))
	case fixture.ModeCountVolume:
		switch {
		case out.count != nil:
			expected.TetraCount = fixture.Int(*out.count)
		case out.tetras != nil:
			expected.TetraCount = fixture.Int(len(out.tetras))
		default:
			return expected, fmt.Errorf("%w: count mode requires tetraCount or tetrahedra in input JSON", fixture.ErrMalformedInput)
		}
	}
	return expected, nil
}

func optionsFor(req Request) fixture.Options {
	opts := fixture.DefaultOptions()
	opts.AutoResolveIntersections = fixture.Bool(req.AutoResolveIntersections)
	opts.FailOnSelfIntersections = fixture.Bool(req.FailOnSelfIntersections)
	opts.PlaneDistanceTolerance = req.Tolerances.PlaneDistance
	opts.Epsilon = req.Tolerances.Epsilon
	return opts
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}
