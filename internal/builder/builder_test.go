package builder

import (
	"os"
	"path/filepath"
	"testing"

	"meshfixture/internal/fixture"
	"meshfixture/internal/schema"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const unitCase = `{
  "name": "matlab_unit_case",
  "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]],
  "faces": [[1,3,2],[1,2,4],[2,3,4],[1,4,3]],
  "tetrahedra": [[1,2,3,4]],
  "tetraVolume": 0.16666666666666666
}`

func request(mode fixture.Mode) Request {
	req := DefaultRequest()
	req.Mode = mode
	return req
}

func TestImport_DeterministicOneBased(t *testing.T) {
	f, err := New(nil).Import([]byte(unitCase), request(fixture.ModeDeterministic))
	require.NoError(t, err)

	assert.Equal(t, "matlab_unit_case", f.Name)
	wantFaces := []fixture.Face{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}}
	if diff := cmp.Diff(wantFaces, f.Input.Faces); diff != "" {
		t.Errorf("faces mismatch (-want +got):\n%s", diff)
	}

	want := fixture.Expected{
		TetraVolume:     0.16666666666666666,
		VolumeTolerance: 1e-8,
		TetraCount:      fixture.Int(1),
		ExactTetrahedra: []fixture.Tetra{{0, 1, 2, 3}},
	}
	if diff := cmp.Diff(want, f.Expected); diff != "" {
		t.Errorf("expected mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, fixture.ModeDeterministic, fixture.Classify(f.Expected))
}

func TestImport_FailFastWithoutTetrahedra(t *testing.T) {
	data := []byte(`{
  "name": "matlab_intersections_fail_fast_01",
  "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]],
  "faces": [[0,2,1],[0,1,3],[1,2,3],[0,3,2]]
}`)
	f, err := New(nil).Import(data, request(fixture.ModeFailFast))
	require.NoError(t, err)

	want := fixture.Expected{
		TetraVolume:               0,
		VolumeTolerance:           1e-8,
		TetraCount:                fixture.Int(0),
		ExpectedExceptionContains: "self-intersections",
	}
	if diff := cmp.Diff(want, f.Expected); diff != "" {
		t.Errorf("expected mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_FailFastForcesOptions(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	req := request(fixture.ModeFailFast)
	req.AutoResolveIntersections = true
	req.FailOnSelfIntersections = false

	f, err := New(zap.New(core)).Import([]byte(unitCase), req)
	require.NoError(t, err)

	resolved := f.Options.Resolve()
	assert.False(t, resolved.AutoResolveIntersections)
	assert.True(t, resolved.FailOnSelfIntersections)
	assert.Nil(t, f.Expected.ExactTetrahedra, "fail-fast ignores tetrahedra")
	assert.Equal(t, 1, logs.FilterMessageSnippet("forcing autoResolveIntersections=false").Len())
}

func TestImport_InferredBaseWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, err := New(zap.New(core)).Import([]byte(unitCase), request(fixture.ModeDeterministic))
	require.NoError(t, err)
	assert.Equal(t, 2, logs.FilterMessageSnippet("Index base inferred").Len())
}

func TestImport_DeclaredBase(t *testing.T) {
	// 0-based faces that never reference vertex 0 would be shifted by the
	// heuristic; a declared base keeps them as written.
	data := []byte(`{
  "name": "sparse_case",
  "indexBase": 0,
  "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1],[1,1,1]],
  "faces": [[1,2,3],[1,3,4],[2,3,4],[1,2,4]],
  "tetraVolume": 0.5
}`)
	f, err := New(nil).Import(data, request(fixture.ModeVolumeOnly))
	require.NoError(t, err)
	assert.Equal(t, fixture.Face{1, 2, 3}, f.Input.Faces[0])

	req := request(fixture.ModeVolumeOnly)
	req.IndexBase = fixture.IndexBaseOne
	f, err = New(nil).Import(data, req)
	require.NoError(t, err)
	assert.Equal(t, fixture.Face{0, 1, 2}, f.Input.Faces[0], "request base overrides the case data")
}

func TestImport_CountMode(t *testing.T) {
	b := New(nil)

	f, err := b.Import([]byte(unitCase), request(fixture.ModeCountVolume))
	require.NoError(t, err)
	require.NotNil(t, f.Expected.TetraCount)
	assert.Equal(t, 1, *f.Expected.TetraCount)
	assert.Nil(t, f.Expected.ExactTetrahedra)

	data := []byte(`{
  "name": "counted",
  "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]],
  "faces": [[0,2,1],[0,1,3],[1,2,3],[0,3,2]],
  "tetraCount": 7,
  "tetraVolume": 1.5
}`)
	f, err = b.Import(data, request(fixture.ModeCountVolume))
	require.NoError(t, err)
	assert.Equal(t, 7, *f.Expected.TetraCount)
	assert.Equal(t, fixture.ModeCountVolume, fixture.Classify(f.Expected))
}

func TestImport_VolumeModeDropsCounts(t *testing.T) {
	f, err := New(nil).Import([]byte(unitCase), request(fixture.ModeVolumeOnly))
	require.NoError(t, err)
	assert.Nil(t, f.Expected.TetraCount)
	assert.Nil(t, f.Expected.ExactTetrahedra)
	assert.Equal(t, fixture.ModeVolumeOnly, fixture.Classify(f.Expected))
}

func TestImport_NameOverride(t *testing.T) {
	req := request(fixture.ModeVolumeOnly)
	req.Name = "renamed_case"
	f, err := New(nil).Import([]byte(unitCase), req)
	require.NoError(t, err)
	assert.Equal(t, "renamed_case", f.Name)
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		mode    fixture.Mode
		message string
	}{
		{"not json", `{`, fixture.ModeVolumeOnly, "not valid JSON"},
		{"not object", `[]`, fixture.ModeVolumeOnly, "must be an object"},
		{"missing name", `{"vertices": [], "faces": []}`, fixture.ModeVolumeOnly, "fixture name missing"},
		{"name with slash", `{"name": "a/b"}`, fixture.ModeVolumeOnly, "must not contain slashes"},
		{"few vertices", `{"name": "a", "vertices": [[0,0,0]], "faces": []}`, fixture.ModeVolumeOnly, "vertices must be an array with at least 4 entries"},
		{"few faces", `{"name": "a", "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]], "faces": [[0,1,2]]}`, fixture.ModeVolumeOnly, "faces must be an array with at least 4 entries"},
		{"bad vertex", `{"name": "a", "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0]], "faces": [[0,2,1],[0,1,3],[1,2,3],[0,3,2]]}`, fixture.ModeVolumeOnly, "vertices[3] must be [x,y,z] numeric"},
		{"bad face row", `{"name": "a", "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]], "faces": [[0,2,1],[0,1],[1,2,3],[0,3,2]]}`, fixture.ModeVolumeOnly, "faces[1] must be a list of 3 integers"},
		{"face out of range", `{"name": "a", "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]], "faces": [[0,2,1],[0,1,9],[1,2,3],[0,3,2]], "tetraVolume": 1}`, fixture.ModeVolumeOnly, "faces[1] has out-of-range indices"},
		{"missing volume", `{"name": "a", "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]], "faces": [[0,2,1],[0,1,3],[1,2,3],[0,3,2]]}`, fixture.ModeVolumeOnly, "tetraVolume is required"},
		{"deterministic without tetrahedra", `{"name": "a", "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]], "faces": [[0,2,1],[0,1,3],[1,2,3],[0,3,2]], "tetraCount": 1, "tetraVolume": 1}`, fixture.ModeDeterministic, "deterministic mode requires tetrahedra"},
		{"count without data", `{"name": "a", "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]], "faces": [[0,2,1],[0,1,3],[1,2,3],[0,3,2]], "tetraVolume": 1}`, fixture.ModeCountVolume, "count mode requires tetraCount or tetrahedra"},
		{"negative count", `{"name": "a", "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]], "faces": [[0,2,1],[0,1,3],[1,2,3],[0,3,2]], "tetraCount": -2, "tetraVolume": 1}`, fixture.ModeCountVolume, "tetraCount must be a non-negative integer"},
		{"count disagrees", `{"name": "a", "vertices": [[0,0,0],[1,0,0],[0,1,0],[0,0,1]], "faces": [[0,2,1],[0,1,3],[1,2,3],[0,3,2]], "tetrahedra": [[0,1,2,3]], "tetraCount": 2, "tetraVolume": 1}`, fixture.ModeDeterministic, "tetraCount 2 does not match 1 tetrahedra"},
		{"bad index base", `{"name": "a", "indexBase": 2, "vertices": [], "faces": []}`, fixture.ModeVolumeOnly, "index base must be auto, 0 or 1"},
	}
	b := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Import([]byte(tt.data), request(tt.mode))
			require.Error(t, err)
			assert.ErrorIs(t, err, fixture.ErrMalformedInput)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestImport_RejectsBadRequest(t *testing.T) {
	req := request(fixture.ModeFailFast)
	req.ExpectedExceptionContains = "  "
	_, err := New(nil).Import([]byte(unitCase), req)
	assert.ErrorContains(t, err, "non-empty expected exception message")

	req = request(fixture.ModeVolumeOnly)
	req.Tolerances.Epsilon = -1
	_, err = New(nil).Import([]byte(unitCase), req)
	assert.ErrorContains(t, err, "epsilon must be non-negative")

	_, err = New(nil).Import([]byte(unitCase), request("bogus"))
	assert.ErrorIs(t, err, fixture.ErrMalformedInput)
}

func TestImportFile_Missing(t *testing.T) {
	_, err := New(nil).ImportFile(filepath.Join(t.TempDir(), "nope.json"), DefaultRequest())
	assert.ErrorIs(t, err, fixture.ErrNotFound)
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.json")
	require.NoError(t, os.WriteFile(path, []byte(unitCase), 0644))
	f, err := New(nil).ImportFile(path, request(fixture.ModeDeterministic))
	require.NoError(t, err)
	assert.Equal(t, "matlab_unit_case", f.Name)
}

func TestScaffold(t *testing.T) {
	b := New(nil)

	f, err := b.Scaffold("unit_like_case", fixture.ModeDeterministic)
	require.NoError(t, err)
	assert.Equal(t, []fixture.Tetra{{0, 1, 2, 3}}, f.Expected.ExactTetrahedra)
	assert.Equal(t, 1, *f.Expected.TetraCount)
	assert.Equal(t, 0.16666666666666666, f.Expected.TetraVolume)

	f, err = b.Scaffold("ff", fixture.ModeFailFast)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.Expected.TetraVolume)
	assert.Equal(t, "self-intersections", f.Expected.ExpectedExceptionContains)
	assert.False(t, *f.Options.AutoResolveIntersections)
	assert.True(t, *f.Options.FailOnSelfIntersections)

	f, err = b.Scaffold("vol", fixture.ModeVolumeOnly)
	require.NoError(t, err)
	assert.Nil(t, f.Expected.TetraCount)
	assert.True(t, *f.Options.AutoResolveIntersections)

	_, err = b.Scaffold("bad name", fixture.ModeVolumeOnly)
	assert.ErrorIs(t, err, fixture.ErrMalformedInput)
}

func TestBuiltFixturesPassValidation(t *testing.T) {
	b := New(nil)
	v := schema.New(schema.GenerationCurrent, nil)

	for _, mode := range fixture.Modes {
		t.Run(mode.String(), func(t *testing.T) {
			scaffolded, err := b.Scaffold("scaffold_case", mode)
			require.NoError(t, err)
			imported, err := b.Import([]byte(unitCase), request(mode))
			require.NoError(t, err)

			for _, f := range []*fixture.Fixture{scaffolded, imported} {
				data, err := fixture.Marshal(f)
				require.NoError(t, err)
				assert.NoError(t, v.Validate(data))
				assert.Equal(t, mode, fixture.Classify(f.Expected))
			}
		})
	}
}
