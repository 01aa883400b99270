package fixture

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func unitFixture(name string) *Fixture {
	return &Fixture{
		Name: name,
		Input: Input{
			Vertices: []Vertex{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			Faces:    []Face{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}},
		},
		Expected: Expected{TetraVolume: 1.0 / 6.0, VolumeTolerance: DefaultVolumeTolerance},
		Options:  DefaultOptions(),
	}
}

func TestStore_WriteExclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Fixtures")
	store := NewStore(dir, "", nil)

	path, err := store.Write(unitFixture("unit_case"), false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "unit_case.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "}\n"), "fixture file must end with a newline")
	assert.Contains(t, string(data), "\n  \"input\": {")

	_, err = store.Write(unitFixture("unit_case"), false)
	assert.True(t, errors.Is(err, ErrConflict), "expected ErrConflict, got %v", err)

	// The original file is untouched after a refused write.
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestStore_WriteOverwrite(t *testing.T) {
	store := NewStore(t.TempDir(), "", nil)

	_, err := store.Write(unitFixture("unit_case"), false)
	require.NoError(t, err)

	changed := unitFixture("unit_case")
	changed.Expected.TetraVolume = 2
	path, err := store.Write(changed, true)
	require.NoError(t, err)

	data, err := store.Read(path)
	require.NoError(t, err)
	loaded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded.Expected.TetraVolume)

	files, err := store.Files()
	require.NoError(t, err)
	assert.Len(t, files, 1, "temp files must not be left behind")
}

func TestStore_ReadMissing(t *testing.T) {
	store := NewStore(t.TempDir(), "", nil)
	_, err := store.Read(store.Path("absent"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_WriteRejectsBadName(t *testing.T) {
	store := NewStore(t.TempDir(), "", nil)
	_, err := store.Write(unitFixture("../escape"), false)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestStore_FilesMissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing"), "", nil)
	_, err := store.Files()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_FilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	files, err := NewStore(dir, ".json", nil).Files()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}, files)
}

func TestStore_Discover(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("a.json", `{"name": "alpha", "expected": {"tetraCount": 3}}`)
	write("b.json", `{"name": "  beta ", "expected": {"expectedExceptionContains": "x"}}`)
	write("c.json", `{"name": "", "expected": {}}`)
	write("d.json", `{"name": "delta"}`)

	modes, err := NewStore(dir, "", nil).Discover()
	require.NoError(t, err)
	assert.Equal(t, map[string]Mode{
		"alpha": ModeCountVolume,
		"beta":  ModeFailFast,
		"delta": ModeVolumeOnly,
	}, modes)
}

func TestStore_DiscoverSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("a.json", `{"name": "alpha"}`)
	write("bad.json", `{"name": `)
	write("conflict.json", "<<<<<<< HEAD\n{\"name\": \"x\"}\n=======\n{\"name\": \"y\"}\n>>>>>>> branch\n")
	write("list.json", `[1, 2]`)

	core, logs := observer.New(zap.WarnLevel)
	modes, err := NewStore(dir, "", zap.New(core)).Discover()
	require.NoError(t, err)
	assert.Equal(t, map[string]Mode{"alpha": ModeVolumeOnly}, modes)
	assert.Equal(t, 3, logs.FilterMessage("Skipping unreadable fixture").Len())
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("matlab_irregular_closed_shell_dense_01"))
	for _, bad := range []string{"", "a/b", `a\b`, "a b", "a\tb"} {
		assert.ErrorIs(t, ValidateName(bad), ErrMalformedInput, "name %q", bad)
	}
}
