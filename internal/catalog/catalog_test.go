package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"meshfixture/internal/builder"
	"meshfixture/internal/fixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func seed(t *testing.T, modes map[string]fixture.Mode) *fixture.Store {
	t.Helper()
	store := fixture.NewStore(filepath.Join(t.TempDir(), "Fixtures"), "", nil)
	b := builder.New(nil)
	for name, mode := range modes {
		f, err := b.Scaffold(name, mode)
		require.NoError(t, err)
		_, err = store.Write(f, false)
		require.NoError(t, err)
	}
	return store
}

func TestMarkdown(t *testing.T) {
	store := seed(t, map[string]fixture.Mode{
		"unit_b": fixture.ModeFailFast,
		"unit_a": fixture.ModeDeterministic,
	})
	c, err := NewGenerator(store, "", nil).Build()
	require.NoError(t, err)

	want := "# Fixture Catalog\n" +
		"\n" +
		"Auto-generated summary of regression fixtures.\n" +
		"\n" +
		"| Fixture | File | Vertices | Faces | Assertion mode |\n" +
		"|---|---|---:|---:|---|\n" +
		"| `unit_a` | `unit_a.json` | 4 | 4 | deterministic |\n" +
		"| `unit_b` | `unit_b.json` | 4 | 4 | fail-fast |\n" +
		"\n" +
		"Total fixtures: **2**.\n" +
		"\n" +
		"Regenerate with:\n" +
		"\n" +
		"```bash\n" +
		"fixturectl catalog\n" +
		"```\n"
	assert.Equal(t, want, string(c.Markdown()))
}

func TestWrite_Idempotent(t *testing.T) {
	store := seed(t, map[string]fixture.Mode{
		"a": fixture.ModeVolumeOnly,
		"b": fixture.ModeCountVolume,
		"c": fixture.ModeFailFast,
	})
	path := filepath.Join(t.TempDir(), "FixtureCatalog.md")
	g := NewGenerator(store, path, nil)

	_, err := g.Write()
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = g.Write()
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	result, err := g.Check()
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestCheck_ReportsDrift(t *testing.T) {
	store := seed(t, map[string]fixture.Mode{"a": fixture.ModeVolumeOnly})
	path := filepath.Join(t.TempDir(), "FixtureCatalog.md")
	g := NewGenerator(store, path, nil)
	_, err := g.Write()
	require.NoError(t, err)

	f, err := builder.New(nil).Scaffold("b", fixture.ModeDeterministic)
	require.NoError(t, err)
	_, err = store.Write(f, false)
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	result, err := g.Check()
	require.NoError(t, err)
	require.False(t, result.Empty())
	assert.Contains(t, result.Unified(), "+| `b` | `b.json` | 4 | 4 | deterministic |")
	assert.Contains(t, result.Unified(), "-Total fixtures: **1**.")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "check must not write")
}

func TestCheck_MissingArtifact(t *testing.T) {
	store := seed(t, map[string]fixture.Mode{"a": fixture.ModeVolumeOnly})
	result, err := NewGenerator(store, filepath.Join(t.TempDir(), "none.md"), nil).Check()
	require.NoError(t, err)
	assert.False(t, result.Empty())
}

func TestBuild_SkipsUnreadableFixtures(t *testing.T) {
	store := seed(t, map[string]fixture.Mode{"a": fixture.ModeVolumeOnly})
	require.NoError(t, os.WriteFile(store.Path("broken"), []byte(`{"name": 1}`), 0644))
	require.NoError(t, os.WriteFile(store.Path("conflict"), []byte("<<<<<<< HEAD\n{}\n>>>>>>> b\n"), 0644))

	core, logs := observer.New(zap.WarnLevel)
	c, err := NewGenerator(store, "", zap.New(core)).Build()
	require.NoError(t, err)
	require.Len(t, c.Rows, 1)
	assert.Equal(t, "a", c.Rows[0].Name)
	assert.Equal(t, 2, logs.FilterMessage("Skipping fixture in catalog").Len())
}

func TestBuild_MissingDir(t *testing.T) {
	_, err := NewGenerator(fixture.NewStore(filepath.Join(t.TempDir(), "missing"), "", nil), "", nil).Build()
	assert.ErrorIs(t, err, fixture.ErrNotFound)
}

func TestRender_PlainStyle(t *testing.T) {
	store := seed(t, map[string]fixture.Mode{"unit_a": fixture.ModeCountVolume})
	c, err := NewGenerator(store, "", nil).Build()
	require.NoError(t, err)

	out, err := c.Render("notty", 120)
	require.NoError(t, err)
	assert.Contains(t, out, "Fixture Catalog")
	assert.Contains(t, out, "unit_a")
	assert.Contains(t, out, "count+volume")
}
