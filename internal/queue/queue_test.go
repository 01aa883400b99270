package queue

import (
	"bytes"
	"strings"
	"testing"

	"meshfixture/internal/fixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatches(t *testing.T) {
	batches, err := Batches()
	require.NoError(t, err)
	require.Len(t, batches, 2)

	for _, b := range batches {
		assert.Len(t, b.Items, 10, "batch %s", b.ID)
	}
	assert.Equal(t, Item{Name: "matlab_intersections_fail_fast_01", ExpectedMode: fixture.ModeFailFast}, batches[0].Items[3])
	assert.Equal(t, Item{Name: "matlab_small_volume_threshold_01", ExpectedMode: fixture.ModeDeterministic}, batches[1].Items[6])
}

func TestLookup(t *testing.T) {
	b, err := Lookup("6")
	require.NoError(t, err)
	assert.Equal(t, "Batch 6", b.Title)

	_, err = Lookup("42")
	assert.ErrorIs(t, err, fixture.ErrNotFound)
}

func TestParseBatches_RejectsUnknownMode(t *testing.T) {
	_, err := parseBatches([]byte(`
batches:
  - id: "1"
    title: Batch 1
    items:
      - {name: a, expected_mode: exact}
`))
	assert.ErrorContains(t, err, `unknown mode "exact"`)

	_, err = parseBatches([]byte(`
batches:
  - {id: "1", title: A}
  - {id: "1", title: B}
`))
	assert.ErrorContains(t, err, "duplicate batch id")
}

func TestEvaluate(t *testing.T) {
	batch := Batch{ID: "t", Title: "Batch T", Items: []Item{
		{Name: "a", ExpectedMode: fixture.ModeVolumeOnly},
		{Name: "b", ExpectedMode: fixture.ModeFailFast},
		{Name: "c", ExpectedMode: fixture.ModeDeterministic},
	}}

	r := Evaluate(batch, map[string]fixture.Mode{
		"a":     fixture.ModeVolumeOnly,
		"b":     fixture.ModeCountVolume,
		"other": fixture.ModeVolumeOnly,
	})
	assert.Equal(t, []State{StateDone, StateMismatch, StatePending}, []State{r.Items[0].State, r.Items[1].State, r.Items[2].State})
	assert.Equal(t, 2, r.Completed)
	assert.Equal(t, 1, r.Mismatches())
	assert.False(t, r.Complete())

	r = Evaluate(batch, map[string]fixture.Mode{
		"a": fixture.ModeCountVolume,
		"b": fixture.ModeCountVolume,
		"c": fixture.ModeCountVolume,
	})
	assert.True(t, r.Complete(), "mismatches never block completion")
}

func TestRender_SinglePending(t *testing.T) {
	batch := Batch{ID: "t", Title: "Batch T", Items: []Item{{Name: "matlab_case_01", ExpectedMode: fixture.ModeVolumeOnly}}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Evaluate(batch, nil)))

	want := "Batch T progress status\n" +
		"=======================\n" +
		"[01] ⏳ pending  matlab_case_01 (expected: volume-only)\n" +
		"\n" +
		"Completed: 0/1\n"
	assert.Equal(t, want, buf.String())
	assert.NotContains(t, buf.String(), "queue complete")
}

func TestRender_CompleteWithMismatch(t *testing.T) {
	batch := Batch{ID: "t", Title: "Batch T", Items: []Item{
		{Name: "a", ExpectedMode: fixture.ModeVolumeOnly},
		{Name: "b", ExpectedMode: fixture.ModeFailFast},
	}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Evaluate(batch, map[string]fixture.Mode{
		"a": fixture.ModeVolumeOnly,
		"b": fixture.ModeVolumeOnly,
	})))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "[01] ✅ done     a (expected: volume-only)", lines[2])
	assert.Equal(t, "[02] ⚠️ done     b (expected: fail-fast) [mode mismatch: actual volume-only]", lines[3])
	assert.Contains(t, buf.String(), "Completed: 2/2\nBatch T queue complete.\n")
}

func TestRenderAll(t *testing.T) {
	batches, err := Batches()
	require.NoError(t, err)
	reports := make([]*Report, 0, len(batches))
	for _, b := range batches {
		reports = append(reports, Evaluate(b, nil))
	}

	var buf bytes.Buffer
	require.NoError(t, RenderAll(&buf, reports))
	assert.Contains(t, buf.String(), "Completed: 0/10\n\nBatch 6 progress status\n")
	assert.Equal(t, 2, strings.Count(buf.String(), "Completed: 0/10"))
}

func TestBatches_ReturnsCopies(t *testing.T) {
	batches, err := Batches()
	require.NoError(t, err)
	batches[0].Items[0].Name = "mutated"
	batches[0].Items = append(batches[0].Items[:0], Item{Name: "other"})

	b, err := Lookup(batches[0].ID)
	require.NoError(t, err)
	b.Items[1].ExpectedMode = fixture.ModeFailFast

	again, err := Batches()
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0].Items[0].Name)
	assert.Len(t, again[0].Items, 10)

	fresh, err := Lookup(batches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, again[0], fresh)
}
