package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/fission_small.yaml")
	require.NoError(t, err)

	assert.Equal(t, "fission_small", s.Name)
	assert.Equal(t, filepath.Join("testdata", "tables", "small.yaml"), s.Table)
	require.NotNil(t, s.Seed)
	assert.Equal(t, int64(4), *s.Seed)
	assert.Len(t, s.Steps, 7)
	assert.Equal(t, 2, s.Steps[1].Repeat)
	assert.Equal(t, "p2", s.Steps[1].Slot)
	require.NotNil(t, s.Steps[4].Expect)
	assert.Equal(t, int64(8), *s.Steps[4].Expect.Applied)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "unknown field"
steps:
  - op: mint
assertion:
  - type: nonnegative
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps: [{op: mint}]\nassertions: [{type: nonnegative}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps: [{op: mint}]\nassertions: [{type: nonnegative}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\nassertions: [{type: nonnegative}]\n",
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\nsteps: [{op: mint}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "missing table",
			content: "name: n\ndescription: d\ntable: nowhere.yaml\nsteps: [{op: mint}]\nassertions: [{type: nonnegative}]\n",
			wantErr: "table file not found",
		},
		{
			name:    "negative seed",
			content: "name: n\ndescription: d\nseed: -1\nsteps: [{op: mint}]\nassertions: [{type: nonnegative}]\n",
			wantErr: "seed must be non-negative",
		},
		{
			name:    "unknown op",
			content: "name: n\ndescription: d\nsteps: [{op: split}]\nassertions: [{type: nonnegative}]\n",
			wantErr: `unknown op "split"`,
		},
		{
			name:    "seek without bound",
			content: "name: n\ndescription: d\nsteps: [{op: seek}]\nassertions: [{type: nonnegative}]\n",
			wantErr: "seek needs a target",
		},
		{
			name:    "bad mint slot",
			content: "name: n\ndescription: d\nsteps: [{op: mint, slot: x7}]\nassertions: [{type: nonnegative}]\n",
			wantErr: "steps[0]: slot",
		},
		{
			name:    "counts without map",
			content: "name: n\ndescription: d\nsteps: [{op: mint}]\nassertions: [{type: counts}]\n",
			wantErr: "counts map is required",
		},
		{
			name:    "fusions without count",
			content: "name: n\ndescription: d\nsteps: [{op: mint}]\nassertions: [{type: fusions}]\n",
			wantErr: "count is required for fusions",
		},
		{
			name:    "unknown event kind",
			content: "name: n\ndescription: d\nsteps: [{op: mint}]\nassertions: [{type: event_count, kind: split, count: 1}]\n",
			wantErr: `unknown event kind "split"`,
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nsteps: [{op: mint}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "exhaustive_small.yaml"),
		filepath.Join("testdata", "scenarios", "fission_small.yaml"),
		filepath.Join("testdata", "scenarios", "reset_small.yaml"),
		filepath.Join("testdata", "scenarios", "weighted_default.yaml"),
	}, files)

	single, err := FindScenarios("testdata/scenarios/reset_small.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/scenarios/reset_small.yaml"}, single)

	_, err = FindScenarios("testdata/none")
	var nf *ScenarioNotFoundError
	assert.ErrorAs(t, err, &nf)
}
