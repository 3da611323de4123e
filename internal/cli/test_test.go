package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../harness/testdata/scenarios"

func TestTestCommand_AllPass(t *testing.T) {
	out, err := execute(t, textOpts(), NewTestCommand, scenariosDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ exhaustive_small\n")
	assert.Contains(t, out, "✓ weighted_default\n")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_FilterJSON(t *testing.T) {
	out, err := execute(t, jsonOpts(), NewTestCommand, scenariosDir, "--filter", "reset_*")
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "reset_small", result.Scenarios[0].Name)
	assert.True(t, result.Scenarios[0].Pass)
	assert.Positive(t, result.Scenarios[0].Events)
}

func TestTestCommand_UpdateWritesGolden(t *testing.T) {
	golden := t.TempDir()
	scenario := filepath.Join(scenariosDir, "fission_small.yaml")

	out, err := execute(t, textOpts(), NewTestCommand, scenario, "--update", "--golden-dir", golden)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ fission_small (golden updated)")

	got, err := os.ReadFile(filepath.Join(golden, "fission_small.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile("../harness/testdata/golden/fission_small.golden")
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	// A second run compares against the file just written.
	_, err = execute(t, textOpts(), NewTestCommand, scenario, "--golden-dir", golden)
	require.NoError(t, err)
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "reset_small.golden"), []byte("stale\n"), 0o644))

	out, err := execute(t, textOpts(), NewTestCommand, scenariosDir, "--filter", "reset_small", "--golden-dir", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ reset_small")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`name: wrong
seed: 10
steps:
  - op: mint
assertions:
  - type: counts
    counts: { p1: 99 }
`), 0o644))

	out, err := execute(t, jsonOpts(), NewTestCommand, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTestCommand_CommandErrors(t *testing.T) {
	_, err := execute(t, textOpts(), NewTestCommand, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, textOpts(), NewTestCommand, scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, textOpts(), NewTestCommand)
	require.Error(t, err)
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, err := execute(t, textOpts(), NewTestCommand, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestDefaultGoldenDir(t *testing.T) {
	assert.Equal(t, filepath.Join("..", "harness", "testdata", "golden"), defaultGoldenDir(scenariosDir))
	assert.Equal(t, filepath.Join("..", "harness", "testdata", "golden"), defaultGoldenDir(filepath.Join(scenariosDir, "reset_small.yaml")))
}
