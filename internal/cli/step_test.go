package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssesselmann/prime-number-fusion/internal/engine"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

func TestStep_Text(t *testing.T) {
	out, err := execute(t, textOpts(), NewStepCommand, "--table", smallTablePath, "--seed", "1", "--steps", "3")
	require.NoError(t, err)
	assert.Equal(t, "After 3 steps:\n"+
		"  p1   (2) = 1\n"+
		"  p3   (5) = 1\n"+
		"total=2 fusions=2 fissions=0\n", out)
}

func TestStep_JSON(t *testing.T) {
	out, err := execute(t, jsonOpts(), NewStepCommand, "-t", smallTablePath, "--seed", "1", "-s", "3", "--exclude-base")
	require.NoError(t, err)

	var result StepResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, result.Steps)
	assert.Equal(t, []int64{0, 1, 1}, result.Applied)
	assert.Equal(t, []ir.SlotCount{{Slot: 2, Count: 1}}, result.Distribution.Slots)
	assert.Equal(t, int64(2), result.Distribution.Total, "the total still counts the base slot")
}

func TestStep_ZeroSteps(t *testing.T) {
	out, err := execute(t, jsonOpts(), NewStepCommand, "-t", smallTablePath, "--seed", "7", "--steps", "0")
	require.NoError(t, err)

	var result StepResult
	decodeResponse(t, out, &result)
	assert.Empty(t, result.Applied)
	assert.Equal(t, []ir.SlotCount{{Slot: 0, Count: 7}}, result.Distribution.Slots)
}

func TestStep_MatchesEngine(t *testing.T) {
	out, err := execute(t, jsonOpts(), NewStepCommand, "--primes", "20", "--seed", "0", "--steps", "200")
	require.NoError(t, err)
	var result StepResult
	decodeResponse(t, out, &result)

	table, params, err := loadTable(textOpts(), TableSource{Primes: 20})
	require.NoError(t, err)
	st := engine.NewState(table, 0)
	fe := engine.NewFusionEngine(params)
	for range 200 {
		_, err := fe.StepExhaustive(st)
		require.NoError(t, err)
	}
	assert.Equal(t, newDistribution(st.Snapshot(), ir.NoSlot), result.Distribution)
}

func TestStep_Errors(t *testing.T) {
	_, err := execute(t, textOpts(), NewStepCommand, "--steps", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, textOpts(), NewStepCommand, "--table", "testdata/absent.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")

	_, err = execute(t, textOpts(), NewStepCommand, "--primes", "2")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
