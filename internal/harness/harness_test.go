package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallTable = "testdata/tables/small.yaml"

func int64p(n int64) *int64 { return &n }
func boolp(b bool) *bool    { return &b }

func TestRunWithGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"exhaustive_small", "fission_small", "reset_small"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_WeightedScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/weighted_default.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.NotEmpty(t, result.Trace)
	assert.Len(t, result.Steps, 4)
	assert.Equal(t, result.Final.Seq, result.Trace[len(result.Trace)-1].Seq)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/weighted_default.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Final, second.Final)
}

func TestRun_StepExpectationFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_expectation",
		Description: "An empty inventory fires nothing",
		Table:       smallTable,
		Seed:        int64p(0),
		Steps: []Step{
			{Op: OpCycle, Expect: &StepExpect{OK: boolp(true)}},
			{Op: OpExhaustive, Expect: &StepExpect{Applied: int64p(5)}},
		},
		Assertions: []Assertion{{Type: AssertNonNegative}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected ok=true, got ok=false")
	assert.Contains(t, result.Errors[1], "expected applied=5, got applied=0")
}

func TestRun_AssertionFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_counts",
		Description: "Minting one unit cannot leave two",
		Table:       smallTable,
		Seed:        int64p(0),
		Steps:       []Step{{Op: OpMint}},
		Assertions: []Assertion{
			{Type: AssertCounts, Counts: map[string]int64{"p1": 2}},
			{Type: AssertTotal, Count: int64p(1)},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "Expected: p1 = 2")
	assert.Contains(t, result.Errors[0], "Actual: p1 = 1")
}

func TestRun_SlotOutsideTable(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_slot",
		Description: "Minting past the last slot is an error",
		Table:       smallTable,
		Steps:       []Step{{Op: OpMint, Slot: "p9"}},
		Assertions:  []Assertion{{Type: AssertNonNegative}},
	}

	_, err := Run(scenario)
	assert.ErrorContains(t, err, "outside table")
}

func TestRun_DefaultTableAndSeed(t *testing.T) {
	scenario := &Scenario{
		Name:        "defaults",
		Description: "No table and no seed select the 32-prime table and seed_count",
		Steps:       []Step{{Op: OpSeek, Budget: 1, Expect: &StepExpect{OK: boolp(true), Applied: int64p(1)}}},
		Assertions: []Assertion{
			{Type: AssertTotal, Count: int64p(100000 - 1)},
			{Type: AssertCounts, Counts: map[string]int64{"p2": 1}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Len(t, result.Final.Counts, DefaultPrimeCount)
}

func TestLoadTable_Missing(t *testing.T) {
	_, _, err := LoadTable("testdata/tables/missing.yaml")
	assert.Error(t, err)
}
