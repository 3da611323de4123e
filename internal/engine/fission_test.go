package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
	"github.com/ssesselmann/prime-number-fusion/internal/testutil"
)

func TestCycle_ConservesTotal(t *testing.T) {
	st := stateWith(0, 4, 0, 4, 0)
	ok, err := FissionEngine{}.Cycle(st, testutil.NewRNG(1))
	require.NoError(t, err)
	require.True(t, ok)

	// p4 + p2 -> p3 + p2
	assert.Equal(t, Inventory{0, 4, 1, 3, 0}, st.Counts())
	assert.Equal(t, int64(8), st.Total())
	assert.Equal(t, int64(1), st.Fissions())
	assert.Equal(t, int64(0), st.Fusions())
}

func TestCycle_NeedsBothOperands(t *testing.T) {
	st := stateWith(0, 0, 0, 4, 0)
	ok, err := FissionEngine{}.Cycle(st, testutil.NewRNG(1))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Inventory{0, 0, 0, 4, 0}, st.Counts())
	assert.Equal(t, int64(0), st.Fissions())
}

func TestCycle_NoCycleRules(t *testing.T) {
	tbl := testutil.SmallTable()
	tbl.Fission = tbl.Fission[1:]
	tbl.CycleCount = 0
	st := NewState(tbl, 10)

	ok, err := FissionEngine{}.Cycle(st, testutil.NewRNG(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCycle_UniformPick(t *testing.T) {
	tbl := testutil.SmallTable()
	// Three cycle rules, each p4 + p2 -> something distinct.
	tbl.Fission = append([]ir.FissionRule{
		{Source: 3, Partner: 1, Product: 2, Byproduct: 1},
		{Source: 3, Partner: 1, Product: 4, Byproduct: 1},
		{Source: 3, Partner: 1, Product: 0, Byproduct: 1},
	}, tbl.Fission[1:]...)
	tbl.CycleCount = 3
	require.Empty(t, tbl.Validate())

	st := NewState(tbl, 0)
	st.counts[1] = 1_000_000
	st.counts[3] = 1_000_000
	hits := map[int]int{}
	st.SetObserver(func(ev ir.Event) { hits[ev.Rule]++ })

	e := FissionEngine{}
	rng := testutil.NewRNG(testutil.DefaultSeed)
	for i := 0; i < 30_000; i++ {
		_, err := e.Cycle(st, rng)
		require.NoError(t, err)
	}
	for k := 0; k < 3; k++ {
		assert.InDelta(t, 10_000, hits[k], 600, "cycle rule %d", k)
	}
}

func TestScarce(t *testing.T) {
	e := FissionEngine{ScarcityFraction: 0.10}

	// Light slot p2 holds 1 of 1000: threshold is 100.
	st := stateWith(799, 1, 100, 100, 0)
	assert.True(t, e.Scarce(st))

	st = stateWith(700, 100, 100, 100, 0)
	assert.False(t, e.Scarce(st), "exactly at the threshold is not scarce")
}

func TestDecay_ScarcityScenario(t *testing.T) {
	e := FissionEngine{ScarcityFraction: 0.10, DecayThreshold: 100}

	// Light p3 holds 1 unit of 1000; heavy p5 holds 150 >= threshold and
	// its partner p3 is scarce.
	st := stateWith(549, 100, 1, 200, 150)
	require.Equal(t, int64(1000), st.Total())
	require.True(t, e.Scarce(st))

	ok, err := e.Decay(st)
	require.NoError(t, err)
	require.True(t, ok)

	// p5 -> p4 + p3: one consumed, two produced.
	assert.Equal(t, Inventory{549, 100, 2, 201, 149}, st.Counts())
	assert.Equal(t, int64(1001), st.Total())
	assert.Equal(t, int64(1), st.Fissions())
}

func TestDecay_NoScarcityNoDecay(t *testing.T) {
	e := FissionEngine{ScarcityFraction: 0.10}
	st := stateWith(100, 200, 200, 200, 300)

	ok, err := e.Decay(st)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), st.Fissions())
}

func TestDecay_PartnerMustBeScarce(t *testing.T) {
	e := FissionEngine{ScarcityFraction: 0.10}

	// p2 is scarce, but p5's partner p3 is not: the first rule is skipped
	// and p4 -> p3 + p1 (partner p1 scarce) fires instead.
	st := stateWith(50, 10, 400, 300, 240)
	require.True(t, e.Scarce(st))

	var fired []int
	st.SetObserver(func(ev ir.Event) { fired = append(fired, ev.Rule) })

	ok, err := e.Decay(st)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{2}, fired)
	assert.Equal(t, Inventory{51, 10, 401, 299, 240}, st.Counts())
}

func TestDecay_ThresholdFloorIsOne(t *testing.T) {
	e := FissionEngine{ScarcityFraction: 0.5, DecayThreshold: 0}
	st := stateWith(10, 0, 0, 0, 0)

	ok, err := e.Decay(st)
	require.NoError(t, err)
	assert.False(t, ok, "an empty source never decays")
}

func TestDecay_ThresholdRespected(t *testing.T) {
	e := FissionEngine{ScarcityFraction: 0.10, DecayThreshold: 200}
	st := stateWith(549, 100, 1, 200, 150)

	// p5 holds 150 < 200; p4 reaches the threshold but its partner p1 is
	// abundant; p3 and p2 are below the threshold.
	ok, err := e.Decay(st)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Inventory{549, 100, 1, 200, 150}, st.Counts())
}
