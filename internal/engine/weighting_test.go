package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
	"github.com/ssesselmann/prime-number-fusion/internal/testutil"
)

func sum(w []float64) float64 {
	var s float64
	for _, x := range w {
		s += x
	}
	return s
}

func TestGaussian_NormalizedAndPeaked(t *testing.T) {
	tbl := testutil.SmallTable()
	w := Gaussian{Center: 1, Spread: 1}.Weights(tbl, nil)

	require.Len(t, w, 4)
	assert.InDelta(t, 1.0, sum(w), 1e-12)
	assert.InDelta(t, w[0], w[2], 1e-12, "symmetric around the center")
	assert.Greater(t, w[1], w[0])
	assert.Greater(t, w[2], w[3])
}

func TestGaussian_IgnoresInventory(t *testing.T) {
	tbl := testutil.SmallTable()
	g := Gaussian{Center: 2, Spread: 3}
	assert.Equal(t, g.Weights(tbl, Inventory{1, 0, 0, 0, 0}), g.Weights(tbl, Inventory{0, 9, 9, 9, 9}))
}

func TestGaussian_FarCenterFallsBackToUniform(t *testing.T) {
	w := Gaussian{Center: 1e6, Spread: 1}.Weights(testutil.SmallTable(), nil)
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, w)
}

func TestDensity_ClosedForm(t *testing.T) {
	tbl := testutil.SmallTable()
	inv := Inventory{600, 200, 100, 60, 40}
	d := Density{Alpha: 1, Beta: 0.9, Gamma: 0.25}

	raw := func(a, b int64) float64 {
		return math.Pow(math.Pow(float64(a+1)*float64(b+1)/1000, 1/0.9), 0.25)
	}
	want := []float64{raw(600, 600), raw(200, 600), raw(100, 600), raw(60, 100)}
	total := sum(want)
	for i := range want {
		want[i] /= total
	}

	got := d.Weights(tbl, inv)
	require.Len(t, got, 4)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "rule %d", i)
	}
	assert.Greater(t, got[0], got[3], "abundant operands are favored")
}

func TestDensity_EmptyInventoryIsUniform(t *testing.T) {
	w := Density{Alpha: 1, Beta: 0.9, Gamma: 0.25}.Weights(testutil.SmallTable(), Inventory{0, 0, 0, 0, 0})
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, w)
}

func TestDensity_AllZeroWeightsIsUniform(t *testing.T) {
	// Alpha 0 with all operands empty but a non-zero total gives zero raw weights.
	w := Density{Alpha: 0, Beta: 1, Gamma: 1}.Weights(testutil.SmallTable(), Inventory{0, 0, 0, 0, 5})
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, w)
}

func TestNewWeighting(t *testing.T) {
	p := ir.DefaultParams()
	assert.Equal(t, Density{Alpha: 1, Beta: 0.9, Gamma: 0.25}, NewWeighting(p))

	p.Weighting = ir.WeightingGaussian
	assert.Equal(t, Gaussian{Center: 10, Spread: 5}, NewWeighting(p))
}

func TestSample_SkipsZeroWeights(t *testing.T) {
	rng := testutil.NewRNG(7)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, 2, Sample([]float64{0, 0, 1, 0}, rng))
	}
}

func TestSelect_ConvergesToDensityWeights(t *testing.T) {
	tbl := testutil.SmallTable()
	inv := Inventory{600, 200, 100, 60, 40}
	d := Density{Alpha: 1, Beta: 0.9, Gamma: 0.25}
	want := d.Weights(tbl, inv)

	rng := testutil.NewRNG(testutil.DefaultSeed)
	const n = 200_000
	hits := make([]int, len(want))
	for i := 0; i < n; i++ {
		hits[Select(d, tbl, inv, rng)]++
	}

	for i := range want {
		assert.InDelta(t, want[i], float64(hits[i])/n, 0.01, "rule %d", i)
	}
}
