package engine

import (
	"math"
	"math/rand/v2"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// Weighting turns a table and an inventory into a probability
// distribution over the table's fusion rules. Implementations are pure:
// the same inputs always give the same weights.
type Weighting interface {
	// Weights returns one weight per fusion rule, summing to 1.
	Weights(table *ir.RuleTable, inv Inventory) []float64
}

// Gaussian weights rules by their position in the table:
// w(k) ∝ exp(-0.5 * ((k - Center) / Spread)^2). The inventory is ignored.
type Gaussian struct {
	Center float64
	Spread float64
}

// Weights implements Weighting.
func (g Gaussian) Weights(table *ir.RuleTable, _ Inventory) []float64 {
	w := make([]float64, len(table.Fusion))
	for k := range w {
		z := (float64(k) - g.Center) / g.Spread
		w[k] = math.Exp(-0.5 * z * z)
	}
	return normalize(w)
}

// Density favors rules whose operands are abundant:
// w ∝ (((count[A]+Alpha) * (count[B]+Alpha)) / total)^(1/Beta))^Gamma.
// An empty inventory yields a uniform distribution.
type Density struct {
	Alpha float64
	Beta  float64
	Gamma float64
}

// Weights implements Weighting.
func (d Density) Weights(table *ir.RuleTable, inv Inventory) []float64 {
	w := make([]float64, len(table.Fusion))
	total := float64(inv.Total())
	if total == 0 {
		return uniform(w)
	}
	for k, r := range table.Fusion {
		a := float64(inv.Count(r.A)) + d.Alpha
		b := float64(inv.Count(r.B)) + d.Alpha
		w[k] = math.Pow(math.Pow(a*b/total, 1/d.Beta), d.Gamma)
	}
	return normalize(w)
}

// NewWeighting returns the weighting selected by p.
func NewWeighting(p ir.Params) Weighting {
	if p.Weighting == ir.WeightingGaussian {
		return Gaussian{Center: p.Center, Spread: p.Spread}
	}
	return Density{Alpha: p.Alpha, Beta: p.Beta, Gamma: p.Gamma}
}

// normalize scales w in place to sum to 1. A zero, negative or
// non-finite sum falls back to uniform.
func normalize(w []float64) []float64 {
	var sum float64
	for _, x := range w {
		if x > 0 && !math.IsInf(x, 0) {
			sum += x
		}
	}
	if sum <= 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return uniform(w)
	}
	for i, x := range w {
		if x > 0 && !math.IsInf(x, 0) {
			w[i] = x / sum
		} else {
			w[i] = 0
		}
	}
	return w
}

func uniform(w []float64) []float64 {
	for i := range w {
		w[i] = 1 / float64(len(w))
	}
	return w
}

// Sample draws one index from weights (categorical, with replacement).
// weights must be non-empty and sum to 1.
func Sample(weights []float64, rng *rand.Rand) int {
	u := rng.Float64()
	var acc float64
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if u < acc {
			return i
		}
	}
	// Rounding left u just past the final sum.
	return last
}

// Select samples a fusion rule index for the current inventory.
func Select(w Weighting, table *ir.RuleTable, inv Inventory, rng *rand.Rand) int {
	return Sample(w.Weights(table, inv), rng)
}
