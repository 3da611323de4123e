package engine

import (
	"log/slog"
	"math/rand/v2"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// FissionEngine applies the CNO cycle and heavy decay subsets of the
// fission rules.
//
// Heavy decay uses one fixed policy: a rule that declares a partner only
// fires while that partner is itself scarce.
type FissionEngine struct {
	// ScarcityFraction of total inventory below which a light slot is scarce.
	ScarcityFraction float64

	// DecayThreshold is the minimum source count for a decay. A source
	// always needs at least one unit.
	DecayThreshold int64
}

// NewFissionEngine returns a fission engine configured from params.
func NewFissionEngine(p ir.Params) FissionEngine {
	return FissionEngine{
		ScarcityFraction: p.ScarcityFraction,
		DecayThreshold:   p.DecayThreshold,
	}
}

// Cycle picks one CNO cycle rule uniformly at random and applies it if
// both source and partner hold a unit.
func (e FissionEngine) Cycle(st *State, rng *rand.Rand) (bool, error) {
	n := st.table.CycleCount
	if n == 0 {
		return false, nil
	}
	idx := rng.IntN(n)
	ok, err := st.fission(ir.EventCycle, idx)
	if err == nil && !ok {
		slog.Debug("cno cycle unavailable", "rule", st.table.Fission[idx].String())
	}
	return ok, err
}

// scarcityLimit returns the count below which a slot is scarce.
func (e FissionEngine) scarcityLimit(st *State) float64 {
	return e.ScarcityFraction * float64(st.Total())
}

// Scarce reports whether any light slot holds fewer units than
// ScarcityFraction of the total inventory.
func (e FissionEngine) Scarce(st *State) bool {
	limit := e.scarcityLimit(st)
	for _, s := range st.table.LightSlots {
		if float64(st.Count(s)) < limit {
			return true
		}
	}
	return false
}

// Decay applies the first heavy decay rule, in table order, whose source
// holds at least the threshold and whose declared partner is scarce.
// Nothing happens unless Scarce reports true.
func (e FissionEngine) Decay(st *State) (bool, error) {
	if !e.Scarce(st) {
		slog.Debug("no scarcity", "total", st.Total())
		return false, nil
	}

	limit := e.scarcityLimit(st)
	need := max(e.DecayThreshold, 1)
	offset := st.table.DecayOffset()

	for i, r := range st.table.DecayRules() {
		if st.Count(r.Source) < need {
			continue
		}
		if r.HasPartner() && float64(st.Count(r.Partner)) >= limit {
			continue
		}
		return st.fission(ir.EventDecay, offset+i)
	}
	return false, nil
}
