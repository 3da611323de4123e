package engine

import (
	"log/slog"
	"math/rand/v2"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// FusionEngine applies fusion rules to a State.
//
// All three policies share one apply primitive: both operands are checked
// before anything is debited, and an unavailable rule is a silent false.
type FusionEngine struct {
	// Weighting picks rules for Weighted. Nil selects the default density
	// weighting.
	Weighting Weighting

	// MaxSteps bounds StepExhaustive and Seek. Zero selects DefaultMaxSteps.
	MaxSteps int64
}

// NewFusionEngine returns a fusion engine configured from params.
func NewFusionEngine(p ir.Params) FusionEngine {
	return FusionEngine{Weighting: NewWeighting(p)}
}

// Apply attempts fusion rule idx once.
func (f FusionEngine) Apply(st *State, idx int) (bool, error) {
	return st.fuse(idx)
}

// StepExhaustive advances one time step: it repeatedly applies the first
// available rule in table order, restarting from the top after every
// success, until a full scan applies nothing. The base slot then gains
// one unit. Returns the number of fusions applied during the pass.
func (f FusionEngine) StepExhaustive(st *State) (int64, error) {
	quota := NewQuotaEnforcer(f.MaxSteps)
	var applied int64

	for {
		fired, err := f.firstAvailable(st)
		if err != nil {
			return applied, err
		}
		if !fired {
			break
		}
		applied++
		if err := quota.Check("exhaustive"); err != nil {
			return applied, err
		}
	}

	st.Mint(st.table.Base)
	return applied, nil
}

// firstAvailable applies the first rule in table order whose operands
// are available.
func (f FusionEngine) firstAvailable(st *State) (bool, error) {
	for i := range st.table.Fusion {
		ok, err := st.fuse(i)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// SeekResult reports the outcome of a Seek call.
type SeekResult struct {
	Reached  bool  `json:"reached"`  // target holds >= 1 unit (or budget met)
	Attempts int64 `json:"attempts"` // rule attempts, successful or not
	Fusions  int64 `json:"fusions"`  // successful fusions
	Mints    int64 `json:"mints"`    // base units manufactured
}

// Seek applies rules in priority order until target holds at least one
// unit or budget successful fusions have been applied. Either bound may
// be disabled: target NoSlot, budget <= 0. With both disabled Seek
// returns immediately.
//
// When a full scan fires nothing, one base unit is minted as long as the
// base count is below what the hungriest base-consuming rule needs
// (2 for p1 + p1). Past that point more base units cannot help, and Seek
// gives up with Reached false.
func (f FusionEngine) Seek(st *State, target ir.Slot, budget int64) (SeekResult, error) {
	var res SeekResult
	if !target.Valid() && budget <= 0 {
		return res, nil
	}

	quota := NewQuotaEnforcer(f.MaxSteps)
	need := baseNeed(st.table)

	done := func() bool {
		if target.Valid() && st.Count(target) >= 1 {
			return true
		}
		return budget > 0 && res.Fusions >= budget
	}

	for !done() {
		if err := quota.Check("seek"); err != nil {
			return res, err
		}

		fired := false
		for i := range st.table.Fusion {
			res.Attempts++
			ok, err := st.fuse(i)
			if err != nil {
				return res, err
			}
			if ok {
				res.Fusions++
				fired = true
				break
			}
		}
		if fired {
			continue
		}

		if need == 0 || st.Count(st.table.Base) >= need {
			slog.Debug("seek stalled", "target", target, "fusions", res.Fusions)
			return res, nil
		}
		st.Mint(st.table.Base)
		res.Mints++
	}

	res.Reached = true
	return res, nil
}

// baseNeed returns the largest number of base units a single rule
// consumes, or 0 if no rule consumes the base slot.
func baseNeed(t *ir.RuleTable) int64 {
	var need int64
	for _, r := range t.Fusion {
		var n int64
		if r.A == t.Base {
			n++
		}
		if r.B == t.Base {
			n++
		}
		need = max(need, n)
	}
	return need
}

// Weighted samples one rule from the weighting and attempts it. A
// successful fusion also credits one unit to the base slot.
func (f FusionEngine) Weighted(st *State, rng *rand.Rand) (bool, error) {
	w := f.Weighting
	if w == nil {
		w = NewWeighting(ir.DefaultParams())
	}
	idx := Select(w, st.table, st.counts, rng)

	ok, err := st.fuse(idx)
	if err != nil || !ok {
		return false, err
	}
	st.Mint(st.table.Base)
	return true, nil
}
