package generator

import (
	"fmt"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// Defaults applied by Table.
const (
	// DefaultDecayCount is the number of heaviest fusion rules reversed
	// into heavy decay rules.
	DefaultDecayCount = 11
)

// DefaultLightSlots are the slots watched for scarcity (p3..p6).
var DefaultLightSlots = []ir.Slot{2, 3, 4, 5}

// defaultCycle is the CNO cycle subset, written as 1-based slot names:
// p6+p2 -> p5+p3, p8+p2 -> p7+p3, p9+p3 -> p7+p5.
var defaultCycle = [][4]string{
	{"p6", "p2", "p5", "p3"},
	{"p8", "p2", "p7", "p3"},
	{"p9", "p3", "p7", "p5"},
}

// Generate derives the fusion rules for primes.
//
// The first rule is always p1 + p1 -> p2. For every later slot i the gap
// primes[i+1]-primes[i] selects the partner j, the first slot with
// primes[j] >= gap, and the rule is (i, j) -> i+1 with remainder j-1
// (none when j is the first slot).
//
// Returns a ConfigError when primes are too few, not strictly ascending,
// or when no slot covers a gap.
func Generate(primes []int64) ([]ir.FusionRule, error) {
	if len(primes) < 3 {
		return nil, ir.ConfigError{
			Code:    ir.ErrCodeTooFewSlots,
			Field:   "primes",
			Message: fmt.Sprintf("need at least 3 primes to generate rules, got %d", len(primes)),
		}
	}
	for i := 1; i < len(primes); i++ {
		if primes[i] <= primes[i-1] {
			return nil, ir.ConfigError{
				Code:    ir.ErrCodePrimeOrder,
				Field:   fmt.Sprintf("primes[%d]", i),
				Message: fmt.Sprintf("%d does not follow %d in ascending order", primes[i], primes[i-1]),
			}
		}
	}

	rules := make([]ir.FusionRule, 0, len(primes)-1)
	rules = append(rules, ir.FusionRule{A: 0, B: 0, Result: 1, Remainder: ir.NoSlot})

	for i := 1; i < len(primes)-1; i++ {
		gap := primes[i+1] - primes[i]
		partner, ok := coveringSlot(primes, gap)
		if !ok {
			return nil, ir.ConfigError{
				Code:    ir.ErrCodeGapNotCovered,
				Field:   fmt.Sprintf("primes[%d]", i+1),
				Message: fmt.Sprintf("no slot value reaches gap %d between %d and %d", gap, primes[i], primes[i+1]),
			}
		}
		remainder := ir.NoSlot
		if partner > 0 {
			remainder = partner - 1
		}
		rules = append(rules, ir.FusionRule{
			A:         ir.Slot(i),
			B:         partner,
			Result:    ir.Slot(i + 1),
			Remainder: remainder,
		})
	}
	return rules, nil
}

// coveringSlot returns the first slot whose value is >= gap.
func coveringSlot(primes []int64, gap int64) (ir.Slot, bool) {
	for j, p := range primes {
		if p >= gap {
			return ir.Slot(j), true
		}
	}
	return ir.NoSlot, false
}

// DecayRules reverses the n heaviest fusion rules, heaviest first. A
// fusion A + B -> R becomes R -> A + B, with B declared as the partner
// whose scarcity the decay relieves.
func DecayRules(fusion []ir.FusionRule, n int) []ir.FissionRule {
	if n > len(fusion) {
		n = len(fusion)
	}
	out := make([]ir.FissionRule, 0, n)
	for k := len(fusion) - 1; k >= len(fusion)-n; k-- {
		r := fusion[k]
		out = append(out, ir.FissionRule{
			Source:    r.Result,
			Partner:   r.B,
			Product:   r.A,
			Byproduct: r.B,
		})
	}
	return out
}

// CycleRules returns the default CNO cycle rules that fit in a table of
// numSlots slots.
func CycleRules(numSlots int) []ir.FissionRule {
	var out []ir.FissionRule
	for _, names := range defaultCycle {
		r := ir.FissionRule{
			Source:    ir.MustParseSlot(names[0]),
			Partner:   ir.MustParseSlot(names[1]),
			Product:   ir.MustParseSlot(names[2]),
			Byproduct: ir.MustParseSlot(names[3]),
		}
		if int(r.Source) < numSlots && int(r.Product) < numSlots {
			out = append(out, r)
		}
	}
	return out
}

// LightSlots returns the default scarcity slots that fit in a table of
// numSlots slots.
func LightSlots(numSlots int) []ir.Slot {
	var out []ir.Slot
	for _, s := range DefaultLightSlots {
		if int(s) < numSlots {
			out = append(out, s)
		}
	}
	return out
}

// Table assembles a complete, validated rule table for primes: generated
// fusion rules, the default CNO cycle prefix and a heavy decay suffix
// reversing the heaviest fusion rules.
func Table(primes []int64) (*ir.RuleTable, error) {
	fusion, err := Generate(primes)
	if err != nil {
		return nil, err
	}

	cycle := CycleRules(len(primes))
	decay := DecayRules(fusion, DefaultDecayCount)

	light := LightSlots(len(primes))

	t := &ir.RuleTable{
		Primes:     append([]int64(nil), primes...),
		Base:       0,
		Fusion:     fusion,
		Fission:    append(cycle, decay...),
		CycleCount: len(cycle),
		DecayCount: len(decay),
		LightSlots: light,
	}
	if errs := t.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return t, nil
}
