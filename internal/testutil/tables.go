package testutil

import "github.com/ssesselmann/prime-number-fusion/internal/ir"

// SmallTable returns the rule table generated for primes 2, 3, 5, 7, 11:
//
//	0  p1 + p1 -> p2
//	1  p2 + p1 -> p3
//	2  p3 + p1 -> p4
//	3  p4 + p3 -> p5 + p2
//
// with one CNO cycle rule (p4 + p2 -> p3 + p2) and the fusion rules
// reversed as heavy decay rules, heaviest first. Light slots are p2..p4.
func SmallTable() *ir.RuleTable {
	return &ir.RuleTable{
		Primes: []int64{2, 3, 5, 7, 11},
		Base:   0,
		Fusion: []ir.FusionRule{
			{A: 0, B: 0, Result: 1, Remainder: ir.NoSlot},
			{A: 1, B: 0, Result: 2, Remainder: ir.NoSlot},
			{A: 2, B: 0, Result: 3, Remainder: ir.NoSlot},
			{A: 3, B: 2, Result: 4, Remainder: 1},
		},
		Fission: []ir.FissionRule{
			{Source: 3, Partner: 1, Product: 2, Byproduct: 1},
			{Source: 4, Partner: 2, Product: 3, Byproduct: 2},
			{Source: 3, Partner: 0, Product: 2, Byproduct: 0},
			{Source: 2, Partner: 0, Product: 1, Byproduct: 0},
			{Source: 1, Partner: 0, Product: 0, Byproduct: 0},
		},
		CycleCount: 1,
		DecayCount: 4,
		LightSlots: []ir.Slot{1, 2, 3},
	}
}

// Counts builds an inventory vector of n slots from slot/count pairs.
func Counts(n int, pairs map[ir.Slot]int64) []int64 {
	out := make([]int64, n)
	for s, c := range pairs {
		out[s] = c
	}
	return out
}
