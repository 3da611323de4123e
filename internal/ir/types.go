package ir

import "fmt"

// FusionRule combines one unit of A with one unit of B into one unit of
// Result, optionally crediting one unit of Remainder.
//
// When A == B the rule needs two units of A.
type FusionRule struct {
	A         Slot `json:"a"`
	B         Slot `json:"b"`
	Result    Slot `json:"result"`
	Remainder Slot `json:"remainder"` // NoSlot when absent
}

// HasRemainder reports whether applying the rule credits a remainder slot.
func (r FusionRule) HasRemainder() bool {
	return r.Remainder.Valid()
}

// String renders the rule as "p4 + p3 -> p5 + p2".
func (r FusionRule) String() string {
	if r.HasRemainder() {
		return fmt.Sprintf("%s + %s -> %s + %s", r.A, r.B, r.Result, r.Remainder)
	}
	return fmt.Sprintf("%s + %s -> %s", r.A, r.B, r.Result)
}

// FissionRule returns material from a heavy slot to lighter ones.
//
// CNO-cycle rules consume Source and Partner. Heavy-decay rules consume
// Source only; their Partner (if any) is the light slot the rule
// replenishes and only takes part in the scarcity test.
type FissionRule struct {
	Source    Slot `json:"source"`
	Partner   Slot `json:"partner"` // NoSlot for pure decay
	Product   Slot `json:"product"`
	Byproduct Slot `json:"byproduct"`
}

// HasPartner reports whether the rule declares a partner slot.
func (r FissionRule) HasPartner() bool {
	return r.Partner.Valid()
}

// String renders the rule as "p13 + p2 -> p11 + p3" or "p32 -> p31 + p3".
func (r FissionRule) String() string {
	if r.HasPartner() {
		return fmt.Sprintf("%s + %s -> %s + %s", r.Source, r.Partner, r.Product, r.Byproduct)
	}
	return fmt.Sprintf("%s -> %s + %s", r.Source, r.Product, r.Byproduct)
}

// RuleTable is the static rule configuration consumed by the engines.
//
// INVARIANTS:
//   - Fusion and Fission order is priority order and never changes
//   - Fission[:CycleCount] is the CNO cycle subset
//   - Fission[len(Fission)-DecayCount:] is the heavy decay subset
//   - Every referenced slot is < NumSlots()
type RuleTable struct {
	Primes     []int64       `json:"primes"`
	Base       Slot          `json:"base"`
	Fusion     []FusionRule  `json:"fusion"`
	Fission    []FissionRule `json:"fission"`
	CycleCount int           `json:"cycle_count"`
	DecayCount int           `json:"decay_count"`
	LightSlots []Slot        `json:"light_slots"`
}

// NumSlots returns the number of counter slots (one per prime).
func (t *RuleTable) NumSlots() int {
	return len(t.Primes)
}

// CycleRules returns the CNO cycle subset of the fission rules.
func (t *RuleTable) CycleRules() []FissionRule {
	return t.Fission[:t.CycleCount]
}

// DecayRules returns the heavy decay subset of the fission rules, in
// table order.
func (t *RuleTable) DecayRules() []FissionRule {
	return t.Fission[len(t.Fission)-t.DecayCount:]
}

// DecayOffset returns the index in Fission of the first decay rule.
func (t *RuleTable) DecayOffset() int {
	return len(t.Fission) - t.DecayCount
}

// Value returns the prime value of a slot.
func (t *RuleTable) Value(s Slot) int64 {
	return t.Primes[s]
}

// Clone returns a deep copy so callers cannot mutate shared rule order.
func (t *RuleTable) Clone() *RuleTable {
	c := *t
	c.Primes = append([]int64(nil), t.Primes...)
	c.Fusion = append([]FusionRule(nil), t.Fusion...)
	c.Fission = append([]FissionRule(nil), t.Fission...)
	c.LightSlots = append([]Slot(nil), t.LightSlots...)
	return &c
}

// WeightingKind selects the fusion weighting policy.
type WeightingKind string

const (
	// WeightingGaussian weights rules by position around a center index.
	WeightingGaussian WeightingKind = "gaussian"
	// WeightingDensity weights rules by operand abundance.
	WeightingDensity WeightingKind = "density"
)

// Params holds the tunable numeric parameters of a simulation.
type Params struct {
	Weighting WeightingKind `json:"weighting"`

	// Gaussian-by-position
	Center float64 `json:"center"`
	Spread float64 `json:"spread"`

	// Density-weighted smoothing constants
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`

	// SeedCount is the number of base units at start and after reset.
	SeedCount int64 `json:"seed_count"`

	// ScarcityFraction of total inventory below which a light slot is scarce.
	ScarcityFraction float64 `json:"scarcity_fraction"`

	// DecayThreshold is the minimum source count for a heavy decay.
	DecayThreshold int64 `json:"decay_threshold"`

	// CycleInterval and DecayInterval are measured in successful fusions.
	// Zero disables the trigger.
	CycleInterval int64 `json:"cycle_interval"`
	DecayInterval int64 `json:"decay_interval"`
}

// DefaultParams returns the parameters used when a table document omits them.
func DefaultParams() Params {
	return Params{
		Weighting:        WeightingDensity,
		Center:           10,
		Spread:           5,
		Alpha:            1,
		Beta:             0.9,
		Gamma:            0.25,
		SeedCount:        100000,
		ScarcityFraction: 0.10,
		DecayThreshold:   0,
		CycleInterval:    75,
		DecayInterval:    50,
	}
}
