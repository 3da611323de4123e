package generator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func renderRules(rules []ir.FusionRule) string {
	var b strings.Builder
	for k, r := range rules {
		fmt.Fprintf(&b, "%2d  %s\n", k, r)
	}
	return b.String()
}

func renderTable(t *ir.RuleTable) string {
	var b strings.Builder
	primes := make([]string, len(t.Primes))
	for i, p := range t.Primes {
		primes[i] = fmt.Sprint(p)
	}
	light := make([]string, len(t.LightSlots))
	for i, s := range t.LightSlots {
		light[i] = s.Name()
	}
	fmt.Fprintf(&b, "primes: %s\n", strings.Join(primes, " "))
	fmt.Fprintf(&b, "base: %s\n", t.Base)
	fmt.Fprintf(&b, "light: %s\n", strings.Join(light, " "))
	b.WriteString("fusion:\n")
	for k, r := range t.Fusion {
		fmt.Fprintf(&b, "  %2d  %s\n", k, r)
	}
	b.WriteString("cycle:\n")
	for k, r := range t.CycleRules() {
		fmt.Fprintf(&b, "  %2d  %s\n", k, r)
	}
	b.WriteString("decay:\n")
	for k, r := range t.DecayRules() {
		fmt.Fprintf(&b, "  %2d  %s\n", t.DecayOffset()+k, r)
	}
	return b.String()
}

func TestGenerateSmallGolden(t *testing.T) {
	// Remainder convention: partner j is the first slot with value >= gap,
	// remainder is slot j-1. Gap 3->5 is 2, covered by p1 itself.
	rules, err := Generate([]int64{2, 3, 5, 7, 11})
	require.NoError(t, err)
	require.Len(t, rules, 4)

	assert.Equal(t, ir.FusionRule{A: 1, B: 0, Result: 2, Remainder: ir.NoSlot}, rules[1])
	assert.Equal(t, ir.FusionRule{A: 3, B: 2, Result: 4, Remainder: 1}, rules[3])

	newGoldie(t).Assert(t, "rules_5", []byte(renderRules(rules)))
}

func TestGenerateFirst32Golden(t *testing.T) {
	rules, err := Generate(FirstPrimes(32))
	require.NoError(t, err)
	require.Len(t, rules, 31)

	newGoldie(t).Assert(t, "rules_32", []byte(renderRules(rules)))
}

func TestGenerateRuleShape(t *testing.T) {
	primes := FirstPrimes(200)
	rules, err := Generate(primes)
	require.NoError(t, err)

	for k, r := range rules {
		assert.Equal(t, ir.Slot(k+1), r.Result, "rule %d produces the next slot", k)
		if k == 0 {
			continue
		}
		gap := primes[k+1] - primes[k]
		assert.GreaterOrEqual(t, primes[r.B], gap, "partner covers the gap")
		if r.B > 0 {
			assert.Less(t, primes[r.B-1], gap, "partner is the first covering slot")
			assert.Equal(t, r.B-1, r.Remainder)
		} else {
			assert.Equal(t, ir.NoSlot, r.Remainder)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		primes []int64
		code   string
	}{
		{"too few", []int64{2, 3}, ir.ErrCodeTooFewSlots},
		{"not ascending", []int64{2, 5, 3, 7}, ir.ErrCodePrimeOrder},
		{"duplicate", []int64{2, 3, 3, 5}, ir.ErrCodePrimeOrder},
		{"gap not covered", []int64{-10, -5, 3}, ir.ErrCodeGapNotCovered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.primes)
			require.Error(t, err)
			var ce ir.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.code, ce.Code)
		})
	}
}

func TestFirstPrimes(t *testing.T) {
	assert.Nil(t, FirstPrimes(0))
	assert.Equal(t, []int64{2, 3, 5, 7, 11}, FirstPrimes(5))

	ps := FirstPrimes(1000)
	require.Len(t, ps, 1000)
	assert.Equal(t, int64(7919), ps[999])
}

func TestDecayRulesReverseHeaviestFirst(t *testing.T) {
	rules, err := Generate([]int64{2, 3, 5, 7, 11})
	require.NoError(t, err)

	decay := DecayRules(rules, 2)
	require.Len(t, decay, 2)
	assert.Equal(t, ir.FissionRule{Source: 4, Partner: 2, Product: 3, Byproduct: 2}, decay[0])
	assert.Equal(t, ir.FissionRule{Source: 3, Partner: 0, Product: 2, Byproduct: 0}, decay[1])

	assert.Len(t, DecayRules(rules, 99), len(rules), "n is clamped to the rule count")
}

func TestCycleRulesFitTable(t *testing.T) {
	assert.Empty(t, CycleRules(5))
	assert.Len(t, CycleRules(6), 1)
	assert.Len(t, CycleRules(9), 3)
}

func TestTableGolden(t *testing.T) {
	tbl, err := Table(FirstPrimes(32))
	require.NoError(t, err)
	assert.Empty(t, tbl.Validate())
	assert.Equal(t, 3, tbl.CycleCount)
	assert.Equal(t, DefaultDecayCount, tbl.DecayCount)

	newGoldie(t).Assert(t, "table_32", []byte(renderTable(tbl)))
}

func TestTableSmallHasNoCycle(t *testing.T) {
	tbl, err := Table([]int64{2, 3, 5, 7, 11})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.CycleCount)
	assert.Equal(t, 4, tbl.DecayCount)
	assert.Equal(t, []ir.Slot{2, 3, 4}, tbl.LightSlots)
}
