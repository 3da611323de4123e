package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(errs ConfigErrors) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateAcceptsSmallTable(t *testing.T) {
	assert.Empty(t, smallTable().Validate())
	assert.NoError(t, smallTable().Validate().Err())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RuleTable)
		code   string
	}{
		{"too few primes", func(t *RuleTable) {
			t.Primes = []int64{2}
			t.Fusion = []FusionRule{{A: 0, B: 0, Result: 0, Remainder: NoSlot}}
			t.Fission = nil
			t.CycleCount, t.DecayCount = 0, 0
			t.LightSlots = nil
		}, ErrCodeTooFewSlots},
		{"primes out of order", func(t *RuleTable) { t.Primes[2] = 3 }, ErrCodePrimeOrder},
		{"unknown result", func(t *RuleTable) { t.Fusion[0].Result = 9 }, ErrCodeUnknownSlot},
		{"unknown base", func(t *RuleTable) { t.Base = 5 }, ErrCodeUnknownSlot},
		{"unknown light slot", func(t *RuleTable) { t.LightSlots = append(t.LightSlots, 7) }, ErrCodeUnknownSlot},
		{"no fusion rules", func(t *RuleTable) { t.Fusion = nil }, ErrCodeNoFusionRules},
		{"subset overflow", func(t *RuleTable) { t.DecayCount = 2 }, ErrCodeSubsetCounts},
		{"cycle without partner", func(t *RuleTable) { t.Fission[0].Partner = NoSlot }, ErrCodeMissingPartner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := smallTable()
			tt.mutate(tbl)
			errs := tbl.Validate()
			require.NotEmpty(t, errs)
			assert.Contains(t, codes(errs), tt.code)
			assert.True(t, IsConfigError(errs.Err()))
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	tbl := smallTable()
	tbl.Fusion[0].A = 10
	tbl.Fusion[1].B = 11
	errs := tbl.Validate()
	assert.Len(t, errs, 2)
	assert.Contains(t, errs.Error(), "fusion[0].a")
	assert.Contains(t, errs.Error(), "fusion[1].b")
}

func TestIsConfigErrorWrapped(t *testing.T) {
	err := fmt.Errorf("load: %w", ConfigError{Code: ErrCodeGapNotCovered, Message: "gap 14"})
	assert.True(t, IsConfigError(err))
	assert.False(t, IsConfigError(fmt.Errorf("plain")))
	assert.Equal(t, "[E207] gap 14", ConfigError{Code: ErrCodeGapNotCovered, Message: "gap 14"}.Error())
}

func TestDefaultParamsValid(t *testing.T) {
	assert.Empty(t, DefaultParams().Validate())
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		field  string
	}{
		{"weighting", func(p *Params) { p.Weighting = "uniform" }, "params.weighting"},
		{"spread", func(p *Params) { p.Spread = 0 }, "params.spread"},
		{"beta", func(p *Params) { p.Beta = -1 }, "params.beta"},
		{"alpha", func(p *Params) { p.Alpha = -0.5 }, "params.alpha"},
		{"seed", func(p *Params) { p.SeedCount = -1 }, "params.seed_count"},
		{"fraction", func(p *Params) { p.ScarcityFraction = 1.5 }, "params.scarcity_fraction"},
		{"threshold", func(p *Params) { p.DecayThreshold = -2 }, "params.decay_threshold"},
		{"cycle interval", func(p *Params) { p.CycleInterval = -1 }, "params.cycle_interval"},
		{"decay interval", func(p *Params) { p.DecayInterval = -1 }, "params.decay_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			errs := p.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, ErrCodeInvalidParam, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}
