package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration error codes (E200-E299).
const (
	ErrCodeTooFewSlots    = "E201" // fewer slots than the table needs
	ErrCodePrimeOrder     = "E202" // primes not strictly ascending
	ErrCodeUnknownSlot    = "E203" // rule references a slot outside the table
	ErrCodeSubsetCounts   = "E204" // cycle/decay counts do not fit the fission list
	ErrCodeMissingPartner = "E205" // cycle rule without partner
	ErrCodeInvalidParam   = "E206" // numeric parameter out of range
	ErrCodeGapNotCovered  = "E207" // no slot value reaches a prime gap
	ErrCodeNoFusionRules  = "E208" // empty fusion list
	ErrCodeSchemaVersion  = "E209" // unsupported document schema version
)

// ConfigError is a fatal load-time problem with a rule table or its
// parameters. An engine never starts with a table that produced one.
type ConfigError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ConfigErrors collects every problem found in one validation pass.
type ConfigErrors []ConfigError

// Error implements the error interface.
func (es ConfigErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns es as an error, or nil when es is empty.
func (es ConfigErrors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// IsConfigError reports whether err is (or wraps) a configuration error.
func IsConfigError(err error) bool {
	var ce ConfigError
	if errors.As(err, &ce) {
		return true
	}
	var ces ConfigErrors
	return errors.As(err, &ces)
}

// Validate checks every structural invariant of the table and returns all
// problems found.
func (t *RuleTable) Validate() ConfigErrors {
	var errs ConfigErrors
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ConfigError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	n := t.NumSlots()
	if n < 2 {
		add(ErrCodeTooFewSlots, "primes", "need at least 2 primes, got %d", n)
	}
	for i := 1; i < n; i++ {
		if t.Primes[i] <= t.Primes[i-1] {
			add(ErrCodePrimeOrder, fmt.Sprintf("primes[%d]", i), "%d does not follow %d in ascending order", t.Primes[i], t.Primes[i-1])
		}
	}

	inRange := func(s Slot) bool { return s >= 0 && int(s) < n }
	checkSlot := func(field string, s Slot, optional bool) {
		if optional && s == NoSlot {
			return
		}
		if !inRange(s) {
			add(ErrCodeUnknownSlot, field, "slot %s outside table of %d slots", s, n)
		}
	}

	checkSlot("base", t.Base, false)

	if len(t.Fusion) == 0 {
		add(ErrCodeNoFusionRules, "fusion", "at least one fusion rule is required")
	}
	for i, r := range t.Fusion {
		field := fmt.Sprintf("fusion[%d]", i)
		checkSlot(field+".a", r.A, false)
		checkSlot(field+".b", r.B, false)
		checkSlot(field+".result", r.Result, false)
		checkSlot(field+".remainder", r.Remainder, true)
	}

	for i, r := range t.Fission {
		field := fmt.Sprintf("fission[%d]", i)
		checkSlot(field+".source", r.Source, false)
		checkSlot(field+".partner", r.Partner, true)
		checkSlot(field+".product", r.Product, false)
		checkSlot(field+".byproduct", r.Byproduct, false)
	}

	if t.CycleCount < 0 || t.DecayCount < 0 || t.CycleCount+t.DecayCount > len(t.Fission) {
		add(ErrCodeSubsetCounts, "fission", "cycle_count %d + decay_count %d exceed %d fission rules",
			t.CycleCount, t.DecayCount, len(t.Fission))
	} else {
		for i, r := range t.CycleRules() {
			if !r.HasPartner() {
				add(ErrCodeMissingPartner, fmt.Sprintf("fission[%d].partner", i), "cycle rule %s needs a partner", r)
			}
		}
	}

	for i, s := range t.LightSlots {
		checkSlot(fmt.Sprintf("light_slots[%d]", i), s, false)
	}

	return errs
}

// Validate checks parameter ranges.
func (p Params) Validate() ConfigErrors {
	var errs ConfigErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ConfigError{Code: ErrCodeInvalidParam, Field: "params." + field, Message: fmt.Sprintf(format, args...)})
	}

	switch p.Weighting {
	case WeightingGaussian, WeightingDensity:
	default:
		add("weighting", "unknown weighting %q (want gaussian or density)", p.Weighting)
	}
	if p.Spread <= 0 {
		add("spread", "must be > 0, got %g", p.Spread)
	}
	if p.Beta <= 0 {
		add("beta", "must be > 0, got %g", p.Beta)
	}
	if p.Alpha < 0 {
		add("alpha", "must be >= 0, got %g", p.Alpha)
	}
	if p.SeedCount < 0 {
		add("seed_count", "must be >= 0, got %d", p.SeedCount)
	}
	if p.ScarcityFraction < 0 || p.ScarcityFraction > 1 {
		add("scarcity_fraction", "must be within [0, 1], got %g", p.ScarcityFraction)
	}
	if p.DecayThreshold < 0 {
		add("decay_threshold", "must be >= 0, got %d", p.DecayThreshold)
	}
	if p.CycleInterval < 0 {
		add("cycle_interval", "must be >= 0, got %d", p.CycleInterval)
	}
	if p.DecayInterval < 0 {
		add("decay_interval", "must be >= 0, got %d", p.DecayInterval)
	}
	return errs
}
