package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/ssesselmann/prime-number-fusion/internal/generator"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// schemaFor compiles the #Table definition in the value's own context.
// Values from different contexts cannot be unified.
func schemaFor(ctx *cue.Context) (cue.Value, error) {
	s := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile embedded schema: %w", err)
	}
	return s.LookupPath(cue.ParsePath("#Table")), nil
}

// CompileFile loads a document from path and compiles it.
func CompileFile(path string) (*ir.RuleTable, ir.Params, error) {
	v, err := LoadFile(path)
	if err != nil {
		return nil, ir.Params{}, err
	}
	return Compile(v)
}

// Compile validates a document against the schema and builds the rule
// table and parameters it describes.
//
// Absent sections are filled in from primes: fusion rules by the rule
// generator, cycle rules from the default CNO cycle, decay rules by
// reversing the heaviest fusion rules, light slots from the default set.
// Absent params take ir.DefaultParams.
//
// Returns *CompileError for document errors and ir.ConfigErrors for a
// well-formed document describing an inconsistent table.
func Compile(v cue.Value) (*ir.RuleTable, ir.Params, error) {
	if err := v.Err(); err != nil {
		return nil, ir.Params{}, formatCUEError("document", err)
	}
	if err := checkSchemaVersion(v); err != nil {
		return nil, ir.Params{}, err
	}

	schema, err := schemaFor(v.Context())
	if err != nil {
		return nil, ir.Params{}, err
	}
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return nil, ir.Params{}, formatCUEError("schema", err)
	}

	primes, err := int64List(v.LookupPath(cue.ParsePath("primes")), "primes")
	if err != nil {
		return nil, ir.Params{}, err
	}

	t := &ir.RuleTable{Primes: primes, Base: 0}

	if b := v.LookupPath(cue.ParsePath("base")); b.Exists() {
		if t.Base, err = slotValue(b, "base"); err != nil {
			return nil, ir.Params{}, err
		}
	}

	if f := v.LookupPath(cue.ParsePath("fusion")); f.Exists() {
		t.Fusion, err = fusionRules(f)
	} else {
		t.Fusion, err = generator.Generate(primes)
	}
	if err != nil {
		return nil, ir.Params{}, err
	}

	var cycle, decay []ir.FissionRule
	if c := v.LookupPath(cue.ParsePath("cycle")); c.Exists() {
		if cycle, err = fissionRules(c, "cycle"); err != nil {
			return nil, ir.Params{}, err
		}
	} else {
		cycle = generator.CycleRules(len(primes))
	}
	if d := v.LookupPath(cue.ParsePath("decay")); d.Exists() {
		if decay, err = fissionRules(d, "decay"); err != nil {
			return nil, ir.Params{}, err
		}
	} else {
		decay = generator.DecayRules(t.Fusion, generator.DefaultDecayCount)
	}
	t.Fission = append(append([]ir.FissionRule{}, cycle...), decay...)
	t.CycleCount = len(cycle)
	t.DecayCount = len(decay)

	if l := v.LookupPath(cue.ParsePath("light_slots")); l.Exists() {
		if t.LightSlots, err = slotList(l, "light_slots"); err != nil {
			return nil, ir.Params{}, err
		}
	} else {
		t.LightSlots = generator.LightSlots(len(primes))
	}

	params := ir.DefaultParams()
	if p := v.LookupPath(cue.ParsePath("params")); p.Exists() {
		if err := decodeParams(p, &params); err != nil {
			return nil, ir.Params{}, err
		}
	}

	errs := t.Validate()
	errs = append(errs, params.Validate()...)
	if len(errs) > 0 {
		return nil, ir.Params{}, errs
	}
	return t, params, nil
}

func checkSchemaVersion(v cue.Value) error {
	sv := v.LookupPath(cue.ParsePath("schema_version"))
	if !sv.Exists() {
		return ir.ConfigError{
			Code:    ir.ErrCodeSchemaVersion,
			Field:   "schema_version",
			Message: fmt.Sprintf("missing (want %q)", ir.SchemaVersion),
		}
	}
	got, err := sv.String()
	if err != nil {
		return formatCUEError("schema_version", err)
	}
	if got != ir.SchemaVersion {
		return ir.ConfigError{
			Code:    ir.ErrCodeSchemaVersion,
			Field:   "schema_version",
			Message: fmt.Sprintf("unsupported version %q (want %q)", got, ir.SchemaVersion),
		}
	}
	return nil
}

func slotValue(v cue.Value, field string) (ir.Slot, error) {
	name, err := v.String()
	if err != nil {
		return ir.NoSlot, formatCUEError(field, err)
	}
	s, err := ir.ParseSlot(name)
	if err != nil {
		return ir.NoSlot, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

// slotField reads a named slot field of a rule. Absent optional fields
// yield NoSlot.
func slotField(rule cue.Value, name, prefix string, required bool) (ir.Slot, error) {
	f := rule.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		if required {
			return ir.NoSlot, &CompileError{Field: prefix + "." + name, Message: "field is required", Pos: rule.Pos()}
		}
		return ir.NoSlot, nil
	}
	return slotValue(f, prefix+"."+name)
}

func slotList(v cue.Value, field string) ([]ir.Slot, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(field, err)
	}
	out := []ir.Slot{}
	for i := 0; iter.Next(); i++ {
		s, err := slotValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func int64List(v cue.Value, field string) ([]int64, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(field, err)
	}
	var out []int64
	for i := 0; iter.Next(); i++ {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, formatCUEError(fmt.Sprintf("%s[%d]", field, i), err)
		}
		out = append(out, n)
	}
	return out, nil
}

func fusionRules(v cue.Value) ([]ir.FusionRule, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError("fusion", err)
	}
	var out []ir.FusionRule
	for i := 0; iter.Next(); i++ {
		rv := iter.Value()
		prefix := fmt.Sprintf("fusion[%d]", i)
		var r ir.FusionRule
		if r.A, err = slotField(rv, "a", prefix, true); err != nil {
			return nil, err
		}
		if r.B, err = slotField(rv, "b", prefix, true); err != nil {
			return nil, err
		}
		if r.Result, err = slotField(rv, "result", prefix, true); err != nil {
			return nil, err
		}
		if r.Remainder, err = slotField(rv, "remainder", prefix, false); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// fissionRules reads cycle or decay rules. Only decay rules may omit the
// partner; the schema enforces that.
func fissionRules(v cue.Value, field string) ([]ir.FissionRule, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(field, err)
	}
	out := []ir.FissionRule{}
	for i := 0; iter.Next(); i++ {
		rv := iter.Value()
		prefix := fmt.Sprintf("%s[%d]", field, i)
		var r ir.FissionRule
		if r.Source, err = slotField(rv, "source", prefix, true); err != nil {
			return nil, err
		}
		if r.Partner, err = slotField(rv, "partner", prefix, false); err != nil {
			return nil, err
		}
		if r.Product, err = slotField(rv, "product", prefix, true); err != nil {
			return nil, err
		}
		if r.Byproduct, err = slotField(rv, "byproduct", prefix, true); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// decodeParams overrides fields of p that the document sets.
func decodeParams(v cue.Value, p *ir.Params) error {
	if w := v.LookupPath(cue.ParsePath("weighting")); w.Exists() {
		s, err := w.String()
		if err != nil {
			return formatCUEError("params.weighting", err)
		}
		p.Weighting = ir.WeightingKind(s)
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"center", &p.Center},
		{"spread", &p.Spread},
		{"alpha", &p.Alpha},
		{"beta", &p.Beta},
		{"gamma", &p.Gamma},
		{"scarcity_fraction", &p.ScarcityFraction},
	}
	for _, f := range floats {
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			continue
		}
		x, err := fv.Float64()
		if err != nil {
			return formatCUEError("params."+f.name, err)
		}
		*f.dst = x
	}

	ints := []struct {
		name string
		dst  *int64
	}{
		{"seed_count", &p.SeedCount},
		{"decay_threshold", &p.DecayThreshold},
		{"cycle_interval", &p.CycleInterval},
		{"decay_interval", &p.DecayInterval},
	}
	for _, f := range ints {
		iv := v.LookupPath(cue.ParsePath(f.name))
		if !iv.Exists() {
			continue
		}
		x, err := iv.Int64()
		if err != nil {
			return formatCUEError("params."+f.name, err)
		}
		*f.dst = x
	}
	return nil
}
