package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
	"gopkg.in/yaml.v3"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// document is the on-disk shape of a rule table. Every section is written
// out in full so a reload does not depend on generator defaults.
type document struct {
	SchemaVersion string       `json:"schema_version" yaml:"schema_version"`
	Primes        []int64      `json:"primes" yaml:"primes,flow"`
	Base          string       `json:"base" yaml:"base"`
	Fusion        []fusionDoc  `json:"fusion" yaml:"fusion"`
	Cycle         []fissionDoc `json:"cycle" yaml:"cycle"`
	Decay         []fissionDoc `json:"decay" yaml:"decay"`
	LightSlots    []string     `json:"light_slots" yaml:"light_slots,flow"`
	Params        paramsDoc    `json:"params" yaml:"params"`
}

type fusionDoc struct {
	A         string `json:"a" yaml:"a"`
	B         string `json:"b" yaml:"b"`
	Result    string `json:"result" yaml:"result"`
	Remainder string `json:"remainder,omitempty" yaml:"remainder,omitempty"`
}

type fissionDoc struct {
	Source    string `json:"source" yaml:"source"`
	Partner   string `json:"partner,omitempty" yaml:"partner,omitempty"`
	Product   string `json:"product" yaml:"product"`
	Byproduct string `json:"byproduct" yaml:"byproduct"`
}

type paramsDoc struct {
	Weighting        string  `json:"weighting" yaml:"weighting"`
	Center           float64 `json:"center" yaml:"center"`
	Spread           float64 `json:"spread" yaml:"spread"`
	Alpha            float64 `json:"alpha" yaml:"alpha"`
	Beta             float64 `json:"beta" yaml:"beta"`
	Gamma            float64 `json:"gamma" yaml:"gamma"`
	SeedCount        int64   `json:"seed_count" yaml:"seed_count"`
	ScarcityFraction float64 `json:"scarcity_fraction" yaml:"scarcity_fraction"`
	DecayThreshold   int64   `json:"decay_threshold" yaml:"decay_threshold"`
	CycleInterval    int64   `json:"cycle_interval" yaml:"cycle_interval"`
	DecayInterval    int64   `json:"decay_interval" yaml:"decay_interval"`
}

func newDocument(t *ir.RuleTable, p ir.Params) document {
	doc := document{
		SchemaVersion: ir.SchemaVersion,
		Primes:        append([]int64{}, t.Primes...),
		Base:          t.Base.Name(),
		Fusion:        make([]fusionDoc, 0, len(t.Fusion)),
		Cycle:         make([]fissionDoc, 0, t.CycleCount),
		Decay:         make([]fissionDoc, 0, t.DecayCount),
		LightSlots:    make([]string, 0, len(t.LightSlots)),
		Params: paramsDoc{
			Weighting:        string(p.Weighting),
			Center:           p.Center,
			Spread:           p.Spread,
			Alpha:            p.Alpha,
			Beta:             p.Beta,
			Gamma:            p.Gamma,
			SeedCount:        p.SeedCount,
			ScarcityFraction: p.ScarcityFraction,
			DecayThreshold:   p.DecayThreshold,
			CycleInterval:    p.CycleInterval,
			DecayInterval:    p.DecayInterval,
		},
	}
	for _, r := range t.Fusion {
		doc.Fusion = append(doc.Fusion, fusionDoc{
			A:         r.A.Name(),
			B:         r.B.Name(),
			Result:    r.Result.Name(),
			Remainder: r.Remainder.Name(),
		})
	}
	for _, r := range t.CycleRules() {
		doc.Cycle = append(doc.Cycle, newFissionDoc(r))
	}
	for _, r := range t.DecayRules() {
		doc.Decay = append(doc.Decay, newFissionDoc(r))
	}
	for _, s := range t.LightSlots {
		doc.LightSlots = append(doc.LightSlots, s.Name())
	}
	return doc
}

func newFissionDoc(r ir.FissionRule) fissionDoc {
	return fissionDoc{
		Source:    r.Source.Name(),
		Partner:   r.Partner.Name(),
		Product:   r.Product.Name(),
		Byproduct: r.Byproduct.Name(),
	}
}

// Encode writes a table and its params as a document in the given format.
// The output always validates against the schema.
func Encode(t *ir.RuleTable, p ir.Params, f Format) ([]byte, error) {
	doc := newDocument(t, p)

	switch f {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return buf.Bytes(), nil

	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil

	case FormatCUE:
		v := cuecontext.New().Encode(doc)
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("encode cue: %w", err)
		}
		node := v.Syntax(cue.Final(), cue.Concrete(true))
		// Emit top-level fields rather than one braced struct.
		if s, ok := node.(*ast.StructLit); ok {
			node = &ast.File{Decls: s.Elts}
		}
		out, err := format.Node(node)
		if err != nil {
			return nil, fmt.Errorf("encode cue: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}
