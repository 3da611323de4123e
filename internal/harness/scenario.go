package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// Scenario defines a deterministic simulation test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Table is the rule table document. Relative paths are resolved
	// against the scenario file's directory. Empty selects the built-in
	// 32-prime table.
	Table string `yaml:"table,omitempty"`

	// Seed is the number of base units at start and after reset.
	// Nil selects the table's seed_count.
	Seed *int64 `yaml:"seed,omitempty"`

	// RNGSeed seeds the random source of weighted and cycle steps.
	// Zero selects testutil.DefaultSeed.
	RNGSeed uint64 `yaml:"rng_seed,omitempty"`

	// RunID is an optional fixed run ID for the recorded log.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Steps drive the engines in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and the recorded log.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one engine operation, optionally repeated.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Repeat runs the operation this many times. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`

	// Target is the seek target slot name (e.g. "p5").
	Target string `yaml:"target,omitempty"`

	// Budget is the seek fusion budget. Zero disables it.
	Budget int64 `yaml:"budget,omitempty"`

	// Slot is the mint slot name. Empty mints the base slot.
	Slot string `yaml:"slot,omitempty"`

	// Expect optionally checks the step outcome.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect specifies expected step behavior. Nil fields are not checked.
type StepExpect struct {
	// OK is whether the last attempt applied (seek: target reached).
	OK *bool `yaml:"ok,omitempty"`

	// Applied is the number of operations applied across repeats.
	Applied *int64 `yaml:"applied,omitempty"`
}

// Assertion validates the final state or the recorded log.
type Assertion struct {
	// Type specifies the assertion type (Assert* constants).
	Type string `yaml:"type"`

	// Counts maps slot names to exact expected counts (used by counts).
	// Slots not listed are not checked.
	Counts map[string]int64 `yaml:"counts,omitempty"`

	// Kind is the event kind (used by event_count).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number (used by fusions, fissions, total,
	// event_count).
	Count *int64 `yaml:"count,omitempty"`
}

// Step operation constants.
const (
	OpExhaustive = "exhaustive"
	OpWeighted   = "weighted"
	OpSeek       = "seek"
	OpCycle      = "cycle"
	OpDecay      = "decay"
	OpMint       = "mint"
	OpReset      = "reset"
)

// Assertion type constants.
const (
	AssertCounts      = "counts"
	AssertFusions     = "fusions"
	AssertFissions    = "fissions"
	AssertTotal       = "total"
	AssertEventCount  = "event_count"
	AssertNonNegative = "nonnegative"
	AssertReplay      = "replay"
)

// LoadScenario reads and parses a scenario YAML file. A relative table
// path is resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the table path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve table path relative to base path BEFORE validation
	if scenario.Table != "" && !filepath.IsAbs(scenario.Table) && basePath != "" {
		scenario.Table = filepath.Join(basePath, scenario.Table)
	}

	// Validate required fields (now with resolved paths)
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Table != "" {
		if _, err := os.Stat(s.Table); os.IsNotExist(err) {
			return fmt.Errorf("table file not found: %s", s.Table)
		}
	}

	if s.Seed != nil && *s.Seed < 0 {
		return fmt.Errorf("seed must be non-negative, got %d", *s.Seed)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its operation.
func validateStep(index int, st *Step) error {
	if st.Repeat < 0 {
		return fmt.Errorf("steps[%d]: repeat must be non-negative", index)
	}

	switch st.Op {
	case OpExhaustive, OpWeighted, OpCycle, OpDecay, OpReset:
	case OpSeek:
		if st.Target == "" && st.Budget <= 0 {
			return fmt.Errorf("steps[%d]: seek needs a target or a positive budget", index)
		}
		if st.Target != "" {
			if _, err := ir.ParseSlot(st.Target); err != nil {
				return fmt.Errorf("steps[%d]: target: %w", index, err)
			}
		}
	case OpMint:
		if st.Slot != "" {
			if _, err := ir.ParseSlot(st.Slot); err != nil {
				return fmt.Errorf("steps[%d]: slot: %w", index, err)
			}
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCounts:
		if len(a.Counts) == 0 {
			return fmt.Errorf("assertions[%d]: counts map is required for counts", index)
		}
		for name := range a.Counts {
			if _, err := ir.ParseSlot(name); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertFusions, AssertFissions, AssertTotal:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
	case AssertEventCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for event_count", index)
		}
		switch ir.EventKind(a.Kind) {
		case ir.EventFusion, ir.EventCycle, ir.EventDecay, ir.EventMint, ir.EventReset:
		default:
			return fmt.Errorf("assertions[%d]: unknown event kind %q", index, a.Kind)
		}
	case AssertNonNegative, AssertReplay:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
