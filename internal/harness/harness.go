package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/ssesselmann/prime-number-fusion/internal/compiler"
	"github.com/ssesselmann/prime-number-fusion/internal/engine"
	"github.com/ssesselmann/prime-number-fusion/internal/generator"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
	"github.com/ssesselmann/prime-number-fusion/internal/store"
	"github.com/ssesselmann/prime-number-fusion/internal/testutil"
)

// DefaultPrimeCount is the size of the built-in table used when a
// scenario names none.
const DefaultPrimeCount = 32

// Harness is the scenario execution engine.
// It drives one State with deterministic randomness.
type Harness struct {
	state   *engine.State
	fusion  engine.FusionEngine
	fission engine.FissionEngine
	rng     *rand.Rand
	logger  *slog.Logger
}

// LoadTable compiles the table document at path, or builds the default
// 32-prime table with default params when path is empty.
func LoadTable(path string) (*ir.RuleTable, ir.Params, error) {
	if path == "" {
		t, err := generator.Table(generator.FirstPrimes(DefaultPrimeCount))
		if err != nil {
			return nil, ir.Params{}, err
		}
		return t, ir.DefaultParams(), nil
	}
	return compiler.CompileFile(path)
}

// Run executes a scenario and returns the result.
//
// Each scenario records into a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile the rule table and seed the inventory
// 2. Execute steps, checking step expectations
// 3. Record the trace and final snapshot to the run log
// 4. Evaluate assertions against the result and the log
//
// An error is returned only when the scenario cannot execute at all
// (bad table, invariant violation, storage failure). Failed expectations
// are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	table, params, err := LoadTable(scenario.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to load table: %w", err)
	}
	seed := params.SeedCount
	if scenario.Seed != nil {
		seed = *scenario.Seed
	}
	rngSeed := scenario.RNGSeed
	if rngSeed == 0 {
		rngSeed = testutil.DefaultSeed
	}

	// Create fresh in-memory SQLite database
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	runID := testutil.NewFixedRunIDGenerator(scenario.RunID).Generate()
	if err := st.CreateRun(ctx, store.Run{
		ID:      runID,
		Table:   table,
		Params:  params,
		Seed:    seed,
		RNGSeed: rngSeed,
		Label:   scenario.Name,
	}); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	result := NewResult()
	state := engine.NewState(table, seed)
	state.SetObserver(result.addEvent)

	h := &Harness{
		state:   state,
		fusion:  engine.NewFusionEngine(params),
		fission: engine.NewFissionEngine(params),
		rng:     testutil.NewRNG(rngSeed),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	for i, step := range scenario.Steps {
		if err := h.executeStep(i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}
	result.Final = state.Snapshot()

	if err := st.WriteEvents(ctx, runID, result.Trace); err != nil {
		return nil, fmt.Errorf("failed to record events: %w", err)
	}
	if err := st.WriteSnapshot(ctx, runID, result.Final); err != nil {
		return nil, fmt.Errorf("failed to record snapshot: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
		RunID: runID,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep runs one step (with repeats) and checks its expectation.
func (h *Harness) executeStep(index int, step Step, result *Result) error {
	repeat := max(step.Repeat, 1)
	sr := StepResult{Op: step.Op}

	for range repeat {
		ok, applied, err := h.apply(step)
		if err != nil {
			return err
		}
		sr.OK = ok
		sr.Applied += applied
	}
	result.Steps = append(result.Steps, sr)

	if exp := step.Expect; exp != nil {
		if exp.OK != nil && *exp.OK != sr.OK {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected ok=%t, got ok=%t", index, step.Op, *exp.OK, sr.OK))
		}
		if exp.Applied != nil && *exp.Applied != sr.Applied {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected applied=%d, got applied=%d", index, step.Op, *exp.Applied, sr.Applied))
		}
	}

	h.logger.Info("step completed",
		"step", index,
		"op", step.Op,
		"ok", sr.OK,
		"applied", sr.Applied,
	)
	return nil
}

// apply performs a single attempt of step.
func (h *Harness) apply(step Step) (ok bool, applied int64, err error) {
	switch step.Op {
	case OpExhaustive:
		n, err := h.fusion.StepExhaustive(h.state)
		return n > 0, n, err
	case OpWeighted:
		ok, err = h.fusion.Weighted(h.state, h.rng)
	case OpSeek:
		target := ir.NoSlot
		if step.Target != "" {
			if target, err = h.slot(step.Target); err != nil {
				return false, 0, err
			}
		}
		res, err := h.fusion.Seek(h.state, target, step.Budget)
		return res.Reached, res.Fusions, err
	case OpCycle:
		ok, err = h.fission.Cycle(h.state, h.rng)
	case OpDecay:
		ok, err = h.fission.Decay(h.state)
	case OpMint:
		slot := h.state.Table().Base
		if step.Slot != "" {
			if slot, err = h.slot(step.Slot); err != nil {
				return false, 0, err
			}
		}
		h.state.Mint(slot)
		ok = true
	case OpReset:
		h.state.Reset()
		ok = true
	default:
		return false, 0, fmt.Errorf("unknown op %q", step.Op)
	}
	if ok {
		applied = 1
	}
	return ok, applied, err
}

// slot parses a slot name and checks it exists in the table.
func (h *Harness) slot(name string) (ir.Slot, error) {
	s, err := ir.ParseSlot(name)
	if err != nil {
		return ir.NoSlot, err
	}
	if n := h.state.Table().NumSlots(); int(s) >= n {
		return ir.NoSlot, fmt.Errorf("slot %s outside table of %d slots", s, n)
	}
	return s, nil
}
