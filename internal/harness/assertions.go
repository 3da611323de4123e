package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ssesselmann/prime-number-fusion/internal/engine"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
	"github.com/ssesselmann/prime-number-fusion/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Final    ir.Snapshot // Final state for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Final state for context
	fmt.Fprintf(&buf, "\nFinal state (seq %d): fusions=%d fissions=%d\n", e.Final.Seq, e.Final.Fusions, e.Final.Fissions)
	for _, sc := range e.Final.NonZero(ir.NoSlot) {
		fmt.Fprintf(&buf, "  %s = %d\n", sc.Slot, sc.Count)
	}

	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
	RunID string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides run log access for event_count and replay.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertCounts:
		return assertCounts(result.Final, a)
	case AssertFusions:
		return assertNumber(result.Final, a, "fusions", result.Final.Fusions)
	case AssertFissions:
		return assertNumber(result.Final, a, "fissions", result.Final.Fissions)
	case AssertTotal:
		return assertNumber(result.Final, a, "total", result.Final.Total())
	case AssertNonNegative:
		return assertNonNegative(result.Final)
	case AssertEventCount:
		if actx == nil || actx.Store == nil {
			return fmt.Errorf("event_count requires a run log")
		}
		return assertEventCount(actx, result.Final, a)
	case AssertReplay:
		if actx == nil || actx.Store == nil {
			return fmt.Errorf("replay requires a run log")
		}
		return assertReplay(actx, result.Final)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertCounts checks the listed slots hold exactly the expected counts.
// Slots are checked in name order so the first failure is deterministic.
func assertCounts(final ir.Snapshot, a Assertion) error {
	names := make([]string, 0, len(a.Counts))
	for name := range a.Counts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s, err := ir.ParseSlot(name)
		if err != nil {
			return err
		}
		var got int64
		if int(s) < len(final.Counts) {
			got = final.Counts[s]
		}
		if want := a.Counts[name]; got != want {
			return &AssertionError{
				Type:     AssertCounts,
				Expected: fmt.Sprintf("%s = %d", name, want),
				Actual:   fmt.Sprintf("%s = %d", name, got),
				Final:    final,
			}
		}
	}
	return nil
}

func assertNumber(final ir.Snapshot, a Assertion, what string, got int64) error {
	if got != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s = %d", what, *a.Count),
			Actual:   fmt.Sprintf("%s = %d", what, got),
			Final:    final,
		}
	}
	return nil
}

func assertNonNegative(final ir.Snapshot) error {
	for i, c := range final.Counts {
		if c < 0 {
			return &AssertionError{
				Type:     AssertNonNegative,
				Expected: "all counts >= 0",
				Actual:   fmt.Sprintf("%s = %d", ir.Slot(i), c),
				Final:    final,
			}
		}
	}
	return nil
}

// assertEventCount queries the run log for the number of events of a kind.
func assertEventCount(actx *AssertionContext, final ir.Snapshot, a Assertion) error {
	counts, err := actx.Store.EventCounts(actx.Ctx, actx.RunID)
	if err != nil {
		return fmt.Errorf("query event counts: %w", err)
	}
	if got := counts[ir.EventKind(a.Kind)]; got != *a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d %s events", *a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d %s events", got, a.Kind),
			Final:    final,
		}
	}
	return nil
}

// assertReplay reads the run back from the log and replays it from the
// seed inventory; the result must match the recorded final snapshot.
func assertReplay(actx *AssertionContext, final ir.Snapshot) error {
	run, err := actx.Store.ReadRun(actx.Ctx, actx.RunID)
	if err != nil {
		return err
	}
	events, err := actx.Store.ReadEvents(actx.Ctx, actx.RunID)
	if err != nil {
		return err
	}
	snap, ok, err := actx.Store.LatestSnapshot(actx.Ctx, actx.RunID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no recorded snapshot for run %s", actx.RunID)
	}
	if _, err := engine.VerifyReplay(run.Table, run.Seed, events, snap); err != nil {
		return &AssertionError{
			Type:     AssertReplay,
			Expected: "recorded log replays to the final snapshot",
			Actual:   err.Error(),
			Final:    final,
		}
	}
	return nil
}
