package engine

import (
	"fmt"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// Replay re-applies a recorded event log to a fresh state seeded with
// seed base units and returns the resulting snapshot.
//
// Replay uses the same transfer primitive as live execution but skips the
// availability check: a recorded fusion that cannot be debited means the
// log and the table disagree, and surfaces as an *InvariantViolation.
// Events must be in strictly increasing seq order.
func Replay(table *ir.RuleTable, seed int64, events []ir.Event) (ir.Snapshot, error) {
	st := NewState(table, seed)

	var last int64
	for _, ev := range events {
		if ev.Seq <= last {
			return st.Snapshot(), badEvent(ev, fmt.Sprintf("seq not after %d", last))
		}
		if err := st.apply(ev); err != nil {
			return st.Snapshot(), fmt.Errorf("replay seq %d: %w", ev.Seq, err)
		}
		last = ev.Seq
	}

	st.clock = NewClockAt(last)
	return st.Snapshot(), nil
}

// VerifyReplay replays events and compares the result with want. Counts
// and both counters must match; LastOK is not compared.
func VerifyReplay(table *ir.RuleTable, seed int64, events []ir.Event, want ir.Snapshot) (ir.Snapshot, error) {
	got, err := Replay(table, seed, events)
	if err != nil {
		return got, err
	}

	gotHash, err := ir.SnapshotHash(got)
	if err != nil {
		return got, err
	}
	wantHash, err := ir.SnapshotHash(want)
	if err != nil {
		return got, err
	}
	if gotHash != wantHash {
		return got, &RuntimeError{
			Code:    ErrCodeReplayMismatch,
			Message: fmt.Sprintf("replayed state at seq %d differs from snapshot at seq %d", got.Seq, want.Seq),
			Details: map[string]string{
				"replayed_hash": gotHash,
				"recorded_hash": wantHash,
			},
		}
	}
	return got, nil
}
