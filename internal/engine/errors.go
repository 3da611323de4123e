package engine

import (
	"errors"
	"fmt"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// RuntimeError represents an error detected while the simulation runs.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeLoopStopped indicates an operation on a loop that was stopped.
	ErrCodeLoopStopped RuntimeErrorCode = "LOOP_STOPPED"

	// ErrCodeReplayMismatch indicates a replayed state differs from the
	// recorded snapshot.
	ErrCodeReplayMismatch RuntimeErrorCode = "REPLAY_MISMATCH"

	// ErrCodeBadEvent indicates a recorded event that cannot be applied to
	// the table (unknown rule, out of order seq).
	ErrCodeBadEvent RuntimeErrorCode = "BAD_EVENT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrLoopStopped is returned by Run and Start once Stop has been called.
// A stopped loop never runs again; create a new one instead.
var ErrLoopStopped = &RuntimeError{Code: ErrCodeLoopStopped, Message: "simulation loop was stopped"}

// IsReplayMismatch returns true if the error is a replay mismatch.
// Uses errors.As to handle wrapped errors.
func IsReplayMismatch(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeReplayMismatch
	}
	return false
}

// InvariantViolation reports a debit that would have driven a count
// negative. It means the inventory bookkeeping is corrupt: the operation
// is aborted, nothing is clamped.
type InvariantViolation struct {
	Op    string  // operation being applied, e.g. "fusion p1 + p1 -> p2"
	Slot  ir.Slot // slot that would go negative
	Have  int64   // count before the debit
	Debit int64   // units the operation tried to take
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s would take %d from %s holding %d",
		e.Op, e.Debit, e.Slot, e.Have)
}

// IsInvariantViolation returns true if err is (or wraps) an InvariantViolation.
func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
