package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps bounds a single exhaustive pass or seek run.
//
// A pass over a finite table without a self-sustaining chain always
// reaches a fixpoint; the quota turns a table that breaks this into an
// error instead of a hang.
const DefaultMaxSteps = 10_000_000

// QuotaEnforcer counts steps of one bounded operation and enforces a
// maximum.
//
// A fresh enforcer is created per exhaustive step or seek call.
type QuotaEnforcer struct {
	maxSteps int64
	current  int64
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
// A limit <= 0 selects DefaultMaxSteps.
func NewQuotaEnforcer(maxSteps int64) *QuotaEnforcer {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
//
// Returns StepsExceededError if the quota is exceeded.
func (q *QuotaEnforcer) Check(op string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			Op:    op,
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Reset resets the step counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int64 {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int64 {
	return q.maxSteps
}

// StepsExceededError is returned when an operation exceeds its step quota.
// The state keeps every change applied before the quota tripped.
type StepsExceededError struct {
	Op    string // operation that exceeded the quota ("exhaustive", "seek")
	Steps int64  // number of steps taken
	Limit int64  // maximum allowed steps
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("%s exceeded max steps quota: %d steps > %d limit",
		e.Op, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
