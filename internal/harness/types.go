package harness

import "github.com/ssesselmann/prime-number-fusion/internal/ir"

// StepResult summarizes one scenario step.
type StepResult struct {
	Op      string `json:"op"`
	OK      bool   `json:"ok"`      // last attempt applied (seek: target reached)
	Applied int64  `json:"applied"` // operations applied across repeats
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation and assertion holds.
	Pass bool `json:"pass"`

	// Trace contains every applied event in seq order.
	Trace []ir.Event `json:"trace"`

	// Steps holds one entry per scenario step.
	Steps []StepResult `json:"steps"`

	// Final is the state after the last step.
	Final ir.Snapshot `json:"final"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.Event{},
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addEvent appends an applied event to the trace.
func (r *Result) addEvent(ev ir.Event) {
	r.Trace = append(r.Trace, ev)
}
