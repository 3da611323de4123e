package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// LoopStatus is the run state of a Loop: Idle -> Running -> Stopped, with
// Running and Idle toggled by Start and Pause.
type LoopStatus int

const (
	// LoopIdle performs no mutation and blocks until started.
	LoopIdle LoopStatus = iota
	// LoopRunning performs one weighted fusion attempt per iteration.
	LoopRunning
	// LoopStopped is terminal.
	LoopStopped
)

// String implements fmt.Stringer.
func (s LoopStatus) String() string {
	switch s {
	case LoopIdle:
		return "idle"
	case LoopRunning:
		return "running"
	case LoopStopped:
		return "stopped"
	default:
		return fmt.Sprintf("LoopStatus(%d)", int(s))
	}
}

// Recorder persists applied events and snapshots of a run.
// *store.Store implements it.
type Recorder interface {
	WriteEvents(ctx context.Context, runID string, events []ir.Event) error
	WriteSnapshot(ctx context.Context, runID string, snap ir.Snapshot) error
}

// DefaultFlushEvery is the number of buffered events that triggers a
// recorder flush.
const DefaultFlushEvery = 512

// Loop is the single writer of a simulation State.
//
// Run performs one weighted fusion attempt per iteration while the loop
// is running. After every CycleInterval-th (and DecayInterval-th)
// successful fusion it triggers the CNO cycle (and heavy decay), if
// enabled. While idle Run blocks on a wake signal instead of polling.
//
// Thread-safety model:
//   - Run(): must be called from exactly one goroutine, at most once
//   - every other method: safe from any goroutine
//
// The state is guarded by one mutex, so Snapshot and Reset never observe
// a half-applied operation.
type Loop struct {
	mu       sync.Mutex
	st       *State
	params   ir.Params
	fusion   FusionEngine
	fission  FissionEngine
	rng      *rand.Rand
	status   LoopStatus
	ran      bool
	wake     chan struct{} // buffered, size 1
	stopped  chan struct{}
	cycleOn  bool
	decayOn  bool
	triggers int64 // successful fusions since start or reset

	limit int64 // attempts before Run stops itself; 0 = unbounded
	tries int64

	rec        Recorder
	runID      string
	pending    []ir.Event
	flushEvery int
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithRNG sets the random source. The default is seeded from the runtime.
func WithRNG(rng *rand.Rand) LoopOption {
	return func(l *Loop) {
		l.rng = rng
	}
}

// WithRecorder records every applied event and a snapshot at each flush
// under runID.
func WithRecorder(rec Recorder, runID string) LoopOption {
	return func(l *Loop) {
		l.rec = rec
		l.runID = runID
	}
}

// WithFlushEvery sets how many events are buffered before a flush.
func WithFlushEvery(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.flushEvery = n
		}
	}
}

// WithAttemptLimit makes Run stop the loop after n fusion attempts.
// Used for fixed-length runs and tests.
func WithAttemptLimit(n int64) LoopOption {
	return func(l *Loop) {
		l.limit = n
	}
}

// WithMaxSteps sets the step quota of the fusion engine.
func WithMaxSteps(n int64) LoopOption {
	return func(l *Loop) {
		l.fusion.MaxSteps = n
	}
}

// NewLoop validates table and params and returns an idle loop seeded
// with params.SeedCount base units. An invalid configuration is returned
// as ir.ConfigErrors; the loop never starts with it.
func NewLoop(table *ir.RuleTable, params ir.Params, opts ...LoopOption) (*Loop, error) {
	errs := append(table.Validate(), params.Validate()...)
	if len(errs) > 0 {
		return nil, errs
	}

	l := &Loop{
		st:         NewState(table, params.SeedCount),
		params:     params,
		fusion:     NewFusionEngine(params),
		fission:    NewFissionEngine(params),
		status:     LoopIdle,
		wake:       make(chan struct{}, 1),
		stopped:    make(chan struct{}),
		cycleOn:    true,
		decayOn:    true,
		flushEvery: DefaultFlushEvery,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if l.rec != nil {
		l.st.SetObserver(func(ev ir.Event) {
			l.pending = append(l.pending, ev)
		})
	}
	return l, nil
}

// signal wakes Run without blocking; the buffer of 1 coalesces signals.
func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Start moves an idle loop to running.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status == LoopStopped {
		return ErrLoopStopped
	}
	l.status = LoopRunning
	l.signal()
	return nil
}

// Pause moves a running loop to idle. Pausing a stopped loop is a no-op.
func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status == LoopRunning {
		l.status = LoopIdle
		l.signal()
	}
}

// Stop terminates the loop permanently. Run returns after finishing its
// current iteration.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Loop) stopLocked() {
	if l.status == LoopStopped {
		return
	}
	l.status = LoopStopped
	close(l.stopped)
}

// Done returns a channel closed once the loop is stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}

// Status returns the current run state.
func (l *Loop) Status() LoopStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Reset restores the seed inventory and zeroes the counters and fission
// triggers. It runs under the loop mutex, serialized with every
// iteration.
func (l *Loop) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.st.Reset()
	l.triggers = 0
	slog.Info("simulation reset", "seed", l.st.Seed())
}

// Snapshot returns a consistent copy of the state.
func (l *Loop) Snapshot() ir.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.Snapshot()
}

// Params returns the current parameters.
func (l *Loop) Params() ir.Params {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params
}

// SetGaussian switches to Gaussian-by-position weighting with the given
// center and spread. The distribution is recomputed on the next attempt.
func (l *Loop) SetGaussian(center, spread float64) error {
	if spread <= 0 {
		return ir.ConfigError{
			Code:    ir.ErrCodeInvalidParam,
			Field:   "params.spread",
			Message: fmt.Sprintf("must be > 0, got %g", spread),
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.params.Weighting = ir.WeightingGaussian
	l.params.Center = center
	l.params.Spread = spread
	l.fusion.Weighting = Gaussian{Center: center, Spread: spread}
	return nil
}

// SetCycleEnabled turns the CNO cycle trigger on or off.
func (l *Loop) SetCycleEnabled(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cycleOn = on
}

// SetDecayEnabled turns the heavy decay trigger on or off.
func (l *Loop) SetDecayEnabled(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decayOn = on
}

// Run drives the simulation until Stop is called, ctx is cancelled, the
// attempt limit is reached or an invariant violation aborts it.
//
// CRITICAL: Must be called from exactly ONE goroutine, once. A stopped
// loop cannot be restarted.
//
// ERROR HANDLING: a failed attempt is not an error; the loop simply tries
// again. An InvariantViolation stops the loop and is returned.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.ran || l.status == LoopStopped {
		l.mu.Unlock()
		return ErrLoopStopped
	}
	l.ran = true
	l.mu.Unlock()

	slog.Info("loop started", "run_id", l.runID, "seed", l.st.Seed(), "weighting", l.params.Weighting)
	defer l.Stop()

	for {
		l.mu.Lock()
		status := l.status
		if status == LoopRunning {
			err := l.tickLocked()
			limitHit := l.limit > 0 && l.tries >= l.limit
			if err == nil && limitHit {
				l.stopLocked()
			}
			l.mu.Unlock()
			if err != nil {
				slog.Error("simulation aborted", "error", err, "run_id", l.runID)
				return l.finish(ctx, err)
			}
			if err := l.maybeFlush(ctx, false); err != nil {
				return err
			}
			if limitHit {
				slog.Info("loop stopping: attempt limit reached", "attempts", l.limit)
				return l.finish(ctx, nil)
			}
			select {
			case <-ctx.Done():
				slog.Info("loop stopping: context cancelled")
				return l.finish(ctx, ctx.Err())
			default:
			}
			continue
		}
		l.mu.Unlock()

		if status == LoopStopped {
			slog.Info("loop stopping: stopped")
			return l.finish(ctx, nil)
		}

		// Idle: flush what we have, then block until woken.
		if err := l.maybeFlush(ctx, true); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			slog.Info("loop stopping: context cancelled")
			return l.finish(ctx, ctx.Err())
		case <-l.stopped:
		case <-l.wake:
		}
	}
}

// tickLocked performs one fusion attempt and the fission triggers it
// unlocks. Caller holds l.mu.
func (l *Loop) tickLocked() error {
	l.tries++
	ok, err := l.fusion.Weighted(l.st, l.rng)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	l.triggers++
	if l.cycleOn && l.params.CycleInterval > 0 && l.triggers%l.params.CycleInterval == 0 {
		if _, err := l.fission.Cycle(l.st, l.rng); err != nil {
			return err
		}
	}
	if l.decayOn && l.params.DecayInterval > 0 && l.triggers%l.params.DecayInterval == 0 {
		if _, err := l.fission.Decay(l.st); err != nil {
			return err
		}
	}
	return nil
}

// maybeFlush writes buffered events to the recorder once enough have
// accumulated, or unconditionally when force is set.
func (l *Loop) maybeFlush(ctx context.Context, force bool) error {
	if l.rec == nil {
		return nil
	}
	l.mu.Lock()
	if len(l.pending) == 0 || (!force && len(l.pending) < l.flushEvery) {
		l.mu.Unlock()
		return nil
	}
	events := l.pending
	l.pending = nil
	snap := l.st.Snapshot()
	l.mu.Unlock()

	if err := l.rec.WriteEvents(ctx, l.runID, events); err != nil {
		return fmt.Errorf("record events: %w", err)
	}
	if err := l.rec.WriteSnapshot(ctx, l.runID, snap); err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	slog.Debug("recorded events", "run_id", l.runID, "count", len(events), "seq", snap.Seq)
	return nil
}

// finish flushes remaining events and returns cause. A cancelled ctx
// still gets a final flush on a fresh context.
func (l *Loop) finish(ctx context.Context, cause error) error {
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := l.maybeFlush(ctx, true); err != nil && cause == nil {
		cause = err
	}
	snap := l.Snapshot()
	slog.Info("loop finished",
		"run_id", l.runID,
		"fusions", snap.Fusions,
		"fissions", snap.Fissions,
		"total", snap.Total(),
	)
	return cause
}
