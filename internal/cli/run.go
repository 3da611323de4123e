package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssesselmann/prime-number-fusion/internal/engine"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
	"github.com/ssesselmann/prime-number-fusion/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	SimOptions
	Database   string
	Attempts   int64
	RNGSeed    uint64
	Label      string
	Weighting  string
	Center     float64
	Spread     float64
	NoCycle    bool
	NoDecay    bool
	FlushEvery int

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunOutput holds the run command output.
type RunOutput struct {
	RunID        string       `json:"run_id"`
	Attempts     int64        `json:"attempts,omitempty"`
	Database     string       `json:"database"`
	Distribution Distribution `json:"distribution"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{SimOptions: SimOptions{RootOptions: rootOpts}})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the weighted simulation loop and record it",
		Long: `Run the simulation loop: one weighted fusion attempt per iteration, with
the CNO cycle and heavy decay triggered every cycle_interval and
decay_interval successful fusions.

Every applied operation is recorded to the SQLite run log, so the run can
be traced and replayed later. Without --attempts the loop runs until
interrupted (Ctrl-C).

Examples:
  fusion run --attempts 1000000
  fusion run --db ./runs.db --table table.yaml --rng-seed 7 --label baseline
  fusion run --attempts 50000 --center 12 --spread 3 --no-decay`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, cmd)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (default $FUSION_DB)")
	cmd.Flags().Int64Var(&opts.Attempts, "attempts", 0, "stop after this many fusion attempts (0 = until interrupted)")
	cmd.Flags().Uint64Var(&opts.RNGSeed, "rng-seed", 0, "random source seed (default $FUSION_RNG_SEED)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "free-form run label")
	cmd.Flags().StringVar(&opts.Weighting, "weighting", "", "override weighting (gaussian|density)")
	cmd.Flags().Float64Var(&opts.Center, "center", 0, "Gaussian center rule index (implies --weighting gaussian)")
	cmd.Flags().Float64Var(&opts.Spread, "spread", 0, "Gaussian spread (implies --weighting gaussian)")
	cmd.Flags().BoolVar(&opts.NoCycle, "no-cycle", false, "disable the CNO cycle trigger")
	cmd.Flags().BoolVar(&opts.NoDecay, "no-decay", false, "disable the heavy decay trigger")
	cmd.Flags().IntVar(&opts.FlushEvery, "flush-every", engine.DefaultFlushEvery, "events buffered before each write to the run log")

	return cmd
}

func runSimulation(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	table, params, err := loadTable(opts.RootOptions, opts.Table)
	if err != nil {
		return simError(formatter, err)
	}
	if err := opts.applyOverrides(cmd, &params); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid parameters", err)
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.DB
	}
	rngSeed := opts.RNGSeed
	if !cmd.Flags().Changed("rng-seed") {
		rngSeed = opts.Config.RNGSeed
	}

	// Open database (create if not exists)
	slog.Info("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ids := opts.RunIDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	runID := ids.Generate()

	loop, err := engine.NewLoop(table, params,
		engine.WithRNG(rand.New(rand.NewPCG(rngSeed, 0))),
		engine.WithRecorder(st, runID),
		engine.WithFlushEvery(opts.FlushEvery),
		engine.WithAttemptLimit(opts.Attempts),
		engine.WithMaxSteps(opts.MaxSteps),
	)
	if err != nil {
		return simError(formatter, err)
	}
	loop.SetCycleEnabled(!opts.NoCycle)
	loop.SetDecayEnabled(!opts.NoDecay)

	// Parent context cancelled (e.g., from test) also stops the loop
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	if err := st.CreateRun(ctx, store.Run{
		ID:      runID,
		Table:   table,
		Params:  params,
		Seed:    params.SeedCount,
		RNGSeed: rngSeed,
		Label:   opts.Label,
	}); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			loop.Stop()
		case <-ctx.Done():
		}
	}()

	if err := loop.Start(); err != nil {
		return WrapExitError(ExitFailure, "loop error", err)
	}
	if opts.Attempts == 0 && opts.Format != "json" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Run %s started. Press Ctrl-C to stop.\n", runID)
	}

	runErr := loop.Run(ctx)
	snap := loop.Snapshot()
	out := RunOutput{
		RunID:        runID,
		Attempts:     opts.Attempts,
		Database:     dbPath,
		Distribution: newDistribution(snap, opts.skip(table)),
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		details := map[string]any{"run_id": runID, "seq": snap.Seq}
		if engine.IsInvariantViolation(runErr) {
			_ = formatter.Error(ErrCodeInvariant, runErr.Error(), details)
		} else {
			_ = formatter.Error(ErrCodeGeneric, runErr.Error(), details)
		}
		return WrapExitError(ExitFailure, "simulation aborted", runErr)
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s\n", runID)
	writeDistribution(w, table, out.Distribution)
	return nil
}

// applyOverrides folds the weighting flags into params and validates the
// result.
func (o *RunOptions) applyOverrides(cmd *cobra.Command, p *ir.Params) error {
	if o.Weighting != "" {
		p.Weighting = ir.WeightingKind(o.Weighting)
	}
	if cmd.Flags().Changed("center") {
		p.Weighting = ir.WeightingGaussian
		p.Center = o.Center
	}
	if cmd.Flags().Changed("spread") {
		p.Weighting = ir.WeightingGaussian
		p.Spread = o.Spread
	}
	if o.Seed >= 0 {
		p.SeedCount = o.Seed
	}
	return p.Validate().Err()
}
