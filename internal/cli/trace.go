package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssesselmann/prime-number-fusion/internal/harness"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
	"github.com/ssesselmann/prime-number-fusion/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Kind     string // optional - filter to one event kind
	Limit    int    // optional - only the last N matching events
}

// TraceEvent represents a single event in the trace timeline.
type TraceEvent struct {
	Seq         int64  `json:"seq"`
	Kind        string `json:"kind"`
	Rule        int    `json:"rule"`
	Slot        string `json:"slot,omitempty"`
	Description string `json:"description"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int64            `json:"total_events"`
	ByKind      map[string]int64 `json:"by_kind"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID    string        `json:"run_id"`
	Label    string        `json:"label,omitempty"`
	Seed     int64         `json:"seed"`
	Timeline []TraceEvent  `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
	Final    *Distribution `json:"final,omitempty"`
}

// RunSummary is one line of the run listing.
type RunSummary struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	Slots     int    `json:"slots"`
	Weighting string `json:"weighting"`
	Seed      int64  `json:"seed"`
	RNGSeed   uint64 `json:"rng_seed"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded events of a run",
		Long: `Show the recorded events of a run in seq order, with the rule each
event applied, per-kind statistics and the last recorded distribution.

Without --run, lists the runs in the log.

Examples:
  fusion trace --db ./fusion.db
  fusion trace --db ./fusion.db --run 0191f3c2-... --kind decay
  fusion trace --db ./fusion.db --run 0191f3c2-... --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (default $FUSION_DB)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind (fusion|cycle|decay|mint|reset)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the last N matching events (0 = all)")

	return cmd
}

// openExistingStore opens the run log at path (or $FUSION_DB). Unlike
// store.Open it refuses to create a new database.
func openExistingStore(opts *RootOptions, formatter *OutputFormatter, path string) (*store.Store, error) {
	if path == "" {
		path = opts.Config.DB
	}
	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// readRun loads a run, reporting a missing one as a command error.
func readRun(ctx context.Context, st *store.Store, formatter *OutputFormatter, id string) (store.Run, error) {
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", id), nil)
		return run, WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return run, WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return run, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Kind != "" && !validKind(ir.EventKind(opts.Kind)) {
		msg := fmt.Sprintf("unknown event kind %q", opts.Kind)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := openExistingStore(opts.RootOptions, formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(ctx, st, formatter)
	}

	run, err := readRun(ctx, st, formatter, opts.RunID)
	if err != nil {
		return err
	}
	events, err := st.ReadEvents(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	counts, err := st.EventCounts(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to count events", err)
	}
	snap, ok, err := st.LatestSnapshot(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}

	result := TraceResult{
		RunID:    run.ID,
		Label:    run.Label,
		Seed:     run.Seed,
		Timeline: buildTimeline(run.Table, events, ir.EventKind(opts.Kind), opts.Limit),
		Stats:    TraceStats{ByKind: make(map[string]int64, len(counts))},
	}
	for kind, n := range counts {
		result.Stats.ByKind[string(kind)] = n
		result.Stats.TotalEvents += n
	}
	if ok {
		d := newDistribution(snap, ir.NoSlot)
		result.Final = &d
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputTraceText(cmd.OutOrStdout(), run.Table, result)
}

func validKind(k ir.EventKind) bool {
	switch k {
	case ir.EventFusion, ir.EventCycle, ir.EventDecay, ir.EventMint, ir.EventReset:
		return true
	}
	return false
}

// buildTimeline converts recorded events to timeline entries. A non-empty
// kind keeps only events of that kind; limit > 0 keeps the last limit.
func buildTimeline(table *ir.RuleTable, events []ir.Event, kind ir.EventKind, limit int) []TraceEvent {
	timeline := []TraceEvent{}
	for _, ev := range events {
		if kind != "" && ev.Kind != kind {
			continue
		}
		te := TraceEvent{
			Seq:         ev.Seq,
			Kind:        string(ev.Kind),
			Rule:        ev.Rule,
			Description: harness.DescribeEvent(table, ev),
		}
		if ev.Slot.Valid() {
			te.Slot = ev.Slot.Name()
		}
		timeline = append(timeline, te)
	}
	if limit > 0 && len(timeline) > limit {
		timeline = timeline[len(timeline)-limit:]
	}
	return timeline
}

// listRuns prints the runs in the log.
func listRuns(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = RunSummary{
			ID:        r.ID,
			Label:     r.Label,
			Slots:     r.Table.NumSlots(),
			Weighting: string(r.Params.Weighting),
			Seed:      r.Seed,
			RNGSeed:   r.RNGSeed,
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	for _, s := range summaries {
		printer.Fprintf(w, "%s  %d slots  %-8s seed=%d rng_seed=%d", s.ID, s.Slots, s.Weighting, s.Seed, s.RNGSeed)
		if s.Label != "" {
			fmt.Fprintf(w, "  %s", s.Label)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, table *ir.RuleTable, result TraceResult) error {
	fmt.Fprintf(w, "Trace for Run: %s\n", result.RunID)
	if result.Label != "" {
		fmt.Fprintf(w, "Label: %s\n", result.Label)
	}
	fmt.Fprintln(w)

	// Timeline section
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %-6s %s\n", ev.Seq, ev.Kind, ev.Description)
	}
	fmt.Fprintln(w)

	// Stats section
	fmt.Fprintln(w, "=== Stats ===")
	printer.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	for _, kind := range []ir.EventKind{ir.EventFusion, ir.EventCycle, ir.EventDecay, ir.EventMint, ir.EventReset} {
		if n := result.Stats.ByKind[string(kind)]; n > 0 {
			printer.Fprintf(w, "  %-13s %d\n", string(kind)+":", n)
		}
	}

	if result.Final != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "=== Final (seq %d) ===\n", result.Final.Seq)
		writeDistribution(w, table, *result.Final)
	}
	return nil
}
