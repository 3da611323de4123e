package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssesselmann/prime-number-fusion/internal/engine"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// SimOptions are the flags shared by the one-shot simulation commands.
type SimOptions struct {
	*RootOptions
	Table       TableSource
	Seed        int64 // base units at start; < 0 selects params.seed_count
	ExcludeBase bool
	MaxSteps    int64
}

func (o *SimOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Table.Path, "table", "t", "", "rule table document (default $FUSION_TABLE, else generated)")
	cmd.Flags().IntVarP(&o.Table.Primes, "primes", "n", DefaultPrimes, "number of primes when the table is generated")
	cmd.Flags().Int64Var(&o.Seed, "seed", -1, "base units at start (default params.seed_count)")
	cmd.Flags().BoolVar(&o.ExcludeBase, "exclude-base", false, "leave the base slot out of the distribution")
	cmd.Flags().Int64Var(&o.MaxSteps, "max-steps", 0, "fusion quota per pass (0 = engine default)")
}

// newState loads the table and seeds a fresh state.
func (o *SimOptions) newState() (*engine.State, ir.Params, error) {
	table, params, err := loadTable(o.RootOptions, o.Table)
	if err != nil {
		return nil, ir.Params{}, err
	}
	seed := params.SeedCount
	if o.Seed >= 0 {
		seed = o.Seed
	}
	return engine.NewState(table, seed), params, nil
}

func (o *SimOptions) skip(table *ir.RuleTable) ir.Slot {
	if o.ExcludeBase {
		return table.Base
	}
	return ir.NoSlot
}

// simError reports a failure of a one-shot simulation command.
func simError(formatter *OutputFormatter, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		_ = formatter.Error(le.Code, le.Message, nil)
		return WrapExitError(ExitCommandError, "failed to load table", err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitFailure, "simulation failed", err)
}

// StepOptions holds flags for the step command.
type StepOptions struct {
	SimOptions
	Steps int
}

// StepResult holds the step command output.
type StepResult struct {
	Steps        int          `json:"steps"`
	Applied      []int64      `json:"applied"` // fusions per time step
	Distribution Distribution `json:"distribution"`
}

// NewStepCommand creates the step command.
func NewStepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StepOptions{SimOptions: SimOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "step",
		Short: "Run exhaustive time steps and print the distribution",
		Long: `Run a fixed number of exhaustive time steps. Each step applies the first
available fusion rule, restarting from the top after every success, until
nothing fires; then one base unit is added.

Examples:
  fusion step --steps 100
  fusion step --table table.yaml --steps 10 --seed 1 --exclude-base`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(opts, cmd)
		},
	}

	opts.bind(cmd)
	cmd.Flags().IntVarP(&opts.Steps, "steps", "s", 1, "number of time steps")

	return cmd
}

func runStep(opts *StepOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Steps < 0 {
		msg := fmt.Sprintf("--steps must be non-negative, got %d", opts.Steps)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, params, err := opts.newState()
	if err != nil {
		return simError(formatter, err)
	}
	fe := engine.NewFusionEngine(params)
	fe.MaxSteps = opts.MaxSteps

	result := StepResult{Steps: opts.Steps, Applied: make([]int64, 0, opts.Steps)}
	for i := range opts.Steps {
		n, err := fe.StepExhaustive(st)
		if err != nil {
			return simError(formatter, fmt.Errorf("step %d: %w", i+1, err))
		}
		result.Applied = append(result.Applied, n)
		formatter.VerboseLog("step %d: %d fusions", i+1, n)
	}

	table := st.Table()
	result.Distribution = newDistribution(st.Snapshot(), opts.skip(table))

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	printer.Fprintf(w, "After %d steps:\n", result.Steps)
	writeDistribution(w, table, result.Distribution)
	return nil
}
