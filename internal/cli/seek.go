package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssesselmann/prime-number-fusion/internal/engine"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// SeekOptions holds flags for the seek command.
type SeekOptions struct {
	SimOptions
	Target  string
	Fusions int64
}

// SeekOutput holds the seek command output.
type SeekOutput struct {
	Target       string            `json:"target,omitempty"`
	Result       engine.SeekResult `json:"result"`
	Distribution Distribution      `json:"distribution"`
}

// NewSeekCommand creates the seek command.
func NewSeekCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeekOptions{SimOptions: SimOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "seek",
		Short: "Apply rules in priority order until a target is reached",
		Long: `Apply fusion rules in table order until the target slot holds a unit
or the given number of fusions has been applied. Base units are added
whenever nothing can fire and more of them would help.

Exit codes:
  0 - Target reached
  1 - Seeking stalled before the target
  2 - Command error

Examples:
  fusion seek --target p20
  fusion seek --fusions 5000 --seed 0 --exclude-base`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeek(opts, cmd)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Target, "target", "", "target slot, e.g. p20")
	cmd.Flags().Int64Var(&opts.Fusions, "fusions", 0, "stop after this many successful fusions")

	return cmd
}

func runSeek(opts *SeekOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Target == "" && opts.Fusions <= 0 {
		msg := "seek needs --target or a positive --fusions"
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, params, err := opts.newState()
	if err != nil {
		return simError(formatter, err)
	}
	table := st.Table()

	target := ir.NoSlot
	if opts.Target != "" {
		if target, err = parseSlotFlag(table, "target", opts.Target); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid target", err)
		}
	}

	fe := engine.NewFusionEngine(params)
	fe.MaxSteps = opts.MaxSteps
	res, err := fe.Seek(st, target, opts.Fusions)
	if err != nil {
		return simError(formatter, err)
	}

	out := SeekOutput{
		Target:       opts.Target,
		Result:       res,
		Distribution: newDistribution(st.Snapshot(), opts.skip(table)),
	}

	var exitErr error
	if !res.Reached {
		exitErr = NewExitError(ExitFailure, fmt.Sprintf("seek stalled after %d fusions", res.Fusions))
	}

	if opts.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
		return exitErr
	}

	w := cmd.OutOrStdout()
	if res.Reached {
		printer.Fprintf(w, "✓ Reached after %d fusions (%d attempts, %d base units added)\n", res.Fusions, res.Attempts, res.Mints)
	} else {
		printer.Fprintf(w, "✗ Stalled after %d fusions (%d attempts, %d base units added)\n", res.Fusions, res.Attempts, res.Mints)
	}
	writeDistribution(w, table, out.Distribution)
	return exitErr
}
