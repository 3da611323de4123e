package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssesselmann/prime-number-fusion/internal/compiler"
	"github.com/ssesselmann/prime-number-fusion/internal/generator"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Primes int
	Output string // output file path; empty writes the document to stdout
	As     string // document format; inferred from Output when empty
}

// GenerateResult summarizes a generated table.
type GenerateResult struct {
	Primes       int    `json:"primes"`
	LargestPrime int64  `json:"largest_prime"`
	FusionRules  int    `json:"fusion_rules"`
	CycleRules   int    `json:"cycle_rules"`
	DecayRules   int    `json:"decay_rules"`
	TableHash    string `json:"table_hash"`
	Output       string `json:"output,omitempty"`
	Document     string `json:"document,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the rule table for the first N primes",
		Long: `Generate the fusion rule table for the first N primes and write it
as a table document (YAML, JSON or CUE) with default parameters.

Loading the written document back yields the same table.

Examples:
  fusion generate --primes 32
  fusion generate --primes 1000 -o table.yaml
  fusion generate --primes 32 --as cue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Primes, "primes", "n", DefaultPrimes, "number of primes (table slots)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.As, "as", "", "document format (yaml|json|cue); default from --output extension, else yaml")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	docFormat, err := generateFormat(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid document format", err)
	}
	if opts.Primes < 3 {
		msg := fmt.Sprintf("--primes must be at least 3, got %d", opts.Primes)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	primes := generator.FirstPrimes(opts.Primes)
	table, err := generator.Table(primes)
	if err != nil {
		le := tableErrors(err)[0]
		_ = formatter.Error(le.Code, le.Message, nil)
		return WrapExitError(ExitFailure, "failed to generate table", err)
	}
	formatter.VerboseLog("Generated %d fusion rules for primes up to %d", len(table.Fusion), primes[len(primes)-1])

	doc, err := compiler.Encode(table, ir.DefaultParams(), docFormat)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to encode table", err)
	}

	result := GenerateResult{
		Primes:       len(primes),
		LargestPrime: primes[len(primes)-1],
		FusionRules:  len(table.Fusion),
		CycleRules:   table.CycleCount,
		DecayRules:   table.DecayCount,
		TableHash:    ir.MustTableHash(table),
		Output:       opts.Output,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, doc, 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	} else if opts.Format == "json" {
		result.Document = string(doc)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if opts.Output == "" {
		_, err := w.Write(doc)
		return err
	}
	printer.Fprintf(w, "✓ Generated %d fusion rules (%d cycle, %d decay) for %d primes\n",
		result.FusionRules, result.CycleRules, result.DecayRules, result.Primes)
	fmt.Fprintf(w, "  Written to: %s\n", opts.Output)
	fmt.Fprintf(w, "  Table hash: %s\n", result.TableHash)
	return nil
}

// generateFormat picks the document format from --as, then the output
// extension, then YAML.
func generateFormat(opts *GenerateOptions) (compiler.Format, error) {
	if opts.As != "" {
		return compiler.ParseFormat(opts.As)
	}
	if opts.Output != "" {
		return compiler.FormatFromPath(opts.Output)
	}
	return compiler.FormatYAML, nil
}
