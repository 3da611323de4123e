package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssesselmann/prime-number-fusion/internal/compiler"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// ValidationIssue is one problem found in a table document.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool              `json:"valid"`
	Slots       int               `json:"slots,omitempty"`
	FusionRules int               `json:"fusion_rules,omitempty"`
	CycleRules  int               `json:"cycle_rules,omitempty"`
	DecayRules  int               `json:"decay_rules,omitempty"`
	TableHash   string            `json:"table_hash,omitempty"`
	Params      *ir.Params        `json:"params,omitempty"`
	Errors      []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <table-file>",
		Short: "Validate a rule table document",
		Long: `Validate a rule table document (.cue, .yaml, .yml or .json) against the
table schema and check the compiled table for consistency: every rule
references a slot of the table, every prime gap is covered and all
numeric parameters are in range.

Exit codes:
  0 - Table is valid
  1 - Table is invalid
  2 - Command error (file not found, unreadable document)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	formatter.VerboseLog("Validating %s", path)
	table, params, err := compiler.CompileFile(path)
	if err != nil {
		issues := tableErrors(err)
		switch issues[0].Code {
		case ErrCodeNotFound, ErrCodeLoadFailed:
			return outputValidateError(formatter, issues[0])
		}
		return outputValidationErrors(formatter, issues)
	}

	result := ValidationResult{
		Valid:       true,
		Slots:       table.NumSlots(),
		FusionRules: len(table.Fusion),
		CycleRules:  table.CycleCount,
		DecayRules:  table.DecayCount,
		TableHash:   ir.MustTableHash(table),
		Params:      &params,
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✓ Table valid")
	printer.Fprintf(w, "  %d slots, %d fusion rules, %d cycle rules, %d decay rules\n",
		result.Slots, result.FusionRules, result.CycleRules, result.DecayRules)
	fmt.Fprintf(w, "  Weighting: %s\n", result.Params.Weighting)
	fmt.Fprintf(w, "  Table hash: %s\n", result.TableHash)
	return nil
}

// outputValidateError outputs an error that prevented validation.
func outputValidateError(formatter *OutputFormatter, le *LoadError) error {
	_ = formatter.Error(le.Code, le.Message, nil)
	// Unreadable input is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, le.Error())
}

// outputValidationErrors outputs every problem found in the table.
func outputValidationErrors(formatter *OutputFormatter, errs []*LoadError) error {
	issues := make([]ValidationIssue, len(errs))
	for i, le := range errs {
		issues[i] = ValidationIssue{Code: le.Code, Field: le.Field, Message: le.Message, Line: le.Line()}
	}
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))

	if formatter.Format == "json" {
		if err := formatter.JSON(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}); err != nil {
			return err
		}
		return exitErr
	}

	// Text format
	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, is := range issues {
		if is.Line > 0 {
			fmt.Fprintf(w, "line %d\n", is.Line)
		}
		if is.Field != "" {
			fmt.Fprintf(w, "  %s: %s: %s\n\n", is.Code, is.Field, is.Message)
		} else {
			fmt.Fprintf(w, "  %s: %s\n\n", is.Code, is.Message)
		}
	}

	return exitErr
}
