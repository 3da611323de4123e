package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"cuelang.org/go/cue/token"

	"github.com/ssesselmann/prime-number-fusion/internal/compiler"
	"github.com/ssesselmann/prime-number-fusion/internal/generator"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// DefaultPrimes is the table size used when no table document is given.
const DefaultPrimes = 32

// Error code constants - unified across all CLI commands. Table
// configuration problems keep their ir codes (E2xx).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E004" // Table document unreadable or malformed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeSchema      = "E006" // Document violates the table schema
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Run log error
	ErrCodeRunNotFound = "E009" // No such run in the log
	ErrCodeInvariant   = "E010" // Operation would drive a count negative
	ErrCodeReplay      = "E011" // Replayed state differs from the log
)

// LoadError represents an error that occurred while loading a rule table.
type LoadError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the source line of the error, or 0 when unknown.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// TableSource selects where a command's rule table comes from.
type TableSource struct {
	Path   string // table document; overrides FUSION_TABLE
	Primes int    // size of the generated table when no document is set
}

// resolve returns the document path to load, or "" for a generated table.
func (s TableSource) resolve(opts *RootOptions) string {
	if s.Path != "" {
		return s.Path
	}
	return opts.Config.Table
}

// loadTable compiles the table document named by src (or FUSION_TABLE),
// falling back to a table generated for the first src.Primes primes with
// default parameters.
func loadTable(opts *RootOptions, src TableSource) (*ir.RuleTable, ir.Params, error) {
	if path := src.resolve(opts); path != "" {
		slog.Debug("loading table", "path", path)
		table, params, err := compiler.CompileFile(path)
		if err != nil {
			return nil, ir.Params{}, tableErrors(err)[0]
		}
		return table, params, nil
	}

	n := src.Primes
	if n <= 0 {
		n = DefaultPrimes
	}
	slog.Debug("generating table", "primes", n)
	table, err := generator.Table(generator.FirstPrimes(n))
	if err != nil {
		return nil, ir.Params{}, tableErrors(err)[0]
	}
	return table, ir.DefaultParams(), nil
}

// tableErrors converts a compile or validation error into one LoadError
// per underlying problem. The result is never empty.
func tableErrors(err error) []*LoadError {
	var ces ir.ConfigErrors
	if errors.As(err, &ces) && len(ces) > 0 {
		out := make([]*LoadError, len(ces))
		for i, ce := range ces {
			out[i] = &LoadError{Code: ce.Code, Field: ce.Field, Message: ce.Message}
		}
		return out
	}

	var ce ir.ConfigError
	if errors.As(err, &ce) {
		return []*LoadError{{Code: ce.Code, Field: ce.Field, Message: ce.Message}}
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := ErrCodeSchema
		switch compileErr.Field {
		case "cue", "yaml", "json", "document":
			code = ErrCodeLoadFailed
		}
		return []*LoadError{{
			Code:    code,
			Field:   compileErr.Field,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}}
	}

	if errors.Is(err, fs.ErrNotExist) {
		return []*LoadError{{Code: ErrCodeNotFound, Message: err.Error()}}
	}

	return []*LoadError{{Code: ErrCodeLoadFailed, Message: err.Error()}}
}

// parseSlotFlag parses a slot flag value and checks it exists in table.
func parseSlotFlag(table *ir.RuleTable, flag, value string) (ir.Slot, error) {
	s, err := ir.ParseSlot(value)
	if err != nil {
		return ir.NoSlot, fmt.Errorf("--%s: %w", flag, err)
	}
	if int(s) >= table.NumSlots() {
		return ir.NoSlot, fmt.Errorf("--%s: slot %s outside table of %d slots", flag, s, table.NumSlots())
	}
	return s, nil
}
