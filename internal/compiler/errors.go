package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a document problem found while loading or compiling,
// with the source position of the value that caused it.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(field string, err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: field, Message: err.Error()}
	}

	// Return first error with position info
	firstErr := errs[0]
	ce := &CompileError{
		Field:   field,
		Message: firstErr.Error(),
	}
	if path := firstErr.Path(); len(path) > 0 {
		ce.Field = joinPath(path)
	}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// joinPath renders a CUE error path such as [fusion 3 a] as "fusion[3].a".
func joinPath(path []string) string {
	var out string
	for _, p := range path {
		if isIndex(p) {
			out += "[" + p + "]"
			continue
		}
		if out != "" {
			out += "."
		}
		out += p
	}
	return out
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
