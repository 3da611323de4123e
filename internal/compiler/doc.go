// Package compiler loads rule table documents and compiles them to IR.
//
// A document is CUE, YAML or JSON. It is unified with the embedded #Table
// schema (schema.cue) before compilation, so type and range errors carry
// the source position of the offending value. Semantic checks that need
// the whole table (slot ranges, subset counts) are left to
// ir.RuleTable.Validate.
//
// Encode writes a compiled table back out in any of the three formats.
// Loading the output again yields a table with the same content hash.
package compiler
