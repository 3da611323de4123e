package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// Format names a rule table document encoding.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported table file extension %q (want .cue, .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// ParseFormat validates a format name given on the command line.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatCUE, FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want cue, yaml or json)", name)
	}
}

// LoadFile reads a rule table document from disk. The format follows the
// file extension.
func LoadFile(path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("read table: %w", err)
	}
	return LoadBytes(path, data)
}

// LoadBytes builds a CUE value from document bytes. filename is used for
// the format and for error positions.
func LoadBytes(filename string, data []byte) (cue.Value, error) {
	format, err := FormatFromPath(filename)
	if err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()
	var v cue.Value
	switch format {
	case FormatCUE:
		v = ctx.CompileBytes(data, cue.Filename(filename))
	case FormatYAML:
		file, err := cueyaml.Extract(filename, data)
		if err != nil {
			return cue.Value{}, formatCUEError("yaml", err)
		}
		v = ctx.BuildFile(file)
	case FormatJSON:
		expr, err := cuejson.Extract(filename, data)
		if err != nil {
			return cue.Value{}, formatCUEError("json", err)
		}
		v = ctx.BuildExpr(expr)
	}
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(string(format), err)
	}
	return v, nil
}
