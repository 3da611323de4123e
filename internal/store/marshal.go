package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// marshalCounts converts inventory counts to canonical JSON TEXT.
func marshalCounts(counts []int64) (string, error) {
	data, err := ir.MarshalCanonical(counts)
	if err != nil {
		return "", fmt.Errorf("marshal counts: %w", err)
	}
	return string(data), nil
}

// unmarshalCounts parses counts stored by marshalCounts.
func unmarshalCounts(data string) ([]int64, error) {
	counts := []int64{}
	if err := json.Unmarshal([]byte(data), &counts); err != nil {
		return nil, fmt.Errorf("unmarshal counts: %w", err)
	}
	return counts, nil
}

// marshalJSON encodes v with HTML escaping disabled and no trailing
// newline. Used for the table and params columns, which hold floats and
// so cannot use canonical JSON.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalTable(data string) (*ir.RuleTable, error) {
	var t ir.RuleTable
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("unmarshal table: %w", err)
	}
	return &t, nil
}

func unmarshalParams(data string) (ir.Params, error) {
	var p ir.Params
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ir.Params{}, fmt.Errorf("unmarshal params: %w", err)
	}
	return p, nil
}
