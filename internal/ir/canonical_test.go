package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"slot name", IRString("p12"), `"p12"`},
		{"empty string", IRString(""), `""`},
		{"count", IRInt(100000), "100000"},
		{"negative", IRInt(-1), "-1"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"bool", IRBool(true), "true"},
		{"plain string", "p1", `"p1"`},
		{"plain int", 7, "7"},
		{"plain int64", int64(131), "131"},
		{"plain bool", false, "false"},
		{"counts", []int64{0, 3, 1}, "[0,3,1]"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRuleKeysSorted(t *testing.T) {
	fusion := IRObject{
		"result":    IRString("p5"),
		"remainder": IRString("p2"),
		"b":         IRString("p3"),
		"a":         IRString("p4"),
	}
	got, err := MarshalCanonical(fusion)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"p4","b":"p3","remainder":"p2","result":"p5"}`, string(got))

	fission := IRObject{
		"source":    IRString("p4"),
		"partner":   IRString("p2"),
		"product":   IRString("p3"),
		"byproduct": IRString("p2"),
	}
	got, err = MarshalCanonical(fission)
	require.NoError(t, err)
	assert.Equal(t, `{"byproduct":"p2","partner":"p2","product":"p3","source":"p4"}`, string(got))
}

func TestMarshalCanonicalTable(t *testing.T) {
	table := &RuleTable{
		Primes: []int64{2, 3, 5},
		Base:   0,
		Fusion: []FusionRule{{A: 0, B: 0, Result: 1, Remainder: NoSlot}},
	}

	got, err := MarshalCanonical(CanonicalTable(table))
	require.NoError(t, err)
	assert.Equal(t,
		`{"base":"p1","cycle_count":0,"decay_count":0,"fission":[],`+
			`"fusion":[{"a":"p1","b":"p1","result":"p2"}],"light_slots":[],`+
			`"primes":[2,3,5],"schema_version":"1"}`,
		string(got))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+1F600 is the surrogate pair D83D DE00, which sorts before U+FF61
	// in UTF-16 even though its UTF-8 encoding sorts after.
	obj := IRObject{
		"\uFF61":     IRInt(2),
		"\U0001F600": IRInt(1),
	}
	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\uFF61\":2}", string(got))
	assert.Equal(t, []string{"\U0001F600", "\uFF61"}, obj.SortedKeys())
}

func TestMarshalCanonicalRejects(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		mention string
	}{
		{"null", nil, "null"},
		{"float64", 0.9, "floats"},
		{"float32", float32(0.25), "floats"},
		{"null nested in array", IRArray{IRInt(1), IRArray{}, nil}, "array[2]"},
		{"unsupported", Params{}, "unsupported type"},
		{"bad object value", IRObject{"spread": nil}, `key "spread"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.mention)
		})
	}
}

func TestMarshalCanonicalStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no html escape", "p1<p2 & p3>p2", `"p1<p2 & p3>p2"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"control characters", "a\nb\tc", `"a\nb\tc"`},
		{"nfc composed", "cafe\u0301", "\"caf\u00e9\""},
		{"line separators literal", "a\u2028b\u2029c", "\"a\u2028b\u2029c\""},
		{"escaped backslash before u2028 text", `\u2028`, `"\\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalNFCKeysCollide(t *testing.T) {
	composed, err := MarshalCanonical(IRObject{"caf\u00e9": IRInt(1)})
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(IRObject{"cafe\u0301": IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}
