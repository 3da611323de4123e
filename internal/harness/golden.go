package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// RenderTrace formats a scenario trace as text, one event per line,
// followed by the final state:
//
//	scenario: fission_small
//	   1  mint    p4
//	   4  cycle   p4 + p2 -> p3 + p2
//	  18  decay   p3 -> p2 + p1
//	final: counts=[1 1 3 0 1] fusions=9 fissions=2
func RenderTrace(name string, table *ir.RuleTable, result *Result) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	for _, ev := range result.Trace {
		line := fmt.Sprintf("%4d  %-6s  %s", ev.Seq, ev.Kind, DescribeEvent(table, ev))
		buf.WriteString(strings.TrimRight(line, " "))
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "final: counts=%v fusions=%d fissions=%d\n",
		result.Final.Counts, result.Final.Fusions, result.Final.Fissions)
	return buf.String()
}

// DescribeEvent renders the rule or slot an event applied. Decay consumes the
// source only, so its partner is left out.
func DescribeEvent(table *ir.RuleTable, ev ir.Event) string {
	switch ev.Kind {
	case ir.EventFusion:
		if ev.Rule >= 0 && ev.Rule < len(table.Fusion) {
			return table.Fusion[ev.Rule].String()
		}
	case ir.EventCycle:
		if ev.Rule >= 0 && ev.Rule < len(table.Fission) {
			return table.Fission[ev.Rule].String()
		}
	case ir.EventDecay:
		if ev.Rule >= 0 && ev.Rule < len(table.Fission) {
			r := table.Fission[ev.Rule]
			return fmt.Sprintf("%s -> %s + %s", r.Source, r.Product, r.Byproduct)
		}
	case ir.EventMint:
		return ev.Slot.String()
	case ir.EventReset:
		return ""
	}
	return fmt.Sprintf("rule %d", ev.Rule)
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	table, _, err := LoadTable(scenario.Table)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, table, result)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, name string, table *ir.RuleTable, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(RenderTrace(name, table, result)))
}
