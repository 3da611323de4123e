package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
	"github.com/ssesselmann/prime-number-fusion/internal/testutil"
)

func TestRenderTrace(t *testing.T) {
	result := NewResult()
	result.Trace = []ir.Event{
		{Seq: 1, Kind: ir.EventFusion, Rule: 3, Slot: ir.NoSlot},
		{Seq: 2, Kind: ir.EventCycle, Rule: 0, Slot: ir.NoSlot},
		{Seq: 3, Kind: ir.EventDecay, Rule: 1, Slot: ir.NoSlot},
		{Seq: 4, Kind: ir.EventMint, Rule: -1, Slot: 0},
		{Seq: 5, Kind: ir.EventReset, Rule: -1, Slot: ir.NoSlot},
	}
	result.Final = ir.Snapshot{Seq: 5, Counts: []int64{7, 0, 0, 0, 0}}

	want := "scenario: demo\n" +
		"   1  fusion  p4 + p3 -> p5 + p2\n" +
		"   2  cycle   p4 + p2 -> p3 + p2\n" +
		"   3  decay   p5 -> p4 + p3\n" +
		"   4  mint    p1\n" +
		"   5  reset\n" +
		"final: counts=[7 0 0 0 0] fusions=0 fissions=0\n"
	assert.Equal(t, want, RenderTrace("demo", testutil.SmallTable(), result))
}
