package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
	"github.com/ssesselmann/prime-number-fusion/internal/testutil"
)

func TestClock_Next(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(41)
	assert.Equal(t, int64(41), resumed.Current())
	assert.Equal(t, int64(42), resumed.Next())
}

func TestClock_StampsAppliedOperationsOnly(t *testing.T) {
	st := NewState(testutil.SmallTable(), 1)
	var events []ir.Event
	st.SetObserver(func(ev ir.Event) { events = append(events, ev) })

	var f FusionEngine
	ok, err := f.Apply(st, 0) // p1+p1 with one unit
	require.NoError(t, err)
	require.False(t, ok)
	assert.Equal(t, int64(0), st.Snapshot().Seq, "a failed attempt is not stamped")

	st.Mint(0)
	ok, err = f.Apply(st, 0)
	require.NoError(t, err)
	require.True(t, ok)
	st.Reset()

	require.Len(t, events, 3)
	assert.Equal(t, []ir.EventKind{ir.EventMint, ir.EventFusion, ir.EventReset},
		[]ir.EventKind{events[0].Kind, events[1].Kind, events[2].Kind})
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, int64(3), st.Snapshot().Seq, "reset does not rewind the clock")

	replayed, err := Replay(testutil.SmallTable(), 1, events)
	require.NoError(t, err)
	assert.Equal(t, st.Snapshot(), replayed)
}
