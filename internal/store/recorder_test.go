package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssesselmann/prime-number-fusion/internal/engine"
	"github.com/ssesselmann/prime-number-fusion/internal/ir"
	"github.com/ssesselmann/prime-number-fusion/internal/testutil"
)

var _ engine.Recorder = (*Store)(nil)

// TestRecordedRunReplays runs a loop against a real store and replays the
// persisted log back to the persisted snapshot.
func TestRecordedRunReplays(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	params := ir.DefaultParams()
	params.SeedCount = 1000
	params.CycleInterval = 7
	params.DecayInterval = 5

	run := Run{
		ID:      "run-1",
		Table:   testutil.SmallTable(),
		Params:  params,
		Seed:    params.SeedCount,
		RNGSeed: testutil.DefaultSeed,
	}
	require.NoError(t, s.CreateRun(ctx, run))

	l, err := engine.NewLoop(run.Table, run.Params,
		engine.WithRNG(testutil.NewRNG(run.RNGSeed)),
		engine.WithRecorder(s, run.ID),
		engine.WithFlushEvery(64),
		engine.WithAttemptLimit(2000),
	)
	require.NoError(t, err)
	require.NoError(t, l.Start())
	require.NoError(t, l.Run(ctx))

	final := l.Snapshot()

	events, err := s.ReadEvents(ctx, run.ID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, final.Seq, events[len(events)-1].Seq)

	snap, ok, err := s.LatestSnapshot(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, final.Counts, snap.Counts)
	assert.Equal(t, final.Fusions, snap.Fusions)
	assert.Equal(t, final.Fissions, snap.Fissions)

	stored, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	_, err = engine.VerifyReplay(stored.Table, stored.Seed, events, snap)
	require.NoError(t, err)

	counts, err := s.EventCounts(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, final.Fusions, counts[ir.EventFusion])
	assert.Equal(t, final.Fissions, counts[ir.EventCycle]+counts[ir.EventDecay])
}
