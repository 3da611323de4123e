package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		tableJSON  string
		paramsJSON string
		rngSeed    int64
	)
	if err := row.Scan(
		&run.ID,
		&run.TableHash,
		&tableJSON,
		&paramsJSON,
		&run.Seed,
		&rngSeed,
		&run.Label,
		&run.EngineVersion,
		&run.SchemaVersion,
	); err != nil {
		return Run{}, err
	}
	run.RNGSeed = uint64(rngSeed)

	table, err := unmarshalTable(tableJSON)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	run.Table = table

	params, err := unmarshalParams(paramsJSON)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	run.Params = params
	return run, nil
}

const runColumns = `id, table_hash, table_json, params_json, seed, rng_seed, label, engine_version, schema_version`

// ReadRun returns the run with the given ID, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by ID. UUIDv7 IDs make this creation
// order.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns a run's events in seq order.
//
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, rule, slot
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		var (
			ev   ir.Event
			kind string
			slot int
		)
		if err := rows.Scan(&ev.Seq, &kind, &ev.Rule, &slot); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = ir.EventKind(kind)
		ev.Slot = ir.Slot(slot)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LatestSnapshot returns the snapshot with the highest seq for a run.
// The boolean is false when the run has no snapshots.
//
// The stored hash is verified against the decoded snapshot.
func (s *Store) LatestSnapshot(ctx context.Context, runID string) (ir.Snapshot, bool, error) {
	var (
		snap   ir.Snapshot
		counts string
		hash   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, counts, fusions, fissions, hash
		FROM snapshots
		WHERE run_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, runID).Scan(&snap.Seq, &counts, &snap.Fusions, &snap.Fissions, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Snapshot{}, false, nil
	}
	if err != nil {
		return ir.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	snap.Counts, err = unmarshalCounts(counts)
	if err != nil {
		return ir.Snapshot{}, false, err
	}
	got, err := ir.SnapshotHash(snap)
	if err != nil {
		return ir.Snapshot{}, false, err
	}
	if got != hash {
		return ir.Snapshot{}, false, fmt.Errorf("snapshot seq %d: stored hash %s does not match content %s", snap.Seq, hash, got)
	}
	return snap, true, nil
}

// EventCounts returns the number of recorded events per kind for a run.
func (s *Store) EventCounts(ctx context.Context, runID string) (map[ir.EventKind]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*)
		FROM events
		WHERE run_id = ?
		GROUP BY kind
		ORDER BY kind ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query event counts: %w", err)
	}
	defer rows.Close()

	out := map[ir.EventKind]int64{}
	for rows.Next() {
		var (
			kind string
			n    int64
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		out[ir.EventKind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event counts: %w", err)
	}
	return out, nil
}
