package store

import (
	"context"
	"fmt"

	"github.com/ssesselmann/prime-number-fusion/internal/ir"
)

// Run describes one recorded simulation: everything needed to replay it.
type Run struct {
	ID            string
	TableHash     string
	Table         *ir.RuleTable
	Params        ir.Params
	Seed          int64  // base units at start and after reset
	RNGSeed       uint64 // seed of the PCG random source
	Label         string
	EngineVersion string
	SchemaVersion string
}

// CreateRun inserts a run record. TableHash, EngineVersion and
// SchemaVersion are filled in when empty.
//
// Returns an error if a run with the same ID already exists.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	if run.Table == nil {
		return fmt.Errorf("create run %s: missing table", run.ID)
	}
	if run.TableHash == "" {
		h, err := ir.TableHash(run.Table)
		if err != nil {
			return fmt.Errorf("create run %s: %w", run.ID, err)
		}
		run.TableHash = h
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	if run.SchemaVersion == "" {
		run.SchemaVersion = ir.SchemaVersion
	}

	tableJSON, err := marshalJSON(run.Table)
	if err != nil {
		return fmt.Errorf("create run %s: marshal table: %w", run.ID, err)
	}
	paramsJSON, err := marshalJSON(run.Params)
	if err != nil {
		return fmt.Errorf("create run %s: marshal params: %w", run.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, table_hash, table_json, params_json, seed, rng_seed, label, engine_version, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.TableHash,
		tableJSON,
		paramsJSON,
		run.Seed,
		int64(run.RNGSeed),
		run.Label,
		run.EngineVersion,
		run.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

// WriteEvents appends events to a run's log in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - re-writing a batch is a no-op.
//
// Implements engine.Recorder.
func (s *Store) WriteEvents(ctx context.Context, runID string, events []ir.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write events: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (run_id, seq, kind, rule, slot)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write events: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, runID, ev.Seq, string(ev.Kind), ev.Rule, int(ev.Slot)); err != nil {
			return fmt.Errorf("write event seq %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write events: commit: %w", err)
	}
	return nil
}

// WriteSnapshot records a snapshot with its content hash.
// Uses ON CONFLICT DO NOTHING for idempotency.
//
// Implements engine.Recorder.
func (s *Store) WriteSnapshot(ctx context.Context, runID string, snap ir.Snapshot) error {
	counts, err := marshalCounts(snap.Counts)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	hash, err := ir.SnapshotHash(snap)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, seq, counts, fusions, fissions, hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, runID, snap.Seq, counts, snap.Fusions, snap.Fissions, hash)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
