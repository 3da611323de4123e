// Package store provides SQLite-backed storage for simulation run logs.
//
// The store is an append-only log with:
//   - Runs: the rule table, parameters and seeds a run started from
//   - Events: every applied operation, keyed by (run_id, seq)
//   - Snapshots: inventory and counters at flush points
//
// Replaying a run's events from its seed must reproduce its snapshots;
// see engine.VerifyReplay.
//
// # Critical Patterns
//
// Logical Time:
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Reads always ORDER BY seq ASC
//
// Idempotent Writes:
//   - Events and snapshots use ON CONFLICT DO NOTHING, so re-flushing a
//     batch after a crash is harmless
//
// Canonical Encoding:
//   - Snapshot counts are stored as RFC 8785 canonical JSON, together
//     with ir.SnapshotHash
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
