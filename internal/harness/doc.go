// Package harness runs deterministic simulation scenarios.
//
// A scenario loads a rule table, seeds the inventory and drives the
// fusion and fission engines through a fixed list of steps. Every applied
// operation is recorded to an in-memory run log, and assertions are then
// evaluated against the final state and the log.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	table: ../tables/small.yaml   # relative to the scenario; empty = 32 primes
//	seed: 4                       # base units; default params.seed_count
//	rng_seed: 42                  # PCG seed for weighted and cycle steps
//	steps:
//	  - op: mint
//	    slot: p4
//	  - op: cycle
//	    expect: { ok: true }
//	  - op: seek
//	    target: p5
//	  - op: weighted
//	    repeat: 500
//	assertions:
//	  - type: counts
//	    counts: { p1: 1, p5: 1 }
//	  - type: fusions
//	    count: 9
//	  - type: replay
//
// # Step Operations
//
//   - exhaustive: one exhaustive time step (applied = fusions in the pass)
//   - weighted: one weighted fusion attempt
//   - seek: priority-seeking towards target and/or a fusion budget
//   - cycle: one CNO cycle attempt
//   - decay: one heavy decay attempt
//   - mint: credit one unit to slot (default: the base slot)
//   - reset: restore the seed inventory
//
// # Assertion Types
//
//   - counts: named slots hold exactly the given counts
//   - fusions, fissions, total: run counters and inventory total
//   - event_count: number of recorded events of one kind
//   - nonnegative: no slot is below zero
//   - replay: the recorded log replays to the final state
//
// # Deterministic Testing
//
// Each run uses a fixed run ID, a PCG source seeded from rng_seed and a
// fresh in-memory SQLite run log, so traces are identical across runs and
// can be compared against golden files.
package harness
