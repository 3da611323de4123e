// Package engine runs the prime fusion simulation.
//
// ARCHITECTURE:
//
// State is the single mutable object: a fixed-size inventory indexed by
// slot plus the run counters. Every engine call takes the State it
// mutates; there are no package-level globals.
//
//   - FusionEngine applies fusion rules (exhaustive, seeking, weighted)
//   - FissionEngine applies CNO cycle and heavy decay rules
//   - Weighting turns a State into a distribution over fusion rules
//   - Loop drives weighted fusion plus periodic fission from one goroutine
//
// Apply Primitive:
// Every rule application goes through State.transfer, which checks all
// debits before touching any count. An unavailable operand is a plain
// false return. A debit that would still drive a count negative is an
// *InvariantViolation and aborts the operation without clamping.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every applied operation is stamped with a monotonic seq from Clock.Next().
// Wall-clock time is never used for ordering.
//
// Rule Order:
// Fusion and fission rules are evaluated in table order. The table is
// cloned at construction so callers cannot reorder it later.
//
// Determinism:
// All randomness comes from an injected *rand.Rand. The same table, seed
// and RNG seed reproduce the same event sequence.
package engine
