// Package testutil provides deterministic fixtures shared by tests:
// seeded random sources, a fixed run-ID generator and small hand-written
// rule tables.
//
// testutil only depends on ir, so any package may use it in tests.
package testutil
