// Package generator derives fusion rule tables from an ascending prime
// sequence.
//
// Every rule builds the next prime slot from the current one plus a
// "fusion partner": the smallest slot whose prime value covers the gap to
// the next prime. The slot just below the partner is credited as the
// remainder. The remainder is positional, never value - gap.
//
// Rule order is index-stable: rule k produces slot k+1 (0-based), and the
// engines treat that order as priority.
package generator
