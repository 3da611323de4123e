// Package ir provides the canonical in-memory representation of a prime
// fusion rule table and the records produced by running it.
//
// This package contains type definitions, table validation and canonical
// serialization only. All other internal packages import ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - Slots are 0-based positions; their display name is "p<n>" (1-based)
//   - Rule order is priority and is never re-sorted after construction
//   - Counts are int64; floats appear only in tunable Params
//   - Events carry a logical seq, never wall-clock timestamps
//   - Canonical JSON (RFC 8785) is used for content hashing of tables
package ir
