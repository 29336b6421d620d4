// Package netmode manages the gateway's persistent network mode.
//
// The mode is a tri-state singleton:
//
//   - ON: read and write operations allowed
//   - READ_ONLY: read operations allowed, write operations denied
//   - OFF: everything denied
//
// Mode changes themselves are admin operations and are always allowed.
// Current state lives in a single-row table; every transition appends an
// immutable history row with a strictly monotonic timestamp, so the
// history is totally ordered even under concurrent writers.
//
// Operation names are classified against two fixed verb sets. Under
// READ_ONLY an unknown operation is allowed only when its name neither
// matches nor contains a write verb, so a newly named write operation
// cannot slip through.
package netmode
