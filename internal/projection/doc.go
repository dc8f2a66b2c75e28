// Package projection compiles projection expressions into functions from a
// materialized item to the caller's output value.
//
// Build runs once per query and checks member references against the item
// shape, so a misspelled member fails before any row is read. The returned
// Projector is pure and safe to call from several goroutines.
package projection
