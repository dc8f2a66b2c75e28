// Package pipeline applies result operators to a materialized sequence.
//
// Operators run in declaration order, so Reverse followed by Skip(2) drops
// the last two rows of the source. A terminal operator ends the pipeline
// and yields a scalar. Aggregates the data source already computed are
// passed through unchanged.
package pipeline
