// Package engine executes query descriptors against a worksheet source.
//
// Execute is the whole query path:
//
//  1. Validate the descriptor
//  2. Resolve the worksheet (explicit name, index, or Sheet1)
//  3. Generate the parameterized statement
//  4. Build the projector
//  5. Run the statement on the Source
//  6. Materialize rows (typed items, Rows, or the pushed scalar)
//  7. Project and apply result operators
//
// Failed statements are explained where possible: an unknown worksheet
// becomes *UnknownTableError and an unknown column *UnknownColumnError,
// both listing the valid names.
//
// The Engine holds no per-query state and is safe for concurrent use.
// Every query gets an id from the QueryIDGenerator; debug logs of the
// statement and its parameters carry it.
package engine
