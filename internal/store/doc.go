// Package store provides a SQLite-backed workbook.
//
// Each worksheet is a SQLite table whose columns are the worksheet columns.
// SQLite accepts the bracketed identifiers and ? placeholders produced by
// the SQL generator, so generated statements run unchanged. A catalog table
// (sheetq_worksheets) keeps the workbook order used for worksheet indexes.
//
// # Cell Storage
//
// Column types are inferred when a worksheet is loaded:
//
//   - INTEGER when every non-empty cell is an integer, or every one is a
//     boolean (stored as 0/1)
//   - REAL when every non-empty cell is numeric
//   - TEXT otherwise
//
// Dates are stored as canonical M/d/yyyy text so that equality parameters,
// which are passed in the same form, match. Empty cells are NULL.
// Ordering comparisons on date columns are textual.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
