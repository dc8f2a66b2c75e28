// Package shape describes the item types query results are materialized
// into, and resolves logical field names to physical column names.
//
// A Shape is an explicit schema: an ordered list of fields with a semantic
// kind, an optional column override and table-driven accessors. Go structs
// get accessors from the generic helpers; shapes declared in configuration
// use Dynamic and materialize into *Record.
//
// The generic RowShape marks queries whose results are rows.Row values with
// lazy cell conversion instead of typed items.
package shape
