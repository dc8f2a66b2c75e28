// Package querysql translates a queryir.Descriptor into a parameterized SQL
// statement against a single worksheet table.
//
// Wire format:
//
//	SELECT * FROM [<table>]
//	SELECT * FROM [<table>] Where (<predicate>)
//
// Every comparison is emitted as ([column] <op> ?) and every AND/OR node as
// (<left> AND|OR <right>). Explicit parentheses are the only precedence
// mechanism; no operator precedence table is relied upon.
//
// CRITICAL: Values are never interpolated into the SQL text. Each constant
// becomes a ? placeholder and a Param, in pre-order traversal order.
package querysql
