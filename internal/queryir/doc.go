// Package queryir provides the abstract description of a single worksheet
// query: the boolean filter, the projection and the result operators.
//
// A Descriptor is produced by a query front-end (the CLI query files and the
// conformance harness in this repository) and consumed whole by the SQL
// generator in internal/querysql and the projection builder in
// internal/projection.
//
// ARCHITECTURE:
//
//	[front-end] → [Descriptor] → [querysql.Generator] → SQL text + params
//	                           → [projection.Build]   → row → output func
//	                           → [pipeline.Apply]     → final result
//
// SEALED INTERFACES:
//
// Predicate, Operand, Expr and Operator are sealed interfaces using the
// marker method pattern. Only types in this package implement them, so the
// generator and evaluators can switch over them exhaustively:
//
//	switch p := pred.(type) {
//	case Comparison:
//	    // (<column> <op> ?)
//	case Logical:
//	    // (<left> AND|OR <right>)
//	}
//
// PREDICATES:
//
// A Comparison compares exactly one field with one constant. Constants are
// Literal values, Ref names resolved from Descriptor.Bindings, or DateOf
// constructors whose arguments are themselves constants. Everything is
// resolved at translation time; no unresolved reference reaches the SQL
// parameters.
//
// Logical nodes combine two predicates with AND or OR. There is no
// precedence table: the generator parenthesizes every node.
//
// RESULT OPERATORS:
//
// Operators apply in declaration order after materialization. First, Last,
// Single and the aggregates are terminal and may only appear last; Validate
// reports violations.
package queryir
