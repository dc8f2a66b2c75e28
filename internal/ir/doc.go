// Package ir defines the scalar values that flow through sheetq queries.
//
// Literals in predicates, SQL parameters, materialized fields and projection
// results are all ir.Value. The set of value types is sealed:
//
//	Null, String, Int, Float, Bool, Date, Object
//
// Object only appears as the result of an anonymous projection; it is never
// a predicate literal or a cell value.
//
// # Canonical Text
//
// Every scalar has exactly one textual form, produced by Format. Parameter
// values are reported in this form and dates use M/d/yyyy:
//
//	Format(Int(25))                // "25"
//	Format(NewDate(2008, 10, 9))   // "10/9/2008"
//
// Native converts a value into the argument handed to database/sql. Dates
// are passed as canonical text because worksheets store them that way.
package ir
