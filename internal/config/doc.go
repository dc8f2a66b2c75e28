// Package config compiles workbook configuration written in CUE.
//
// A config names the default worksheet, maps logical field names to
// physical columns, and declares item shapes:
//
//	worksheet: "Companies"
//
//	mapping: {
//		CEO: "Chief Executive"
//	}
//
//	shape: Company: {
//		Name:          string
//		CEO:           string
//		EmployeeCount: int
//		StartDate:     {type: "date", column: "Start Date"}
//	}
//
// Declared shapes materialize into *shape.Record values. Field order in the
// file is the field order of the shape.
package config
