// Package querydoc reads query descriptors written as YAML documents.
//
// Query files feed the command line and the scenario harness:
//
//	worksheet: Sheet1
//	shape: Company
//	where:
//	  and:
//	    - {field: EmployeeCount, op: ">", value: 5}
//	    - {field: StartDate, op: "=", date: "10/9/2008"}
//	select:
//	  construct:
//	    fields:
//	      Company: {member: Name}
//	      Doubled: {mul: [{member: EmployeeCount}, {value: 2}]}
//	operators: [Reverse, {skip: 1}, First]
//	bindings:
//	  year: 2008
//
// Mapping order is kept: construct fields appear in document order.
package querydoc
