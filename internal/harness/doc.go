// Package harness provides conformance testing for sheetq queries.
//
// The harness loads worksheets into a fresh in-memory workbook, runs one
// query document through the engine, and checks the generated SQL, the
// parameters, the result and any warnings.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config: testdata/configs/companies.cue
//	mapping: { CEO: Boss }
//	worksheets:
//	  - name: Sheet1
//	    csv: testdata/workbooks/companies.csv
//	  - name: Other
//	    columns: [Name]
//	    rows:
//	      - [Only]
//	query:
//	  shape: Company
//	  where: {field: EmployeeCount, op: "=", value: 25}
//	expect:
//	  sql: "SELECT * FROM [Sheet1] Where ([EmployeeCount] = ?)"
//	  params: ["25"]
//	  count: 1
//	  rows:
//	    - {Name: ACME}
//
// The query is a querydoc document. Config and CSV paths are relative to
// the scenario's base path.
//
// # Expectations
//
//   - sql, params: the exact statement and parameter texts
//   - count, rows: the number of items and a per-item subset match
//   - scalar: the text form of a scalar result
//   - error, code: a message substring and the failure stage
//   - warnings: the exact materialization warnings
//
// An unexpected failure always fails the scenario.
//
// # Deterministic Testing
//
// Query ids are fixed ({name}/translate and {name}/execute) and every
// scenario gets its own in-memory SQLite database, so golden snapshots of
// the generated SQL are stable across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/equal_int.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
