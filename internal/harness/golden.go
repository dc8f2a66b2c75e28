package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the generated statement of a run: the SQL text followed
// by one line per parameter. A run that failed before producing SQL
// renders its failure code instead.
//
//	-- sql --
//	SELECT * FROM [Sheet1] Where ([EmployeeCount] = ?)
//	-- params --
//	0 int 25
func Snapshot(result *Result) []byte {
	var sb strings.Builder
	if result.SQL == "" {
		sb.WriteString("-- error --\n")
		sb.WriteString(result.Code)
		sb.WriteByte('\n')
		return []byte(sb.String())
	}

	sb.WriteString("-- sql --\n")
	sb.WriteString(result.SQL)
	sb.WriteString("\n-- params --\n")
	if len(result.Params) == 0 {
		sb.WriteString("(none)\n")
	}
	for i, p := range result.Params {
		fmt.Fprintf(&sb, "%d %s %s\n", i, p.Kind, p.Text)
	}
	return []byte(sb.String())
}

// RunWithGolden executes a scenario and compares its statement against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check result.Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's statement against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(result))
}
