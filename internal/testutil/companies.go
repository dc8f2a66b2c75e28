package testutil

import (
	"strconv"
	"strings"
	"time"

	"github.com/roach88/sheetq/internal/shape"
)

// Company is the typed item used across package tests.
type Company struct {
	Name          string
	CEO           string
	EmployeeCount int
	StartDate     time.Time
}

// CompanyShape returns the shape of Company. Every call returns a fresh
// shape so tests may register it in their own registries.
func CompanyShape() *shape.Shape {
	return shape.Define[Company]("Company",
		shape.String("Name", func(c *Company) *string { return &c.Name }),
		shape.String("CEO", func(c *Company) *string { return &c.CEO }),
		shape.Int("EmployeeCount", func(c *Company) *int { return &c.EmployeeCount }),
		shape.Time("StartDate", func(c *Company) *time.Time { return &c.StartDate }),
	)
}

// CompanyColumns are the worksheet columns of the companies fixture.
var CompanyColumns = []string{"Name", "CEO", "EmployeeCount", "StartDate"}

// CompanyValues returns the seven fixture rows as a data source returns
// them: text, int64 counts and dates in canonical text.
//
// EmployeeCount values are chosen so that = 25 matches one row, > 98 three,
// >= 98 four, < 300 four and <= 300 five.
func CompanyValues() [][]any {
	return [][]any{
		{"ACME", "Paul Yoder", int64(25), "10/9/2008"},
		{"Ontario Systems", "Bugs Bunny", int64(1), "1/1/2005"},
		{"Big Data Corp", "Daffy Duck", int64(15), "3/4/2001"},
		{"Widget Works", "Elmer Fudd", int64(98), "7/4/1999"},
		{"Consolidated", "Porky Pig", int64(300), "2/14/1995"},
		{"Globex", "Yosemite Sam", int64(1500), "11/30/1987"},
		{"Initech", "Tweety Bird", int64(4000), "5/5/1990"},
	}
}

// CompaniesCSV renders the fixture as CSV with a header row.
func CompaniesCSV() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(CompanyColumns, ","))
	sb.WriteByte('\n')
	for _, row := range CompanyValues() {
		for i, v := range row {
			if i > 0 {
				sb.WriteByte(',')
			}
			switch val := v.(type) {
			case string:
				sb.WriteString(val)
			case int64:
				sb.WriteString(strconv.FormatInt(val, 10))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
