package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario loads worksheets into a fresh workbook, runs one query and
// checks the generated SQL and the result.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is an optional path to a CUE workbook config.
	// Relative paths are resolved against the scenario's base path.
	Config string `yaml:"config,omitempty"`

	// Mapping adds field -> column entries on top of the config's mapping.
	Mapping map[string]string `yaml:"mapping,omitempty"`

	// Worksheets are loaded in order before the query runs.
	Worksheets []WorksheetSpec `yaml:"worksheets"`

	// Query is a query document (see package querydoc).
	Query yaml.Node `yaml:"query"`

	// Expect lists what the run must produce.
	Expect Expect `yaml:"expect"`
}

// WorksheetSpec is one worksheet of the scenario workbook, read from a CSV
// file or written inline.
type WorksheetSpec struct {
	Name string `yaml:"name"`

	// CSV is a path to a CSV file with a header row.
	CSV string `yaml:"csv,omitempty"`

	// Columns and Rows define the worksheet inline.
	Columns []string `yaml:"columns,omitempty"`
	Rows    [][]any  `yaml:"rows,omitempty"`
}

// Expect specifies expected query behavior. Unset fields are not checked.
type Expect struct {
	// SQL is the exact generated statement.
	SQL string `yaml:"sql,omitempty"`

	// Params are the canonical texts of the positional parameters.
	// An empty list asserts that there are none.
	Params []string `yaml:"params,omitempty"`

	// Count is the number of result items.
	Count *int `yaml:"count,omitempty"`

	// Rows are matched against the result items in order. Object rows use
	// subset semantics: only the listed fields are compared.
	Rows []any `yaml:"rows,omitempty"`

	// Scalar is the expected scalar result in text form. Items render as
	// JSON, a missing item renders as "null".
	Scalar *string `yaml:"scalar,omitempty"`

	// Error is a substring of the expected failure message.
	Error string `yaml:"error,omitempty"`

	// Code is the expected failure stage, e.g. EXECUTION_FAILED.
	Code string `yaml:"code,omitempty"`

	// Warnings are the exact materialization warnings, in order.
	// An empty list asserts that there are none.
	Warnings []string `yaml:"warnings,omitempty"`
}

// empty reports whether no expectation is set.
func (e Expect) empty() bool {
	return e.SQL == "" && e.Params == nil && e.Count == nil && e.Rows == nil &&
		e.Scalar == nil && e.Error == "" && e.Code == "" && e.Warnings == nil
}

// LoadScenario loads and validates a scenario from a YAML file.
// Relative paths inside the scenario are resolved against the directory of
// the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath loads a scenario, resolving its config and CSV
// paths against basePath. Used when scenarios refer to fixtures by their
// path from the project root.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	scenario.resolvePaths(basePath)
	if err := validateFiles(scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario without touching the
// filesystem. Paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var scenario Scenario
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) resolvePaths(basePath string) {
	if s.Config != "" && !filepath.IsAbs(s.Config) {
		s.Config = filepath.Join(basePath, s.Config)
	}
	for i := range s.Worksheets {
		if csv := s.Worksheets[i].CSV; csv != "" && !filepath.IsAbs(csv) {
			s.Worksheets[i].CSV = filepath.Join(basePath, csv)
		}
	}
}

// validateScenario checks the scenario structure.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("scenario %s: description is required", s.Name)
	}
	if len(s.Worksheets) == 0 {
		return fmt.Errorf("scenario %s: at least one worksheet is required", s.Name)
	}
	for i, ws := range s.Worksheets {
		if ws.Name == "" {
			return fmt.Errorf("scenario %s: worksheets[%d]: name is required", s.Name, i)
		}
		switch {
		case ws.CSV != "" && len(ws.Columns) > 0:
			return fmt.Errorf("scenario %s: worksheets[%d]: csv and columns are mutually exclusive", s.Name, i)
		case ws.CSV == "" && len(ws.Columns) == 0:
			return fmt.Errorf("scenario %s: worksheets[%d]: csv or columns is required", s.Name, i)
		case ws.CSV != "" && len(ws.Rows) > 0:
			return fmt.Errorf("scenario %s: worksheets[%d]: rows require columns", s.Name, i)
		}
	}
	if s.Query.Kind == 0 {
		return fmt.Errorf("scenario %s: query is required", s.Name)
	}
	if s.Expect.empty() {
		return fmt.Errorf("scenario %s: expect must check at least one thing", s.Name)
	}
	return nil
}

// validateFiles checks that referenced files exist.
func validateFiles(s *Scenario) error {
	if s.Config != "" {
		if _, err := os.Stat(s.Config); err != nil {
			return fmt.Errorf("scenario %s: config file not found: %s", s.Name, s.Config)
		}
	}
	for i, ws := range s.Worksheets {
		if ws.CSV == "" {
			continue
		}
		if _, err := os.Stat(ws.CSV); err != nil {
			return fmt.Errorf("scenario %s: worksheets[%d]: csv file not found: %s", s.Name, i, ws.CSV)
		}
	}
	return nil
}
