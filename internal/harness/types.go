package harness

// Param is one positional parameter of the generated statement.
type Param struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses match.
	Pass bool `json:"pass"`

	// SQL is the generated statement. Empty when translation failed.
	SQL string `json:"sql,omitempty"`

	// Params are the positional parameters of SQL.
	Params []Param `json:"params,omitempty"`

	// Items are the result items decoded from their JSON form, so they
	// compare the same way expected rows from YAML do.
	Items []any `json:"items,omitempty"`

	// Scalar is the text form of a scalar result. Set only when IsScalar.
	Scalar   string `json:"scalar,omitempty"`
	IsScalar bool   `json:"is_scalar,omitempty"`

	// Code and Error describe a failed query.
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`

	// Warnings are the materialization warnings in order.
	Warnings []string `json:"warnings,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// ParamTexts returns the canonical text of every parameter.
func (r *Result) ParamTexts() []string {
	texts := make([]string, len(r.Params))
	for i, p := range r.Params {
		texts[i] = p.Text
	}
	return texts
}
