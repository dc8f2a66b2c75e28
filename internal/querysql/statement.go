package querysql

import (
	"fmt"

	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/queryir"
)

// Statement is a generated SQL statement with its positional parameters.
//
// Invariant: len(Params) equals the number of ? placeholders in Text, in
// left-to-right order.
type Statement struct {
	// Text is the SQL statement.
	Text string

	// Params are the positional parameter values.
	Params []Param

	// Columns lists every physical column the statement references, in
	// first-reference order without duplicates. Used to explain driver
	// failures caused by unknown columns.
	Columns []string

	// Fields lists the logical fields of an explicit select list. Empty when
	// the statement selects *.
	Fields []string

	// Aggregate is the result operator pushed into the select list, or nil.
	// The statement then yields exactly one scalar cell.
	Aggregate queryir.Operator
}

// Param is one positional parameter.
type Param struct {
	Value ir.Value
	Kind  ir.Kind
}

// Text returns the canonical text form of the parameter value.
func (p Param) Text() string {
	return ir.Format(p.Value)
}

// Scalar reports whether the statement yields a single aggregate value.
func (s *Statement) Scalar() bool {
	return s.Aggregate != nil
}

// Args returns the parameters as database/sql arguments.
func (s *Statement) Args() []any {
	args := make([]any, len(s.Params))
	for i, p := range s.Params {
		args[i] = ir.Native(p.Value)
	}
	return args
}

// ParamTexts returns the canonical text of every parameter.
func (s *Statement) ParamTexts() []string {
	texts := make([]string, len(s.Params))
	for i, p := range s.Params {
		texts[i] = p.Text()
	}
	return texts
}

func (s *Statement) String() string {
	return s.Text
}

// TranslationError reports a predicate or descriptor that cannot be
// represented in SQL, such as a comparison between two fields.
type TranslationError struct {
	Reason string
	Node   any
}

func (e *TranslationError) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("cannot translate query: %s (%T)", e.Reason, e.Node)
	}
	return "cannot translate query: " + e.Reason
}

func translationErrorf(node any, format string, args ...any) *TranslationError {
	return &TranslationError{Reason: fmt.Sprintf(format, args...), Node: node}
}
