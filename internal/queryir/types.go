package queryir

import "github.com/roach88/sheetq/internal/ir"

// Descriptor is the complete, immutable description of one query.
//
// Semantics:
//
//	SELECT <projection columns or *> FROM [<Source>] Where (<Predicate>)
//
// followed by Operators applied to the materialized, projected sequence.
type Descriptor struct {
	// Source is the worksheet name. Empty means "resolve by SheetIndex,
	// else the default worksheet".
	Source string

	// SheetIndex selects the worksheet by position when Source is empty.
	SheetIndex *int

	// Predicate filters rows (nil = no filter).
	Predicate Predicate

	// Projection shapes each result (nil = identity).
	Projection Expr

	// Operators are applied in order after projection.
	Operators []Operator

	// Shape names the item shape rows are materialized into.
	// shape.RowShapeName selects the generic Row.
	Shape string

	// Bindings holds captured caller values referenced by Ref operands.
	Bindings map[string]ir.Value
}

// Predicate is one node of the boolean filter tree.
//
// This is a sealed interface - only Comparison and Logical implement it.
type Predicate interface {
	predicateNode()
}

// CompareOp is a comparison operator.
type CompareOp int

const (
	Eq CompareOp = iota
	Neq
	Gt
	Gte
	Lt
	Lte
)

var compareSymbols = map[CompareOp]string{
	Eq:  "=",
	Neq: "<>",
	Gt:  ">",
	Gte: ">=",
	Lt:  "<",
	Lte: "<=",
}

// Symbol returns the SQL spelling of the operator, or "" if unknown.
func (op CompareOp) Symbol() string {
	return compareSymbols[op]
}

// Flip returns the operator that holds when the operands are swapped.
// 5 < A is the same as A > 5.
func (op CompareOp) Flip() CompareOp {
	switch op {
	case Gt:
		return Lt
	case Gte:
		return Lte
	case Lt:
		return Gt
	case Lte:
		return Gte
	default:
		return op
	}
}

// ParseCompareOp accepts SQL and Go spellings ("=", "==", "<>", "!=", ...).
func ParseCompareOp(s string) (CompareOp, bool) {
	switch s {
	case "=", "==", "eq":
		return Eq, true
	case "<>", "!=", "neq":
		return Neq, true
	case ">", "gt":
		return Gt, true
	case ">=", "gte":
		return Gte, true
	case "<", "lt":
		return Lt, true
	case "<=", "lte":
		return Lte, true
	}
	return 0, false
}

// Comparison compares two operands, exactly one of which must be a Field.
//
// Example:
//
//	Comparison{Left: Field{Name: "EmployeeCount"}, Op: Gt, Right: Literal{Value: ir.Int(5)}}
//
// Translates to SQL:
//
//	([EmployeeCount] > ?)
type Comparison struct {
	Left  Operand
	Op    CompareOp
	Right Operand
}

func (Comparison) predicateNode() {}

// LogicalOp combines two predicates.
type LogicalOp int

const (
	And LogicalOp = iota
	Or
)

// Keyword returns the uppercase SQL keyword.
func (op LogicalOp) Keyword() string {
	switch op {
	case And:
		return "AND"
	case Or:
		return "OR"
	}
	return ""
}

// Logical is a binary AND/OR node.
type Logical struct {
	Op    LogicalOp
	Left  Predicate
	Right Predicate
}

func (Logical) predicateNode() {}

// Operand is one side of a Comparison.
//
// This is a sealed interface - Field, Literal, Ref and DateOf implement it.
type Operand interface {
	operandNode()
}

// Field references a logical field of the item shape.
type Field struct {
	Name string
}

func (Field) operandNode() {}

// Literal is a constant value.
type Literal struct {
	Value ir.Value
}

func (Literal) operandNode() {}

// Ref names a captured caller variable held in Descriptor.Bindings.
type Ref struct {
	Name string
}

func (Ref) operandNode() {}

// DateOf constructs a date from constant year, month and day operands.
type DateOf struct {
	Year  Operand
	Month Operand
	Day   Operand
}

func (DateOf) operandNode() {}

// Compare builds Comparison{Field{field}, op, Literal{value}}.
func Compare(field string, op CompareOp, value ir.Value) Comparison {
	return Comparison{Left: Field{Name: field}, Op: op, Right: Literal{Value: value}}
}

// Equal builds field = value.
func Equal(field string, value ir.Value) Comparison {
	return Compare(field, Eq, value)
}

// AndOf folds predicates left to right: AndOf(a, b, c) is ((a AND b) AND c).
// Returns nil when called with no predicates.
func AndOf(preds ...Predicate) Predicate {
	return fold(And, preds)
}

// OrOf folds predicates left to right with OR.
func OrOf(preds ...Predicate) Predicate {
	return fold(Or, preds)
}

func fold(op LogicalOp, preds []Predicate) Predicate {
	if len(preds) == 0 {
		return nil
	}
	acc := preds[0]
	for _, p := range preds[1:] {
		acc = Logical{Op: op, Left: acc, Right: p}
	}
	return acc
}
