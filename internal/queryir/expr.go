package queryir

import "github.com/roach88/sheetq/internal/ir"

// Expr is a node of a projection expression tree.
//
// This is a sealed interface - Member, Constant, Binary and Construct
// implement it. A nil Expr is the identity projection.
type Expr interface {
	exprNode()
}

// Member reads a logical field of the current item.
type Member struct {
	Name string
}

func (Member) exprNode() {}

// Constant is a fixed value.
type Constant struct {
	Value ir.Value
}

func (Constant) exprNode() {}

// BinaryOp is an arithmetic or string operator.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Concat
)

var binarySymbols = map[BinaryOp]string{
	Add:    "+",
	Sub:    "-",
	Mul:    "*",
	Div:    "/",
	Concat: "&",
}

func (op BinaryOp) String() string {
	if s, ok := binarySymbols[op]; ok {
		return s
	}
	return "?"
}

// ParseBinaryOp accepts "+", "-", "*", "/", "&" and "concat".
func ParseBinaryOp(s string) (BinaryOp, bool) {
	if s == "concat" {
		return Concat, true
	}
	for op, sym := range binarySymbols {
		if sym == s {
			return op, true
		}
	}
	return 0, false
}

// Binary applies Op to two sub-expressions.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (Binary) exprNode() {}

// Assign sets one field of a constructed value.
type Assign struct {
	Name string
	Expr Expr
}

// Construct builds an output value from named field assignments.
//
// With a Shape name, the registered shape's constructor is used and each
// Assign sets the field of that name. With an empty Shape the result is an
// ir.Object keyed by the Assign names.
type Construct struct {
	Shape  string
	Fields []Assign
}

func (Construct) exprNode() {}

// Members returns the distinct member names referenced by expr, in first
// reference order (depth-first, left to right).
func Members(expr Expr) []string {
	var names []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Member:
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		case Binary:
			walk(n.Left)
			walk(n.Right)
		case Construct:
			for _, f := range n.Fields {
				walk(f.Expr)
			}
		}
	}
	walk(expr)
	return names
}

// IsIdentity reports whether expr passes the source item through unchanged:
// a nil expression, or a Construct of the item shape itself with no field
// assignments.
func IsIdentity(expr Expr, itemShape string) bool {
	switch e := expr.(type) {
	case nil:
		return true
	case Construct:
		return e.Shape != "" && e.Shape == itemShape && len(e.Fields) == 0
	}
	return false
}
