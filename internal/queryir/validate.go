package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult lists construction problems found in a Descriptor.
//
// These are caller errors a front-end must reject before translation:
// terminal operators in the middle of the operator list, negative Skip
// counts, incomplete predicate nodes, worksheet names that cannot be quoted.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each violation found.
	Problems []string
}

// Err returns a *ValidationError when the result is not valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Problems: r.Problems}
}

// ValidationError reports an invalid Descriptor.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

// Validate checks that a Descriptor is well formed.
//
// Validate is a pure function with no side effects.
func Validate(desc Descriptor) ValidationResult {
	v := &validator{
		problems: []string{},
	}
	v.validateSource(desc)
	v.validatePredicate(desc.Predicate)
	v.validateExpr(desc.Projection)
	v.validateOperators(desc.Operators)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateSource(desc Descriptor) {
	if strings.ContainsAny(desc.Source, "[]") {
		v.addProblem("worksheet name %q cannot contain square brackets", desc.Source)
	}
	if desc.SheetIndex != nil && *desc.SheetIndex < 0 {
		v.addProblem("worksheet index %d is negative", *desc.SheetIndex)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return
	}

	switch pred := p.(type) {
	case Comparison:
		v.validateComparison(pred)
	case *Comparison:
		v.validateComparison(*pred)
	case Logical:
		v.validateLogical(pred)
	case *Logical:
		v.validateLogical(*pred)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateComparison(c Comparison) {
	if c.Op.Symbol() == "" {
		v.addProblem("unknown comparison operator %d", int(c.Op))
	}
	if c.Left == nil || c.Right == nil {
		v.addProblem("comparison is missing an operand")
	}
}

func (v *validator) validateLogical(l Logical) {
	if l.Op.Keyword() == "" {
		v.addProblem("unknown logical operator %d", int(l.Op))
	}
	if l.Left == nil || l.Right == nil {
		v.addProblem("%s node is missing an operand", l.Op.Keyword())
	}
	v.validatePredicate(l.Left)
	v.validatePredicate(l.Right)
}

func (v *validator) validateExpr(e Expr) {
	switch n := e.(type) {
	case nil, Member, Constant:
	case Binary:
		if n.Left == nil || n.Right == nil {
			v.addProblem("binary %s is missing an operand", n.Op)
		}
		v.validateExpr(n.Left)
		v.validateExpr(n.Right)
	case Construct:
		seen := map[string]bool{}
		for _, f := range n.Fields {
			if seen[f.Name] {
				v.addProblem("field %q assigned twice", f.Name)
			}
			seen[f.Name] = true
			if f.Expr == nil {
				v.addProblem("field %q has no expression", f.Name)
			}
			v.validateExpr(f.Expr)
		}
	default:
		v.addProblem("unknown projection node %T", e)
	}
}

func (v *validator) validateOperators(ops []Operator) {
	for i, op := range ops {
		if op == nil {
			v.addProblem("operator %d is nil", i)
			continue
		}
		if op.Terminal() && i != len(ops)-1 {
			v.addProblem("%s must be the last operator (found at position %d of %d)", op, i+1, len(ops))
		}
		if s, ok := op.(Skip); ok && s.Count < 0 {
			v.addProblem("Skip count must be non-negative, got %d", s.Count)
		}
	}
}
