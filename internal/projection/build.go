package projection

import (
	"fmt"
	"math"

	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/queryir"
	"github.com/roach88/sheetq/internal/rows"
	"github.com/roach88/sheetq/internal/shape"
)

// Projector maps one materialized item to one output value.
type Projector func(item any) (any, error)

// evaluator computes a scalar sub-expression for one item.
type evaluator func(item any) (ir.Value, error)

// builder carries the inputs shared by one Build call.
type builder struct {
	item     *shape.Shape
	resolver shape.Resolver
	registry *shape.Registry
}

// Identity returns its item unchanged.
func Identity(item any) (any, error) {
	return item, nil
}

// IsIdentity reports whether expr passes items of shape item through
// unchanged.
func IsIdentity(expr queryir.Expr, item *shape.Shape) bool {
	name := shape.RowShapeName
	if item != nil {
		name = item.Name
	}
	return queryir.IsIdentity(expr, name)
}

// Build compiles a projection once per query. Member references are checked
// against item at build time; on the generic Row shape they resolve to
// physical columns through r and are checked when evaluated.
//
// A top-level Construct yields a constructed item (a value of the named
// shape, or an ir.Object). Any other expression yields an ir.Value.
func Build(expr queryir.Expr, item *shape.Shape, r shape.Resolver, reg *shape.Registry) (Projector, error) {
	if IsIdentity(expr, item) {
		return Identity, nil
	}
	if item == nil {
		item = shape.RowShape
	}
	b := &builder{item: item, resolver: r, registry: reg}

	if c, ok := expr.(queryir.Construct); ok {
		return b.construct(c)
	}
	eval, err := b.scalar(expr)
	if err != nil {
		return nil, err
	}
	return func(obj any) (any, error) {
		return eval(obj)
	}, nil
}

// Project applies p to every item of seq in order.
func Project(p Projector, seq []any) ([]any, error) {
	if p == nil {
		return seq, nil
	}
	out := make([]any, 0, len(seq))
	for i, item := range seq {
		v, err := p(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (b *builder) construct(c queryir.Construct) (Projector, error) {
	if c.Shape == "" {
		return b.object(c)
	}

	target, ok := b.registry.Lookup(c.Shape)
	if !ok || target.IsRow() {
		return nil, &ProjectionError{Shape: c.Shape, Reason: "unknown shape"}
	}

	assigns := c.Fields
	if len(assigns) == 0 {
		// Copy same-named fields from the item.
		for _, f := range target.Fields {
			assigns = append(assigns, queryir.Assign{Name: f.Name, Expr: queryir.Member{Name: f.Name}})
		}
	}

	type setter struct {
		field shape.Field
		eval  evaluator
	}
	setters := make([]setter, 0, len(assigns))
	for _, a := range assigns {
		f, ok := target.Field(a.Name)
		if !ok {
			return nil, &ProjectionError{Member: a.Name, Shape: c.Shape, Reason: "no such field on target shape"}
		}
		eval, err := b.scalar(a.Expr)
		if err != nil {
			return nil, err
		}
		setters = append(setters, setter{field: f, eval: eval})
	}

	return func(obj any) (any, error) {
		out := target.New()
		for _, s := range setters {
			v, err := s.eval(obj)
			if err != nil {
				return nil, err
			}
			v, err = rows.Coerce(v, s.field.Kind)
			if err != nil {
				return nil, &ProjectionError{Member: s.field.Name, Shape: target.Name, Reason: err.Error()}
			}
			if _, null := v.(ir.Null); null {
				continue
			}
			s.field.Set(out, v)
		}
		return out, nil
	}, nil
}

func (b *builder) object(c queryir.Construct) (Projector, error) {
	names := make([]string, 0, len(c.Fields))
	evals := make([]evaluator, 0, len(c.Fields))
	for _, a := range c.Fields {
		eval, err := b.scalar(a.Expr)
		if err != nil {
			return nil, err
		}
		names = append(names, a.Name)
		evals = append(evals, eval)
	}

	return func(obj any) (any, error) {
		out := make(ir.Object, len(names))
		for i, eval := range evals {
			v, err := eval(obj)
			if err != nil {
				return nil, err
			}
			out[names[i]] = v
		}
		return out, nil
	}, nil
}

func (b *builder) scalar(expr queryir.Expr) (evaluator, error) {
	switch e := expr.(type) {
	case queryir.Member:
		return b.member(e.Name)
	case queryir.Constant:
		v := e.Value
		if v == nil {
			v = ir.Null{}
		}
		return func(any) (ir.Value, error) { return v, nil }, nil
	case queryir.Binary:
		return b.binary(e)
	case queryir.Construct:
		return nil, &ProjectionError{Shape: e.Shape, Reason: "nested construction is not supported"}
	case nil:
		return nil, &ProjectionError{Reason: "missing expression"}
	default:
		return nil, &ProjectionError{Reason: fmt.Sprintf("unsupported expression %T", expr)}
	}
}

func (b *builder) member(name string) (evaluator, error) {
	if b.item.IsRow() {
		column := b.resolver.Resolve(name)
		return func(obj any) (ir.Value, error) {
			row, ok := obj.(rows.Row)
			if !ok {
				return nil, &ProjectionError{Member: name, Shape: shape.RowShapeName, Reason: fmt.Sprintf("item is %T, not a row", obj)}
			}
			cell, ok := row.Cell(column)
			if !ok {
				return nil, &ProjectionError{Member: name, Shape: shape.RowShapeName, Reason: fmt.Sprintf("column '%s' is not in the row", column)}
			}
			return cell.Value(), nil
		}, nil
	}

	f, ok := b.item.Field(name)
	if !ok {
		return nil, &ProjectionError{Member: name, Shape: b.item.Name, Reason: "unknown member"}
	}
	return func(obj any) (ir.Value, error) {
		return f.Get(obj), nil
	}, nil
}

func (b *builder) binary(e queryir.Binary) (evaluator, error) {
	left, err := b.scalar(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.scalar(e.Right)
	if err != nil {
		return nil, err
	}
	apply, ok := binaryFuncs[e.Op]
	if !ok {
		return nil, &ProjectionError{Reason: fmt.Sprintf("unknown operator %d", int(e.Op))}
	}

	return func(obj any) (ir.Value, error) {
		l, err := left(obj)
		if err != nil {
			return nil, err
		}
		r, err := right(obj)
		if err != nil {
			return nil, err
		}
		v, err := apply(l, r)
		if err != nil {
			return nil, &ProjectionError{Reason: fmt.Sprintf("%s %s %s: %v", ir.Format(l), e.Op, ir.Format(r), err)}
		}
		return v, nil
	}, nil
}

var binaryFuncs = map[queryir.BinaryOp]func(l, r ir.Value) (ir.Value, error){
	queryir.Add:    add,
	queryir.Sub:    arithmetic(func(a, b int64) (int64, error) { return a - b, nil }, func(a, b float64) float64 { return a - b }),
	queryir.Mul:    arithmetic(func(a, b int64) (int64, error) { return a * b, nil }, func(a, b float64) float64 { return a * b }),
	queryir.Div:    divide,
	queryir.Concat: concat,
}

func concat(l, r ir.Value) (ir.Value, error) {
	return ir.String(ir.Format(l) + ir.Format(r)), nil
}

func add(l, r ir.Value) (ir.Value, error) {
	_, ls := l.(ir.String)
	_, rs := r.(ir.String)
	if ls || rs {
		return concat(l, r)
	}
	return arithmetic(func(a, b int64) (int64, error) { return a + b, nil }, func(a, b float64) float64 { return a + b })(l, r)
}

func divide(l, r ir.Value) (ir.Value, error) {
	if f, ok := ir.AsFloat(r); ok && f == 0 {
		if _, null := l.(ir.Null); !null {
			return nil, fmt.Errorf("division by zero")
		}
	}
	return arithmetic(func(a, b int64) (int64, error) {
		if a == math.MinInt64 && b == -1 {
			return 0, fmt.Errorf("integer overflow")
		}
		return a / b, nil
	}, func(a, b float64) float64 { return a / b })(l, r)
}

// arithmetic lifts integer and float operations over ir values. Two Ints
// stay integral, any Float promotes both sides, Null propagates.
func arithmetic(ints func(a, b int64) (int64, error), floats func(a, b float64) float64) func(l, r ir.Value) (ir.Value, error) {
	return func(l, r ir.Value) (ir.Value, error) {
		_, ln := l.(ir.Null)
		_, rn := r.(ir.Null)
		if ln || rn {
			return ir.Null{}, nil
		}

		li, lInt := l.(ir.Int)
		ri, rInt := r.(ir.Int)
		if lInt && rInt {
			n, err := ints(int64(li), int64(ri))
			if err != nil {
				return nil, err
			}
			return ir.Int(n), nil
		}

		lf, lok := ir.AsFloat(l)
		rf, rok := ir.AsFloat(r)
		if !lok || !rok {
			return nil, fmt.Errorf("operands must be numeric, got %s and %s", l.Kind(), r.Kind())
		}
		return ir.Float(floats(lf, rf)), nil
	}
}
