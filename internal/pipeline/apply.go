package pipeline

import (
	"fmt"

	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/queryir"
	"github.com/roach88/sheetq/internal/rows"
	"github.com/roach88/sheetq/internal/shape"
)

// Result is the outcome of a query: either a sequence of items or a single
// scalar produced by a terminal operator.
type Result struct {
	Items    []any
	Scalar   any
	IsScalar bool
}

// Values returns the result as a slice: the items, or the scalar alone.
func (r Result) Values() []any {
	if r.IsScalar {
		return []any{r.Scalar}
	}
	return r.Items
}

// Option configures Apply.
type Option func(*applier)

// WithShape lets aggregates read named fields of typed items.
func WithShape(s *shape.Shape) Option {
	return func(a *applier) {
		a.shape = s
	}
}

// WithResolver maps the field names aggregates read from generic rows to
// their columns.
func WithResolver(r shape.Resolver) Option {
	return func(a *applier) {
		a.resolver = r
	}
}

type applier struct {
	shape    *shape.Shape
	resolver shape.Resolver
}

// Apply runs ops over seq in declaration order.
//
// pushed is the aggregate already computed by the data source, or nil. When
// set, seq holds the single scalar value and the aggregate is never applied
// twice. A NULL from the data source means no values were aggregated and
// gets the same result as the in-memory path.
func Apply(seq []any, ops []queryir.Operator, pushed queryir.Operator, opts ...Option) (Result, error) {
	a := &applier{}
	for _, opt := range opts {
		opt(a)
	}

	if pushed != nil {
		return pushedResult(pushed, seq)
	}

	items := seq
	for _, op := range ops {
		switch o := op.(type) {
		case queryir.Reverse:
			items = reverse(items)
		case queryir.Skip:
			if o.Count < 0 {
				return Result{}, fmt.Errorf("%s: count must be non-negative", o)
			}
			if o.Count >= len(items) {
				items = nil
			} else {
				items = items[o.Count:]
			}
		case queryir.First:
			return pick(o, items, o.OrDefault, func(s []any) any { return s[0] })
		case queryir.Last:
			return pick(o, items, o.OrDefault, func(s []any) any { return s[len(s)-1] })
		case queryir.Single:
			if len(items) > 1 {
				return Result{}, &SequenceError{Op: o.String(), Err: ErrMultipleResults}
			}
			return pick(o, items, o.OrDefault, func(s []any) any { return s[0] })
		case queryir.Count, queryir.LongCount:
			return Result{Scalar: ir.Int(len(items)), IsScalar: true}, nil
		case queryir.Sum, queryir.Average, queryir.Min, queryir.Max:
			v, err := a.aggregate(op, items)
			if err != nil {
				return Result{}, err
			}
			return Result{Scalar: v, IsScalar: true}, nil
		case nil:
			return Result{}, fmt.Errorf("nil operator")
		default:
			return Result{}, fmt.Errorf("unsupported operator %s", op)
		}
	}

	if items == nil {
		items = []any{}
	}
	return Result{Items: items}, nil
}

func pushedResult(op queryir.Operator, seq []any) (Result, error) {
	var v any = ir.Null{}
	if len(seq) > 0 && seq[0] != nil {
		v = seq[0]
	}
	if _, null := v.(ir.Null); null {
		switch op.(type) {
		case queryir.Count, queryir.LongCount, queryir.Sum:
			v = ir.Int(0)
		default:
			return Result{}, &SequenceError{Op: op.String(), Err: ErrEmptySequence}
		}
	}
	return Result{Scalar: v, IsScalar: true}, nil
}

func reverse(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}

func pick(op queryir.Operator, items []any, orDefault bool, at func([]any) any) (Result, error) {
	if len(items) == 0 {
		if orDefault {
			return Result{Scalar: nil, IsScalar: true}, nil
		}
		return Result{}, &SequenceError{Op: op.String(), Err: ErrEmptySequence}
	}
	return Result{Scalar: at(items), IsScalar: true}, nil
}

func (a *applier) aggregate(op queryir.Operator, items []any) (ir.Value, error) {
	field := queryir.AggregateField(op)

	values := make([]ir.Value, 0, len(items))
	for i, item := range items {
		v, err := a.valueOf(item, field)
		if err != nil {
			return nil, fmt.Errorf("%s: item %d: %w", op, i, err)
		}
		if _, null := v.(ir.Null); null {
			continue
		}
		values = append(values, v)
	}

	switch op.(type) {
	case queryir.Sum:
		return sum(op, values)
	case queryir.Average:
		if len(values) == 0 {
			return nil, &SequenceError{Op: op.String(), Err: ErrEmptySequence}
		}
		total, err := sum(op, values)
		if err != nil {
			return nil, err
		}
		f, _ := ir.AsFloat(total)
		return ir.Float(f / float64(len(values))), nil
	case queryir.Min:
		return extreme(op, values, -1)
	default:
		return extreme(op, values, 1)
	}
}

// valueOf reads field from item. An empty field means the item itself is
// the value, as produced by a scalar projection.
func (a *applier) valueOf(item any, field string) (ir.Value, error) {
	if field == "" {
		return ir.FromNative(item)
	}
	switch it := item.(type) {
	case rows.Row:
		return it.Get(a.resolver.Resolve(field)), nil
	case *shape.Record:
		return it.Get(field), nil
	case ir.Object:
		if v, ok := it[field]; ok {
			return v, nil
		}
		return ir.Null{}, nil
	}
	if f, ok := a.shape.Field(field); ok {
		return f.Get(item), nil
	}
	return nil, fmt.Errorf("cannot read field %q of %T", field, item)
}

func sum(op queryir.Operator, values []ir.Value) (ir.Value, error) {
	var ints int64
	var floats float64
	isFloat := false
	for _, v := range values {
		switch n := v.(type) {
		case ir.Int:
			ints += int64(n)
		case ir.Float:
			floats += float64(n)
			isFloat = true
		default:
			return nil, fmt.Errorf("%s: cannot sum %s values", op, v.Kind())
		}
	}
	if isFloat {
		return ir.Float(floats + float64(ints)), nil
	}
	return ir.Int(ints), nil
}

func extreme(op queryir.Operator, values []ir.Value, sign int) (ir.Value, error) {
	if len(values) == 0 {
		return nil, &SequenceError{Op: op.String(), Err: ErrEmptySequence}
	}
	best := values[0]
	for _, v := range values[1:] {
		c, err := ir.Compare(v, best)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if c*sign > 0 {
			best = v
		}
	}
	return best, nil
}
