package querysql

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/queryir"
	"github.com/roach88/sheetq/internal/shape"
)

// Generator translates query descriptors into SQL statements.
//
// Generate is deterministic and side-effect free; a Generator holds no
// per-query state and is safe for concurrent use.
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// generation carries the state of one Generate call.
type generation struct {
	resolver shape.Resolver
	bindings map[string]ir.Value
	params   []Param
	columns  []string
	seen     map[string]bool
}

// Generate converts a descriptor to a parameterized statement. Field names
// resolve to physical columns through r.
//
// desc.Source must already name the worksheet; the engine resolves defaults
// and worksheet indexes before calling Generate.
func (g *Generator) Generate(desc queryir.Descriptor, r shape.Resolver) (*Statement, error) {
	if desc.Source == "" {
		return nil, translationErrorf(nil, "worksheet name is required")
	}
	table, err := quoteIdent(desc.Source)
	if err != nil {
		return nil, err
	}

	gen := &generation{
		resolver: r,
		bindings: desc.Bindings,
		seen:     map[string]bool{},
	}
	stmt := &Statement{}

	selectList, err := gen.selectList(desc, stmt)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectList)
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	if desc.Predicate != nil {
		where, err := gen.predicate(desc.Predicate)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" Where ")
		sb.WriteString(where)
	}

	stmt.Text = sb.String()
	stmt.Params = gen.params
	stmt.Columns = gen.columns
	return stmt, nil
}

// selectList builds the column list: a pushed-down aggregate, the columns
// of a non-identity projection, or *.
func (gen *generation) selectList(desc queryir.Descriptor, stmt *Statement) (string, error) {
	agg, err := gen.aggregate(desc)
	if err != nil {
		return "", err
	}
	if agg != "" {
		stmt.Aggregate = desc.Operators[len(desc.Operators)-1]
		return agg, nil
	}

	if queryir.IsIdentity(desc.Projection, desc.Shape) {
		return "*", nil
	}
	members := queryir.Members(desc.Projection)
	if len(members) == 0 {
		return "*", nil
	}

	cols := make([]string, 0, len(members))
	for _, m := range members {
		col, err := gen.column(m)
		if err != nil {
			return "", err
		}
		cols = append(cols, col)
	}
	stmt.Fields = members
	return strings.Join(cols, ", "), nil
}

// PushedAggregate returns the terminal aggregate operator when its position
// lets the data source compute it, or nil. An aggregate is pushed only when
// no Skip precedes it; Reverse does not change an aggregate. The projection
// must also allow it; see AggregateColumn.
func PushedAggregate(ops []queryir.Operator) queryir.Operator {
	if len(ops) == 0 {
		return nil
	}
	last := ops[len(ops)-1]
	if last == nil || !queryir.IsAggregate(last) {
		return nil
	}
	for _, op := range ops[:len(ops)-1] {
		if _, ok := op.(queryir.Reverse); !ok {
			return nil
		}
	}
	return last
}

// AggregateColumn returns the source field a Sum, Average, Min or Max
// reads once projection has run, or "" when the value is computed by the
// projection and only exists in memory.
//
// The aggregate's Field names a member of the projected item. Without a
// Field the projected item itself is aggregated, so the projection must be
// scalar.
func AggregateColumn(op queryir.Operator, projection queryir.Expr, itemShape string) (string, error) {
	field := queryir.AggregateField(op)
	if queryir.IsIdentity(projection, itemShape) {
		if field == "" {
			return "", translationErrorf(op, "%s needs a field of the source item", op)
		}
		return field, nil
	}

	switch p := projection.(type) {
	case queryir.Member:
		if field != "" {
			return "", translationErrorf(op, "%s cannot read field %q of a scalar projection", op, field)
		}
		return p.Name, nil
	case queryir.Binary, queryir.Constant:
		if field != "" {
			return "", translationErrorf(op, "%s cannot read field %q of a scalar projection", op, field)
		}
		return "", nil
	case queryir.Construct:
		if field == "" {
			return "", translationErrorf(op, "%s needs a field of the projected object", op)
		}
		for _, a := range p.Fields {
			if a.Name != field {
				continue
			}
			if m, ok := a.Expr.(queryir.Member); ok {
				return m.Name, nil
			}
			return "", nil
		}
		if p.Shape == "" {
			return "", translationErrorf(op, "%s: projection has no field %q", op, field)
		}
	}
	return "", nil
}

// aggregate returns the SQL for a terminal aggregate the data source can
// compute, or "" when the aggregate runs in memory.
func (gen *generation) aggregate(desc queryir.Descriptor) (string, error) {
	ops := desc.Operators
	if len(ops) == 0 {
		return "", nil
	}
	op := ops[len(ops)-1]
	if op == nil || !queryir.IsAggregate(op) {
		return "", nil
	}

	var fn string
	switch op.(type) {
	case queryir.Count, queryir.LongCount:
		if PushedAggregate(ops) == nil {
			return "", nil
		}
		return "COUNT(*)", nil
	case queryir.Sum:
		fn = "SUM"
	case queryir.Average:
		fn = "AVG"
	case queryir.Min:
		fn = "MIN"
	case queryir.Max:
		fn = "MAX"
	default:
		return "", translationErrorf(op, "unsupported aggregate %s", op)
	}

	// checked even when the aggregate stays in memory
	source, err := AggregateColumn(op, desc.Projection, desc.Shape)
	if err != nil {
		return "", err
	}
	if source == "" || PushedAggregate(ops) == nil {
		return "", nil
	}

	col, err := gen.column(source)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", fn, col), nil
}

// predicate compiles a predicate node depth-first.
// CRITICAL: values are NEVER interpolated - always ? placeholders.
func (gen *generation) predicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Comparison:
		return gen.comparison(pred)
	case *queryir.Comparison:
		return gen.comparison(*pred)
	case queryir.Logical:
		return gen.logical(pred)
	case *queryir.Logical:
		return gen.logical(*pred)
	case nil:
		return "", translationErrorf(nil, "missing predicate operand")
	default:
		return "", translationErrorf(p, "unsupported predicate type")
	}
}

func (gen *generation) logical(l queryir.Logical) (string, error) {
	keyword := l.Op.Keyword()
	if keyword == "" {
		return "", translationErrorf(l, "unknown logical operator %d", int(l.Op))
	}
	left, err := gen.predicate(l.Left)
	if err != nil {
		return "", err
	}
	right, err := gen.predicate(l.Right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", left, keyword, right), nil
}

func (gen *generation) comparison(c queryir.Comparison) (string, error) {
	op := c.Op
	if op.Symbol() == "" {
		return "", translationErrorf(c, "unknown comparison operator %d", int(op))
	}

	leftField, leftIsField := c.Left.(queryir.Field)
	rightField, rightIsField := c.Right.(queryir.Field)

	var field string
	var constant queryir.Operand
	switch {
	case leftIsField && rightIsField:
		return "", translationErrorf(c, "comparing field %q to field %q is not supported", leftField.Name, rightField.Name)
	case leftIsField:
		field, constant = leftField.Name, c.Right
	case rightIsField:
		field, constant = rightField.Name, c.Left
		op = op.Flip()
	default:
		return "", translationErrorf(c, "comparison must reference exactly one field")
	}

	value, err := gen.constant(constant)
	if err != nil {
		return "", err
	}
	switch value.(type) {
	case ir.Null:
		return "", translationErrorf(c, "comparing field %q with null is not supported", field)
	case ir.Object:
		return "", translationErrorf(c, "field %q cannot be compared with an object", field)
	}

	col, err := gen.column(field)
	if err != nil {
		return "", err
	}
	gen.params = append(gen.params, Param{Value: value, Kind: value.Kind()})
	return fmt.Sprintf("(%s %s ?)", col, op.Symbol()), nil
}

// constant resolves an operand to a concrete value at translation time.
func (gen *generation) constant(o queryir.Operand) (ir.Value, error) {
	switch op := o.(type) {
	case queryir.Literal:
		if op.Value == nil {
			return ir.Null{}, nil
		}
		return op.Value, nil
	case queryir.Ref:
		v, ok := gen.bindings[op.Name]
		if !ok {
			return nil, translationErrorf(op, "unresolved reference %q", op.Name)
		}
		if v == nil {
			return ir.Null{}, nil
		}
		return v, nil
	case queryir.DateOf:
		return gen.dateOf(op)
	case queryir.Field:
		return nil, translationErrorf(op, "field %q is not a constant", op.Name)
	case nil:
		return nil, translationErrorf(nil, "missing comparison operand")
	default:
		return nil, translationErrorf(o, "unsupported operand")
	}
}

func (gen *generation) dateOf(d queryir.DateOf) (ir.Value, error) {
	var parts [3]int
	for i, o := range []queryir.Operand{d.Year, d.Month, d.Day} {
		v, err := gen.constant(o)
		if err != nil {
			return nil, err
		}
		n, ok := integral(v)
		if !ok {
			return nil, translationErrorf(d, "date part must be an integer, got %s", v.Kind())
		}
		parts[i] = n
	}

	date := ir.NewDate(parts[0], parts[1], parts[2])
	t := date.Time()
	if t.Year() != parts[0] || int(t.Month()) != parts[1] || t.Day() != parts[2] {
		return nil, translationErrorf(d, "invalid date %d-%d-%d", parts[0], parts[1], parts[2])
	}
	return date, nil
}

func integral(v ir.Value) (int, bool) {
	switch n := v.(type) {
	case ir.Int:
		return int(n), true
	case ir.Float:
		if f := float64(n); f == math.Trunc(f) {
			return int(f), true
		}
	}
	return 0, false
}

// column resolves a logical field, records it, and returns it bracketed.
func (gen *generation) column(field string) (string, error) {
	col := gen.resolver.Resolve(field)
	quoted, err := quoteIdent(col)
	if err != nil {
		return "", err
	}
	if !gen.seen[col] {
		gen.seen[col] = true
		gen.columns = append(gen.columns, col)
	}
	return quoted, nil
}

// quoteIdent brackets a table or column name. Bracketed identifiers cannot
// contain a closing bracket.
func quoteIdent(name string) (string, error) {
	if name == "" {
		return "", translationErrorf(nil, "empty identifier")
	}
	if strings.Contains(name, "]") {
		return "", translationErrorf(nil, "identifier %q cannot contain ']'", name)
	}
	return "[" + name + "]", nil
}
