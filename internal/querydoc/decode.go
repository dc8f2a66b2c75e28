package querydoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/queryir"
)

// DecodeError reports a malformed query document.
type DecodeError struct {
	Line    int
	Column  int
	Path    string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: %s: %s", e.Line, e.Column, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func errorAt(n *yaml.Node, path, format string, args ...any) *DecodeError {
	e := &DecodeError{Path: path, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	return e
}

// DecodeFile reads a query document from a YAML file.
func DecodeFile(path string) (queryir.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return queryir.Descriptor{}, fmt.Errorf("failed to read query file: %w", err)
	}
	return Decode(data)
}

// Decode parses a YAML query document.
func Decode(data []byte) (queryir.Descriptor, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return queryir.Descriptor{}, nil
		}
		return queryir.Descriptor{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return DecodeNode(&doc)
}

// DecodeNode converts a parsed YAML node into a descriptor. A document node
// is unwrapped; an empty node is an empty query.
func DecodeNode(n *yaml.Node) (queryir.Descriptor, error) {
	var desc queryir.Descriptor
	if n == nil || n.Kind == 0 {
		return desc, nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return desc, nil
		}
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return desc, errorAt(n, "query", "must be a mapping")
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var err error
		switch key.Value {
		case "worksheet":
			desc.Source, err = str(val, "worksheet")
		case "sheet_index":
			var idx int
			if err = val.Decode(&idx); err != nil {
				err = errorAt(val, "sheet_index", "must be an integer")
			}
			desc.SheetIndex = &idx
		case "shape":
			desc.Shape, err = str(val, "shape")
		case "where":
			desc.Predicate, err = predicate(val, "where")
		case "select":
			desc.Projection, err = expr(val, "select")
		case "operators":
			desc.Operators, err = operators(val)
		case "bindings":
			desc.Bindings, err = bindings(val)
		default:
			err = errorAt(key, key.Value, "unknown field")
		}
		if err != nil {
			return queryir.Descriptor{}, err
		}
	}
	return desc, nil
}

func str(n *yaml.Node, path string) (string, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() == "!!null" {
		return "", errorAt(n, path, "must be a string")
	}
	return n.Value, nil
}

// single returns the only key and value of a one-entry mapping.
func single(n *yaml.Node, path string) (string, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, errorAt(n, path, "must be a mapping with exactly one key")
	}
	return n.Content[0].Value, n.Content[1], nil
}

// fields returns the values of a mapping by key, rejecting unknown keys.
func fields(n *yaml.Node, path string, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errorAt(n, path, "must be a mapping")
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		ok := false
		for _, a := range allowed {
			if a == key {
				ok = true
				break
			}
		}
		if !ok {
			return nil, errorAt(n.Content[i], path+"."+key, "unknown field")
		}
		out[key] = n.Content[i+1]
	}
	return out, nil
}

// Predicates:
//
//	{field: EmployeeCount, op: ">", value: 5}
//	{left: {value: 5}, op: "<", right: {field: EmployeeCount}}
//	{and: [p1, p2, ...]}  /  {or: [...]}
func predicate(n *yaml.Node, path string) (queryir.Predicate, error) {
	if n.Kind == yaml.MappingNode && len(n.Content) == 2 {
		switch key := n.Content[0].Value; key {
		case "and", "or":
			return logical(key, n.Content[1], path+"."+key)
		}
	}

	f, err := fields(n, path, "field", "op", "value", "ref", "date", "date_of", "left", "right")
	if err != nil {
		return nil, err
	}

	opNode, ok := f["op"]
	if !ok {
		return nil, errorAt(n, path, "op is required")
	}
	op, ok := queryir.ParseCompareOp(opNode.Value)
	if !ok {
		return nil, errorAt(opNode, path+".op", "unknown comparison operator %q", opNode.Value)
	}

	if left, ok := f["left"]; ok {
		right, ok := f["right"]
		if !ok {
			return nil, errorAt(n, path, "right is required with left")
		}
		l, err := operand(left, path+".left")
		if err != nil {
			return nil, err
		}
		r, err := operand(right, path+".right")
		if err != nil {
			return nil, err
		}
		return queryir.Comparison{Left: l, Op: op, Right: r}, nil
	}

	fieldNode, ok := f["field"]
	if !ok {
		return nil, errorAt(n, path, "field or left is required")
	}
	name, err := str(fieldNode, path+".field")
	if err != nil {
		return nil, err
	}

	rest := &yaml.Node{Kind: yaml.MappingNode, Line: n.Line, Column: n.Column}
	for _, k := range []string{"value", "ref", "date", "date_of"} {
		if v, ok := f[k]; ok {
			rest.Content = append(rest.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, v)
		}
	}
	if len(rest.Content) != 2 {
		return nil, errorAt(n, path, "exactly one of value, ref, date or date_of is required")
	}
	right, err := operand(rest, path)
	if err != nil {
		return nil, err
	}
	return queryir.Comparison{Left: queryir.Field{Name: name}, Op: op, Right: right}, nil
}

func logical(key string, n *yaml.Node, path string) (queryir.Predicate, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) < 2 {
		return nil, errorAt(n, path, "must list at least two predicates")
	}
	preds := make([]queryir.Predicate, 0, len(n.Content))
	for i, item := range n.Content {
		p, err := predicate(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if key == "and" {
		return queryir.AndOf(preds...), nil
	}
	return queryir.OrOf(preds...), nil
}

// operand decodes {field: X}, {value: V}, {ref: name}, {date: "M/d/yyyy"}
// or {date_of: {year: .., month: .., day: ..}}.
func operand(n *yaml.Node, path string) (queryir.Operand, error) {
	key, val, err := single(n, path)
	if err != nil {
		return nil, err
	}
	switch key {
	case "field":
		name, err := str(val, path+".field")
		if err != nil {
			return nil, err
		}
		return queryir.Field{Name: name}, nil
	case "value":
		v, err := scalar(val, path+".value")
		if err != nil {
			return nil, err
		}
		return queryir.Literal{Value: v}, nil
	case "ref":
		name, err := str(val, path+".ref")
		if err != nil {
			return nil, err
		}
		return queryir.Ref{Name: name}, nil
	case "date":
		d, err := date(val, path+".date")
		if err != nil {
			return nil, err
		}
		return queryir.Literal{Value: d}, nil
	case "date_of":
		return dateOf(val, path+".date_of")
	}
	return nil, errorAt(n, path, "unknown operand %q", key)
}

func dateOf(n *yaml.Node, path string) (queryir.Operand, error) {
	f, err := fields(n, path, "year", "month", "day")
	if err != nil {
		return nil, err
	}
	parts := make([]queryir.Operand, 3)
	for i, k := range []string{"year", "month", "day"} {
		v, ok := f[k]
		if !ok {
			return nil, errorAt(n, path, "%s is required", k)
		}
		if v.Kind == yaml.ScalarNode {
			lit, err := scalar(v, path+"."+k)
			if err != nil {
				return nil, err
			}
			parts[i] = queryir.Literal{Value: lit}
			continue
		}
		parts[i], err = operand(v, path+"."+k)
		if err != nil {
			return nil, err
		}
	}
	return queryir.DateOf{Year: parts[0], Month: parts[1], Day: parts[2]}, nil
}

// scalar converts a YAML scalar to a value using its resolved tag.
func scalar(n *yaml.Node, path string) (ir.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, errorAt(n, path, "must be a scalar")
	}
	switch n.ShortTag() {
	case "!!null":
		return ir.Null{}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, errorAt(n, path, "invalid integer %q", n.Value)
		}
		return ir.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, errorAt(n, path, "invalid number %q", n.Value)
		}
		return ir.Float(f), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, errorAt(n, path, "invalid boolean %q", n.Value)
		}
		return ir.Bool(b), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, errorAt(n, path, "invalid timestamp %q", n.Value)
		}
		return ir.Date(t.UTC()), nil
	}
	return ir.String(n.Value), nil
}

func date(n *yaml.Node, path string) (ir.Value, error) {
	v, err := scalar(n, path)
	if err != nil {
		return nil, err
	}
	switch d := v.(type) {
	case ir.Date:
		return d, nil
	case ir.String:
		parsed, err := ir.ParseDate(string(d))
		if err != nil {
			return nil, errorAt(n, path, "invalid date %q", n.Value)
		}
		return parsed, nil
	}
	return nil, errorAt(n, path, "invalid date %q", n.Value)
}

// Projections:
//
//	{member: Name}
//	{value: 2}  /  {date: "10/9/2008"}
//	{mul: [{member: EmployeeCount}, {value: 2}]}
//	{construct: {shape: Summary, fields: {Company: {member: Name}}}}
func expr(n *yaml.Node, path string) (queryir.Expr, error) {
	key, val, err := single(n, path)
	if err != nil {
		return nil, err
	}
	switch key {
	case "member":
		name, err := str(val, path+".member")
		if err != nil {
			return nil, err
		}
		return queryir.Member{Name: name}, nil
	case "value":
		v, err := scalar(val, path+".value")
		if err != nil {
			return nil, err
		}
		return queryir.Constant{Value: v}, nil
	case "date":
		d, err := date(val, path+".date")
		if err != nil {
			return nil, err
		}
		return queryir.Constant{Value: d}, nil
	case "construct":
		return construct(val, path+".construct")
	}

	op, ok := binaryOps[key]
	if !ok {
		return nil, errorAt(n, path, "unknown expression %q", key)
	}
	if val.Kind != yaml.SequenceNode || len(val.Content) != 2 {
		return nil, errorAt(val, path+"."+key, "must list exactly two operands")
	}
	left, err := expr(val.Content[0], path+"."+key+"[0]")
	if err != nil {
		return nil, err
	}
	right, err := expr(val.Content[1], path+"."+key+"[1]")
	if err != nil {
		return nil, err
	}
	return queryir.Binary{Op: op, Left: left, Right: right}, nil
}

var binaryOps = map[string]queryir.BinaryOp{
	"add":    queryir.Add,
	"sub":    queryir.Sub,
	"mul":    queryir.Mul,
	"div":    queryir.Div,
	"concat": queryir.Concat,
}

func construct(n *yaml.Node, path string) (queryir.Expr, error) {
	f, err := fields(n, path, "shape", "fields")
	if err != nil {
		return nil, err
	}
	var c queryir.Construct
	if s, ok := f["shape"]; ok {
		if c.Shape, err = str(s, path+".shape"); err != nil {
			return nil, err
		}
	}
	fn, ok := f["fields"]
	if !ok {
		return c, nil
	}
	if fn.Kind != yaml.MappingNode {
		return nil, errorAt(fn, path+".fields", "must be a mapping")
	}
	for i := 0; i+1 < len(fn.Content); i += 2 {
		name := fn.Content[i].Value
		e, err := expr(fn.Content[i+1], path+".fields."+name)
		if err != nil {
			return nil, err
		}
		c.Fields = append(c.Fields, queryir.Assign{Name: name, Expr: e})
	}
	return c, nil
}

// Operators are names ("Reverse", "Count", "FirstOrDefault") or one-key
// mappings ({skip: 2}, {sum: EmployeeCount}). Names are case-insensitive.
func operators(n *yaml.Node) ([]queryir.Operator, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, errorAt(n, "operators", "must be a list")
	}
	ops := make([]queryir.Operator, 0, len(n.Content))
	for i, item := range n.Content {
		path := fmt.Sprintf("operators[%d]", i)
		op, err := operator(item, path)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func operator(n *yaml.Node, path string) (queryir.Operator, error) {
	if n.Kind == yaml.ScalarNode {
		switch strings.ToLower(n.Value) {
		case "reverse":
			return queryir.Reverse{}, nil
		case "first":
			return queryir.First{}, nil
		case "firstordefault":
			return queryir.First{OrDefault: true}, nil
		case "last":
			return queryir.Last{}, nil
		case "lastordefault":
			return queryir.Last{OrDefault: true}, nil
		case "single":
			return queryir.Single{}, nil
		case "singleordefault":
			return queryir.Single{OrDefault: true}, nil
		case "count":
			return queryir.Count{}, nil
		case "longcount":
			return queryir.LongCount{}, nil
		case "sum":
			return queryir.Sum{}, nil
		case "average":
			return queryir.Average{}, nil
		case "min":
			return queryir.Min{}, nil
		case "max":
			return queryir.Max{}, nil
		}
		return nil, errorAt(n, path, "unknown operator %q", n.Value)
	}

	key, val, err := single(n, path)
	if err != nil {
		return nil, err
	}
	key = strings.ToLower(key)
	if key == "skip" {
		var count int
		if err := val.Decode(&count); err != nil {
			return nil, errorAt(val, path+".skip", "must be an integer")
		}
		return queryir.Skip{Count: count}, nil
	}

	field, err := str(val, path+"."+key)
	if err != nil {
		return nil, err
	}
	switch key {
	case "sum":
		return queryir.Sum{Field: field}, nil
	case "average":
		return queryir.Average{Field: field}, nil
	case "min":
		return queryir.Min{Field: field}, nil
	case "max":
		return queryir.Max{Field: field}, nil
	}
	return nil, errorAt(n, path, "unknown operator %q", key)
}

// bindings decodes captured values: scalars or {date: ...}.
func bindings(n *yaml.Node) (map[string]ir.Value, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errorAt(n, "bindings", "must be a mapping")
	}
	out := make(map[string]ir.Value, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, val := n.Content[i].Value, n.Content[i+1]
		path := "bindings." + name
		if val.Kind == yaml.MappingNode {
			key, inner, err := single(val, path)
			if err != nil {
				return nil, err
			}
			if key != "date" {
				return nil, errorAt(val, path, "unknown binding form %q", key)
			}
			d, err := date(inner, path+".date")
			if err != nil {
				return nil, err
			}
			out[name] = d
			continue
		}
		v, err := scalar(val, path)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
