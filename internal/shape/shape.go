package shape

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/roach88/sheetq/internal/ir"
)

// RowShapeName names the generic Row shape. Queries against it materialize
// rows.Row values with lazy, untyped cells.
const RowShapeName = "Row"

// RowShape is the generic row shape. It has no declared fields.
var RowShape = &Shape{Name: RowShapeName, generic: true}

// Shape is an ordered, table-driven description of an item type.
//
// Fields are resolved once per query. Materialization creates an item with
// New and assigns fields through Field.Set; projections read them back with
// Field.Get. No reflection is involved.
type Shape struct {
	Name   string
	Fields []Field
	New    func() any

	generic bool
}

// Field describes one declared field of a shape.
type Field struct {
	// Name is the logical field name used in predicates and projections.
	Name string

	// Kind is the declared semantic type; cells are coerced to it.
	Kind ir.Kind

	// Column overrides the physical column name (empty = use Name).
	Column string

	// Set assigns an already-coerced value to the field of obj.
	Set func(obj any, v ir.Value)

	// Get reads the field of obj.
	Get func(obj any) ir.Value
}

// WithColumn returns a copy of f mapped to a physical column.
func (f Field) WithColumn(column string) Field {
	f.Column = column
	return f
}

// IsRow reports whether s is the generic Row shape.
func (s *Shape) IsRow() bool {
	return s != nil && s.generic
}

// Field looks up a declared field by logical name.
func (s *Shape) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Only returns a shape with the same constructor restricted to the named
// fields, in the shape's declared order. Unknown names are ignored. The Row
// shape is returned unchanged.
func (s *Shape) Only(names ...string) *Shape {
	if s.IsRow() {
		return s
	}
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	sub := &Shape{Name: s.Name, New: s.New}
	for _, f := range s.Fields {
		if keep[f.Name] {
			sub.Fields = append(sub.Fields, f)
		}
	}
	return sub
}

// Define builds a shape for the struct type T. Fields are created with the
// typed helpers String, Int, Float, Bool and Time.
//
// Example:
//
//	companies := shape.Define[Company]("Company",
//	    shape.String("Name", func(c *Company) *string { return &c.Name }),
//	    shape.Int("EmployeeCount", func(c *Company) *int { return &c.EmployeeCount }),
//	)
func Define[T any](name string, fields ...Field) *Shape {
	return &Shape{
		Name:   name,
		Fields: fields,
		New:    func() any { return new(T) },
	}
}

// String declares a text field of T.
func String[T any](name string, ptr func(*T) *string) Field {
	return Field{
		Name: name,
		Kind: ir.KindString,
		Set: func(obj any, v ir.Value) {
			if s, ok := v.(ir.String); ok {
				*ptr(obj.(*T)) = string(s)
			}
		},
		Get: func(obj any) ir.Value { return ir.String(*ptr(obj.(*T))) },
	}
}

// Int declares an integer field of T.
func Int[T any](name string, ptr func(*T) *int) Field {
	return Field{
		Name: name,
		Kind: ir.KindInt,
		Set: func(obj any, v ir.Value) {
			if n, ok := v.(ir.Int); ok {
				*ptr(obj.(*T)) = int(n)
			}
		},
		Get: func(obj any) ir.Value { return ir.Int(*ptr(obj.(*T))) },
	}
}

// Float declares a floating point field of T.
func Float[T any](name string, ptr func(*T) *float64) Field {
	return Field{
		Name: name,
		Kind: ir.KindFloat,
		Set: func(obj any, v ir.Value) {
			if f, ok := v.(ir.Float); ok {
				*ptr(obj.(*T)) = float64(f)
			}
		},
		Get: func(obj any) ir.Value { return ir.Float(*ptr(obj.(*T))) },
	}
}

// Bool declares a boolean field of T.
func Bool[T any](name string, ptr func(*T) *bool) Field {
	return Field{
		Name: name,
		Kind: ir.KindBool,
		Set: func(obj any, v ir.Value) {
			if b, ok := v.(ir.Bool); ok {
				*ptr(obj.(*T)) = bool(b)
			}
		},
		Get: func(obj any) ir.Value { return ir.Bool(*ptr(obj.(*T))) },
	}
}

// Time declares a date/time field of T.
func Time[T any](name string, ptr func(*T) *time.Time) Field {
	return Field{
		Name: name,
		Kind: ir.KindDate,
		Set: func(obj any, v ir.Value) {
			if d, ok := v.(ir.Date); ok {
				*ptr(obj.(*T)) = d.Time()
			}
		},
		Get: func(obj any) ir.Value { return ir.Date(*ptr(obj.(*T))) },
	}
}

// FieldSpec declares a field of a dynamic shape.
type FieldSpec struct {
	Name   string
	Kind   ir.Kind
	Column string
}

// Dynamic builds a shape whose items are *Record values. It serves shapes
// declared in configuration rather than Go code.
func Dynamic(name string, specs ...FieldSpec) *Shape {
	s := &Shape{Name: name}
	for i, spec := range specs {
		idx := i
		s.Fields = append(s.Fields, Field{
			Name:   spec.Name,
			Kind:   spec.Kind,
			Column: spec.Column,
			Set: func(obj any, v ir.Value) {
				obj.(*Record).values[idx] = v
			},
			Get: func(obj any) ir.Value {
				return obj.(*Record).values[idx]
			},
		})
	}
	s.New = func() any { return newRecord(s, len(specs)) }
	return s
}

// Record is an item of a dynamic shape.
type Record struct {
	shape  *Shape
	values []ir.Value
}

func newRecord(s *Shape, n int) *Record {
	values := make([]ir.Value, n)
	for i := range values {
		values[i] = ir.Null{}
	}
	return &Record{shape: s, values: values}
}

// Get returns the value of a field, or ir.Null if the field is unknown.
func (r *Record) Get(name string) ir.Value {
	for i, f := range r.shape.Fields {
		if f.Name == name {
			return r.values[i]
		}
	}
	return ir.Null{}
}

// Shape returns the record's shape.
func (r *Record) Shape() *Shape {
	return r.shape
}

// MarshalJSON encodes the record as an object in declared field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.shape.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
