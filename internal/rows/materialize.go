package rows

import (
	"fmt"
	"log/slog"

	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/shape"
)

// Warner receives non-fatal materialization warnings. *slog.Logger
// satisfies it.
type Warner interface {
	Warn(msg string, args ...any)
}

// Materializer converts raw rows into items of a shape.
//
// A Materializer has no per-query state and is safe for concurrent use.
type Materializer struct {
	warner Warner
}

// NewMaterializer creates a Materializer. A nil Warner discards warnings.
func NewMaterializer(w Warner) *Materializer {
	if w == nil {
		w = slog.New(slog.DiscardHandler)
	}
	return &Materializer{warner: w}
}

// binding ties a shape field to its column position. index is -1 when the
// column is absent from the result.
type binding struct {
	field  shape.Field
	column string
	index  int
}

// MaterializeAll materializes every raw row into an item of s.
//
// Fields are bound to columns once. Each explicitly mapped field whose
// column is missing produces exactly one warning for the whole call. For the
// generic Row shape the result holds Row values; otherwise it holds the
// values returned by s.New.
func (m *Materializer) MaterializeAll(raw *RawRows, s *shape.Shape, r shape.Resolver) ([]any, error) {
	if raw == nil {
		return nil, nil
	}
	idx := newColumnIndex(raw.Columns)

	items := make([]any, 0, len(raw.Values))
	if s == nil || s.IsRow() {
		for _, values := range raw.Values {
			items = append(items, Row{index: idx, values: values})
		}
		return items, nil
	}

	bindings := m.bind(idx, raw.Table, s, r)
	for i, values := range raw.Values {
		item, err := materialize(values, s, bindings)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (m *Materializer) bind(idx *columnIndex, table string, s *shape.Shape, r shape.Resolver) []binding {
	bindings := make([]binding, 0, len(s.Fields))
	for _, f := range s.Fields {
		col := r.Resolve(f.Name)
		i, ok := idx.lookup(col)
		if !ok {
			i = -1
			if r.Explicit(f.Name) {
				m.warner.Warn(
					fmt.Sprintf("'%s' column that is mapped to the '%s' property does not exist in the '%s' worksheet", col, f.Name, table),
					"column", col,
					"field", f.Name,
					"worksheet", table,
				)
			}
		}
		bindings = append(bindings, binding{field: f, column: col, index: i})
	}
	return bindings
}

func materialize(values []any, s *shape.Shape, bindings []binding) (any, error) {
	obj := s.New()
	for _, b := range bindings {
		if b.index < 0 || b.index >= len(values) {
			continue
		}
		raw := values[b.index]
		v, err := Coerce(raw, b.field.Kind)
		if err != nil {
			return nil, &ConversionError{
				Column: b.column,
				Field:  b.field.Name,
				Kind:   b.field.Kind,
				Raw:    raw,
				Err:    err,
			}
		}
		if _, null := v.(ir.Null); null {
			continue
		}
		b.field.Set(obj, v)
	}
	return obj, nil
}

// MaterializeScalar returns the single value of an aggregate result.
// An empty result is ir.Null.
func MaterializeScalar(raw *RawRows) (ir.Value, error) {
	if raw.Len() == 0 {
		return ir.Null{}, nil
	}
	if raw.Len() > 1 || len(raw.Values[0]) != 1 {
		return nil, fmt.Errorf("scalar result must be one cell, got %d rows of %d columns", raw.Len(), len(raw.Values[0]))
	}
	v, err := ir.FromNative(raw.Values[0][0])
	if err != nil {
		return nil, fmt.Errorf("scalar result: %w", err)
	}
	return v, nil
}
