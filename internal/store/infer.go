package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/sheetq/internal/ir"
)

// columnType is a SQLite column declaration.
type columnType string

const (
	typeInteger columnType = "INTEGER"
	typeReal    columnType = "REAL"
	typeText    columnType = "TEXT"
)

// inferColumns normalizes cells and picks a type per column. Returned rows
// are padded to the column count and hold int64, float64, string or nil.
func inferColumns(columns []string, in [][]any) ([]columnType, [][]any, error) {
	cells := make([][]any, len(in))
	for i, row := range in {
		out := make([]any, len(columns))
		for j := range out {
			if j >= len(row) {
				continue
			}
			v, err := normalizeCell(row[j])
			if err != nil {
				return nil, nil, fmt.Errorf("row %d, column %q: %w", i+1, columns[j], err)
			}
			out[j] = v
		}
		cells[i] = out
	}

	types := make([]columnType, len(columns))
	for j := range columns {
		types[j] = inferType(cells, j)
		for _, row := range cells {
			row[j] = storeAs(row[j], types[j])
		}
	}
	return types, cells, nil
}

// normalizeCell converts a cell to an ir value. Text that parses as an
// integer, a float, or a date is converted; other text stays text.
func normalizeCell(raw any) (ir.Value, error) {
	if s, ok := raw.(string); ok {
		return parseText(s), nil
	}
	if t, ok := raw.(time.Time); ok {
		return ir.Date(t.UTC()), nil
	}
	return ir.FromNative(raw)
}

func parseText(s string) ir.Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ir.Null{}
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return ir.Int(n)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return ir.Float(f)
	}
	if strings.EqualFold(trimmed, "true") || strings.EqualFold(trimmed, "false") {
		return ir.Bool(strings.EqualFold(trimmed, "true"))
	}
	if looksLikeDate(trimmed) {
		if d, err := ir.ParseDate(trimmed); err == nil {
			return d
		}
	}
	return ir.String(s)
}

// looksLikeDate keeps ParseDate away from text that merely contains digits.
func looksLikeDate(s string) bool {
	return len(s) >= 8 && s[0] >= '0' && s[0] <= '9' && strings.ContainsAny(s, "/-")
}

// inferType picks INTEGER for integer or boolean columns, REAL for numeric
// ones and TEXT for anything else. Booleans are stored as 0/1 so they
// compare equal to boolean parameters.
func inferType(cells [][]any, j int) columnType {
	var ints, floats, bools, others int
	for _, row := range cells {
		switch row[j].(type) {
		case ir.Null, nil:
		case ir.Int:
			ints++
		case ir.Float:
			floats++
		case ir.Bool:
			bools++
		default:
			others++
		}
	}
	switch {
	case others > 0:
		return typeText
	case bools > 0 && ints+floats > 0:
		return typeText
	case bools > 0:
		return typeInteger
	case floats > 0:
		return typeReal
	case ints > 0:
		return typeInteger
	}
	return typeText
}

// storeAs converts a normalized cell to the driver value for its column.
func storeAs(v any, t columnType) any {
	val, ok := v.(ir.Value)
	if !ok {
		return nil
	}
	if _, null := val.(ir.Null); null {
		return nil
	}
	switch t {
	case typeInteger:
		switch n := val.(type) {
		case ir.Int:
			return int64(n)
		case ir.Bool:
			if n {
				return int64(1)
			}
			return int64(0)
		}
	case typeReal:
		if f, ok := ir.AsFloat(val); ok {
			return f
		}
	}
	return ir.Format(val)
}
