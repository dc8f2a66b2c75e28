package rows

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/sheetq/internal/ir"
)

// Cell is one raw value of a row. Conversions are recomputed from the raw
// value on every call; a Cell never caches or mutates.
type Cell struct {
	column string
	raw    any
}

// NewCell wraps a raw driver value.
func NewCell(column string, raw any) Cell {
	return Cell{column: column, raw: raw}
}

// Column returns the physical column name of the cell.
func (c Cell) Column() string { return c.column }

// Raw returns the driver value as returned by the data source.
func (c Cell) Raw() any { return c.raw }

// IsNull reports whether the cell is empty.
func (c Cell) IsNull() bool { return c.raw == nil }

// Value returns the cell as an ir.Value without coercion.
func (c Cell) Value() ir.Value {
	v, err := ir.FromNative(c.raw)
	if err != nil {
		return ir.String(fmt.Sprint(c.raw))
	}
	return v
}

// String returns the canonical text of the cell. Empty cells are "".
func (c Cell) String() string {
	return ir.Format(c.Value())
}

// Int converts the cell to an integer.
func (c Cell) Int() (int64, error) {
	v, err := c.As(ir.KindInt)
	if err != nil {
		return 0, err
	}
	n, _ := v.(ir.Int)
	return int64(n), nil
}

// Float converts the cell to a float.
func (c Cell) Float() (float64, error) {
	v, err := c.As(ir.KindFloat)
	if err != nil {
		return 0, err
	}
	f, _ := v.(ir.Float)
	return float64(f), nil
}

// Bool converts the cell to a boolean.
func (c Cell) Bool() (bool, error) {
	v, err := c.As(ir.KindBool)
	if err != nil {
		return false, err
	}
	b, _ := v.(ir.Bool)
	return bool(b), nil
}

// Time converts the cell to a date.
func (c Cell) Time() (time.Time, error) {
	v, err := c.As(ir.KindDate)
	if err != nil {
		return time.Time{}, err
	}
	d, ok := v.(ir.Date)
	if !ok {
		return time.Time{}, nil
	}
	return d.Time(), nil
}

// As coerces the cell to kind. Empty cells convert to ir.Null for every
// kind. Failures are *ConversionError.
func (c Cell) As(kind ir.Kind) (ir.Value, error) {
	v, err := Coerce(c.raw, kind)
	if err != nil {
		return nil, &ConversionError{Column: c.column, Kind: kind, Raw: c.raw, Err: err}
	}
	return v, nil
}

// Coerce converts a raw driver value to kind, preserving its value.
// Lossy conversions such as 2.5 into an integer fail.
func Coerce(raw any, kind ir.Kind) (ir.Value, error) {
	v, err := ir.FromNative(raw)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(ir.Null); ok {
		return v, nil
	}

	switch kind {
	case ir.KindString:
		return ir.String(ir.Format(v)), nil
	case ir.KindInt:
		return toInt(v)
	case ir.KindFloat:
		return toFloat(v)
	case ir.KindBool:
		return toBool(v)
	case ir.KindDate:
		return toDate(v)
	case ir.KindNull, ir.KindObject:
		return v, nil
	default:
		return nil, fmt.Errorf("unknown kind %d", int(kind))
	}
}

func toInt(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case ir.Int:
		return val, nil
	case ir.Float:
		n, ok := wholeInt(float64(val))
		if !ok {
			return nil, fmt.Errorf("%v is not an integer", float64(val))
		}
		return ir.Int(n), nil
	case ir.Bool:
		if val {
			return ir.Int(1), nil
		}
		return ir.Int(0), nil
	case ir.String:
		s := strings.TrimSpace(string(val))
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ir.Int(n), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", string(val))
		}
		n, ok := wholeInt(f)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", string(val))
		}
		return ir.Int(n), nil
	}
	return nil, fmt.Errorf("cannot convert %s to int", v.Kind())
}

// wholeInt converts f when it is a whole number within the int64 range.
func wholeInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case ir.Float:
		return val, nil
	case ir.Int:
		return ir.Float(float64(val)), nil
	case ir.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", string(val))
		}
		return ir.Float(f), nil
	}
	return nil, fmt.Errorf("cannot convert %s to float", v.Kind())
}

func toBool(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case ir.Bool:
		return val, nil
	case ir.Int:
		switch val {
		case 0:
			return ir.Bool(false), nil
		case 1:
			return ir.Bool(true), nil
		}
	case ir.String:
		b, err := strconv.ParseBool(strings.TrimSpace(string(val)))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", string(val))
		}
		return ir.Bool(b), nil
	}
	return nil, fmt.Errorf("cannot convert %s %s to bool", v.Kind(), ir.Format(v))
}

func toDate(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case ir.Date:
		return val, nil
	case ir.Int:
		return ir.FromSerial(float64(val)), nil
	case ir.Float:
		return ir.FromSerial(float64(val)), nil
	case ir.String:
		d, err := ir.ParseDate(string(val))
		if err != nil {
			return nil, fmt.Errorf("%q is not a date", string(val))
		}
		return d, nil
	}
	return nil, fmt.Errorf("cannot convert %s to date", v.Kind())
}
