package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind identifies the semantic type of a value or a declared field.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindDate
	KindObject
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindString: "string",
	KindInt:    "int",
	KindFloat:  "float",
	KindBool:   "bool",
	KindDate:   "date",
	KindObject: "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a declared type name to a Kind.
// Accepts the names produced by Kind.String plus a few aliases used in
// config files ("text", "number", "datetime", "boolean").
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "text":
		return KindString, nil
	case "int", "integer", "int64":
		return KindInt, nil
	case "float", "number", "float64", "double":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "date", "datetime", "time":
		return KindDate, nil
	default:
		return KindNull, fmt.Errorf("unknown type %q", name)
	}
}

// Value is a sealed interface over the sheetq value types.
type Value interface {
	irValue()
	Kind() Kind
}

// Null is an empty cell or a missing value.
type Null struct{}

func (Null) irValue()   {}
func (Null) Kind() Kind { return KindNull }

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a text value.
type String string

func (String) irValue()   {}
func (String) Kind() Kind { return KindString }

// Int is an integral numeric value.
type Int int64

func (Int) irValue()   {}
func (Int) Kind() Kind { return KindInt }

// Float is a non-integral numeric value.
type Float float64

func (Float) irValue()   {}
func (Float) Kind() Kind { return KindFloat }

// Bool is a boolean value.
type Bool bool

func (Bool) irValue()   {}
func (Bool) Kind() Kind { return KindBool }

// Date is a calendar date with an optional time of day.
// The location is ignored; worksheets have no time zones.
type Date time.Time

func (Date) irValue()   {}
func (Date) Kind() Kind { return KindDate }

// NewDate returns the date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

// Time returns the underlying time.Time.
func (d Date) Time() time.Time {
	return time.Time(d)
}

// MarshalJSON encodes the date in its canonical text form.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(Format(d))
}

// Object is the result of an anonymous projection: a set of named values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) irValue()   {}
func (Object) Kind() Kind { return KindObject }

// SortedKeys returns the keys in byte order.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// MarshalJSON implements json.Marshaler with sorted keys.
func (obj Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val := obj[k]
		if val == nil {
			val = Null{}
		}
		enc, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("Object key %q: %w", k, err)
		}
		buf.Write(enc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FromNative converts a Go value (as returned by database/sql or decoded
// from YAML) into a Value. Integral floats stay Float; callers coerce.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case []byte:
		return String(string(val)), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return Int(int64(val)), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case bool:
		return Bool(val), nil
	case time.Time:
		return Date(val), nil
	default:
		return nil, fmt.Errorf("unsupported native type %T", v)
	}
}

// Native converts a Value into a database/sql argument.
// Strings and dates become their canonical text.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case String:
		return string(val)
	default:
		return Format(v)
	}
}

// IsNumeric reports whether v is an Int or a Float.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}

// AsFloat returns the numeric value of an Int or Float.
func AsFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		return float64(val), true
	}
	return 0, false
}

// Compare orders two values of compatible kinds. Ints and Floats compare
// numerically, Strings lexically, Dates chronologically, Bools false < true.
// Null sorts before everything.
func Compare(a, b Value) (int, error) {
	if _, ok := a.(Null); ok {
		if _, ok := b.(Null); ok {
			return 0, nil
		}
		return -1, nil
	}
	if _, ok := b.(Null); ok {
		return 1, nil
	}

	if af, ok := AsFloat(a); ok {
		bf, ok := AsFloat(b)
		if !ok {
			return 0, fmt.Errorf("cannot compare %s with %s", a.Kind(), b.Kind())
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}

	switch av := a.(type) {
	case String:
		if bv, ok := b.(String); ok {
			return strings.Compare(string(av), string(bv)), nil
		}
	case Date:
		if bv, ok := b.(Date); ok {
			return av.Time().Compare(bv.Time()), nil
		}
	case Bool:
		if bv, ok := b.(Bool); ok {
			switch {
			case av == bv:
				return 0, nil
			case !bool(av):
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, fmt.Errorf("cannot compare %s with %s", a.Kind(), b.Kind())
}
