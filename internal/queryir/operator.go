package queryir

import "fmt"

// Operator is a post-materialization step applied to the result sequence.
//
// This is a sealed interface. Terminal operators (First, Last, Single and
// the aggregates) reduce the sequence to one value.
type Operator interface {
	operatorNode()
	Terminal() bool
	String() string
}

// Reverse reverses the sequence.
type Reverse struct{}

func (Reverse) operatorNode()  {}
func (Reverse) Terminal() bool { return false }
func (Reverse) String() string { return "Reverse" }

// Skip drops the first Count elements.
type Skip struct {
	Count int
}

func (Skip) operatorNode()    {}
func (Skip) Terminal() bool   { return false }
func (s Skip) String() string { return fmt.Sprintf("Skip(%d)", s.Count) }

// First returns the first element. OrDefault yields nil on an empty sequence.
type First struct {
	OrDefault bool
}

func (First) operatorNode()    {}
func (First) Terminal() bool   { return true }
func (f First) String() string { return orDefault("First", f.OrDefault) }

// Last returns the last element.
type Last struct {
	OrDefault bool
}

func (Last) operatorNode()    {}
func (Last) Terminal() bool   { return true }
func (l Last) String() string { return orDefault("Last", l.OrDefault) }

// Single returns the only element and fails when there is more than one.
type Single struct {
	OrDefault bool
}

func (Single) operatorNode()    {}
func (Single) Terminal() bool   { return true }
func (s Single) String() string { return orDefault("Single", s.OrDefault) }

// Count returns the number of elements.
type Count struct{}

func (Count) operatorNode()  {}
func (Count) Terminal() bool { return true }
func (Count) String() string { return "Count" }

// LongCount is Count with a 64-bit result.
type LongCount struct{}

func (LongCount) operatorNode()  {}
func (LongCount) Terminal() bool { return true }
func (LongCount) String() string { return "LongCount" }

// Sum totals Field (or the projected value when Field is empty).
type Sum struct {
	Field string
}

func (Sum) operatorNode()    {}
func (Sum) Terminal() bool   { return true }
func (s Sum) String() string { return withField("Sum", s.Field) }

// Average is the arithmetic mean of Field.
type Average struct {
	Field string
}

func (Average) operatorNode()    {}
func (Average) Terminal() bool   { return true }
func (a Average) String() string { return withField("Average", a.Field) }

// Min is the smallest value of Field.
type Min struct {
	Field string
}

func (Min) operatorNode()    {}
func (Min) Terminal() bool   { return true }
func (m Min) String() string { return withField("Min", m.Field) }

// Max is the largest value of Field.
type Max struct {
	Field string
}

func (Max) operatorNode()    {}
func (Max) Terminal() bool   { return true }
func (m Max) String() string { return withField("Max", m.Field) }

// IsAggregate reports whether op is a scalar aggregate that can be pushed
// into SQL.
func IsAggregate(op Operator) bool {
	switch op.(type) {
	case Count, LongCount, Sum, Average, Min, Max:
		return true
	}
	return false
}

// AggregateField returns the field named by Sum/Average/Min/Max.
func AggregateField(op Operator) string {
	switch o := op.(type) {
	case Sum:
		return o.Field
	case Average:
		return o.Field
	case Min:
		return o.Field
	case Max:
		return o.Field
	}
	return ""
}

func orDefault(name string, d bool) string {
	if d {
		return name + "OrDefault"
	}
	return name
}

func withField(name, field string) string {
	if field == "" {
		return name
	}
	return fmt.Sprintf("%s(%s)", name, field)
}
