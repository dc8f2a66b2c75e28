package rows

import (
	"fmt"

	"github.com/roach88/sheetq/internal/ir"
)

// ConversionError reports a cell that cannot be coerced to the declared
// kind of its field. It is never swallowed.
type ConversionError struct {
	Column string
	Field  string // empty for direct Cell conversions
	Kind   ir.Kind
	Raw    any
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("column '%s' (field %s): cannot convert %v to %s: %v", e.Column, e.Field, e.Raw, e.Kind, e.Err)
	}
	return fmt.Sprintf("column '%s': cannot convert %v to %s: %v", e.Column, e.Raw, e.Kind, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
