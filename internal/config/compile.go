package config

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sheetq/internal/ir"
	"github.com/roach88/sheetq/internal/shape"
)

// Compile parses a CUE value into a Workbook.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the whole config file, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`worksheet: "Companies", shape: Company: { Name: string }`)
//	wb, err := Compile(v)
func Compile(v cue.Value) (*Workbook, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	wb := &Workbook{}

	sheetVal := v.LookupPath(cue.ParsePath("worksheet"))
	if sheetVal.Exists() {
		sheet, err := sheetVal.String()
		if err != nil {
			return nil, &CompileError{Field: "worksheet", Message: "must be a string", Pos: sheetVal.Pos()}
		}
		if err := checkName(sheet); err != nil {
			return nil, &CompileError{Field: "worksheet", Message: err.Error(), Pos: sheetVal.Pos()}
		}
		wb.Worksheet = sheet
	}

	var err error
	wb.Mapping, err = parseMapping(v)
	if err != nil {
		return nil, err
	}

	wb.Shapes, err = parseShapes(v)
	if err != nil {
		return nil, err
	}

	return wb, nil
}

// parseMapping reads the field -> column table.
func parseMapping(v cue.Value) (shape.Mapping, error) {
	mapVal := v.LookupPath(cue.ParsePath("mapping"))
	if !mapVal.Exists() {
		return nil, nil
	}

	iter, err := mapVal.Fields()
	if err != nil {
		return nil, &CompileError{Field: "mapping", Message: "must be a struct of field: column", Pos: mapVal.Pos()}
	}

	m := shape.Mapping{}
	for iter.Next() {
		field := iter.Selector().Unquoted()
		column, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "mapping." + field,
				Message: "column must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		if err := checkName(column); err != nil {
			return nil, &CompileError{Field: "mapping." + field, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		m[field] = column
	}
	return m, nil
}

// parseShapes extracts shape definitions in declaration order.
func parseShapes(v cue.Value) ([]*shape.Shape, error) {
	var shapes []*shape.Shape

	shapesVal := v.LookupPath(cue.ParsePath("shape"))
	if !shapesVal.Exists() {
		return shapes, nil // shapes are optional
	}

	iter, err := shapesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Selector().Unquoted()
		if name == shape.RowShapeName {
			return nil, &CompileError{
				Field:   "shape." + name,
				Message: "Row is reserved for untyped rows",
				Pos:     iter.Value().Pos(),
			}
		}

		fieldIter, err := iter.Value().Fields()
		if err != nil {
			return nil, &CompileError{Field: "shape." + name, Message: "must be a struct of fields", Pos: iter.Value().Pos()}
		}

		var specs []shape.FieldSpec
		for fieldIter.Next() {
			spec, err := parseField(name, fieldIter.Selector().Unquoted(), fieldIter.Value())
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
		if len(specs) == 0 {
			return nil, &CompileError{
				Field:   "shape." + name,
				Message: "at least one field is required",
				Pos:     iter.Value().Pos(),
			}
		}

		shapes = append(shapes, shape.Dynamic(name, specs...))
	}

	return shapes, nil
}

// parseField reads one field declaration. Three forms are accepted:
//
//	Name:      string                            // a CUE type
//	StartDate: "date"                            // a type name
//	CEO:       {type: "string", column: "Boss"}  // a type name and a column
func parseField(shapeName, name string, v cue.Value) (shape.FieldSpec, error) {
	path := fmt.Sprintf("shape.%s.%s", shapeName, name)
	spec := shape.FieldSpec{Name: name}

	if v.IncompleteKind() == cue.StructKind {
		typeVal := v.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return spec, &CompileError{Field: path + ".type", Message: "type is required", Pos: v.Pos()}
		}
		kind, err := typeFromValue(typeVal)
		if err != nil {
			return spec, &CompileError{Field: path + ".type", Message: err.Error(), Pos: typeVal.Pos()}
		}
		spec.Kind = kind

		colVal := v.LookupPath(cue.ParsePath("column"))
		if colVal.Exists() {
			column, err := colVal.String()
			if err != nil {
				return spec, &CompileError{Field: path + ".column", Message: "must be a string", Pos: colVal.Pos()}
			}
			if err := checkName(column); err != nil {
				return spec, &CompileError{Field: path + ".column", Message: err.Error(), Pos: colVal.Pos()}
			}
			spec.Column = column
		}
		return spec, nil
	}

	kind, err := typeFromValue(v)
	if err != nil {
		return spec, &CompileError{Field: path, Message: err.Error(), Pos: v.Pos()}
	}
	spec.Kind = kind
	return spec, nil
}

// typeFromValue converts a CUE type or a type name to a Kind.
func typeFromValue(v cue.Value) (ir.Kind, error) {
	if v.IsConcrete() {
		name, err := v.String()
		if err != nil {
			return ir.KindNull, fmt.Errorf("type must be a type name or a CUE type")
		}
		return ir.ParseKind(name)
	}

	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.KindString, nil
	case cue.IntKind:
		return ir.KindInt, nil
	case cue.FloatKind, cue.NumberKind:
		return ir.KindFloat, nil
	case cue.BoolKind:
		return ir.KindBool, nil
	default:
		return ir.KindNull, fmt.Errorf("unsupported type kind: %v", v.IncompleteKind())
	}
}

// checkName rejects names the generated SQL cannot bracket.
func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	if strings.ContainsAny(name, "[]") {
		return fmt.Errorf("name %q cannot contain square brackets", name)
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
