package engine

import (
	"errors"
	"fmt"
	"strings"
)

// QueryError reports the stage at which a query failed.
//
// The underlying error is kept for errors.As/errors.Is, so callers can still
// match *querysql.TranslationError, *rows.ConversionError and the rest.
type QueryError struct {
	// Code identifies the failed stage.
	Code ErrorCode

	// QueryID identifies the query in debug logs.
	QueryID string

	// Err is the underlying failure.
	Err error
}

// ErrorCode categorizes query failures.
type ErrorCode string

const (
	// ErrCodeInvalidQuery indicates a structurally invalid descriptor.
	ErrCodeInvalidQuery ErrorCode = "INVALID_QUERY"

	// ErrCodeUnknownWorksheet indicates the worksheet could not be resolved.
	ErrCodeUnknownWorksheet ErrorCode = "UNKNOWN_WORKSHEET"

	// ErrCodeTranslation indicates the descriptor cannot be expressed in SQL.
	ErrCodeTranslation ErrorCode = "TRANSLATION_FAILED"

	// ErrCodeProjection indicates the projection could not be built or
	// evaluated.
	ErrCodeProjection ErrorCode = "PROJECTION_FAILED"

	// ErrCodeExecution indicates the data source rejected the statement.
	ErrCodeExecution ErrorCode = "EXECUTION_FAILED"

	// ErrCodeMaterialization indicates a cell could not be converted.
	ErrCodeMaterialization ErrorCode = "MATERIALIZATION_FAILED"

	// ErrCodeSequence indicates a result operator failed.
	ErrCodeSequence ErrorCode = "SEQUENCE_FAILED"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.QueryID != "" {
		return fmt.Sprintf("%s: %v (query=%s)", e.Code, e.Err, e.QueryID)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// CodeOf returns the stage code of a failed query, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// UnknownTableError reports a worksheet that does not exist in the workbook.
type UnknownTableError struct {
	Table string
	Valid []string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("'%s' is not a valid worksheet name. Valid worksheet names are: %s", e.Table, quoteList(e.Valid))
}

// UnknownColumnError reports a referenced column that does not exist in
// the worksheet.
type UnknownColumnError struct {
	Column string
	Valid  []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("'%s' is not a valid column name. Valid column names are: %s", e.Column, quoteList(e.Valid))
}

// SheetIndexError reports a worksheet index outside the workbook.
type SheetIndexError struct {
	Index int
	Count int
}

func (e *SheetIndexError) Error() string {
	return fmt.Sprintf("worksheet index out of range: %d (workbook has %d worksheets)", e.Index, e.Count)
}

// IsUnknownTable returns true if the error is an unknown worksheet error.
// Uses errors.As to handle wrapped errors.
func IsUnknownTable(err error) bool {
	var ute *UnknownTableError
	return errors.As(err, &ute)
}

// IsUnknownColumn returns true if the error is an unknown column error.
// Uses errors.As to handle wrapped errors.
func IsUnknownColumn(err error) bool {
	var uce *UnknownColumnError
	return errors.As(err, &uce)
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
