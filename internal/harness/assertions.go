package harness

import (
	"fmt"
	"reflect"
	"strings"
)

// AssertionError represents a failed expectation.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s assertion failed: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// checkExpect compares a run against its expectations and returns every
// mismatch.
func checkExpect(r *Result, exp Expect) []*AssertionError {
	var failures []*AssertionError
	add := func(err *AssertionError) {
		if err != nil {
			failures = append(failures, err)
		}
	}

	add(assertSQL(r, exp))
	add(assertParams(r, exp))
	add(assertFailure(r, exp))
	if r.Error == "" {
		add(assertCount(r, exp))
		add(assertRows(r, exp))
		add(assertScalar(r, exp))
	}
	add(assertWarnings(r, exp))
	return failures
}

func assertSQL(r *Result, exp Expect) *AssertionError {
	if exp.SQL == "" || exp.SQL == r.SQL {
		return nil
	}
	return &AssertionError{Type: "sql", Expected: quoteOrNone(exp.SQL), Actual: quoteOrNone(r.SQL)}
}

func assertParams(r *Result, exp Expect) *AssertionError {
	if exp.Params == nil {
		return nil
	}
	got := r.ParamTexts()
	if equalStrings(exp.Params, got) {
		return nil
	}
	return &AssertionError{
		Type:     "params",
		Expected: fmt.Sprintf("%q", exp.Params),
		Actual:   fmt.Sprintf("%q", got),
	}
}

// assertFailure checks expect.error and expect.code, and reports an
// unexpected failure when neither is set.
func assertFailure(r *Result, exp Expect) *AssertionError {
	if exp.Error == "" && exp.Code == "" {
		if r.Error != "" {
			return &AssertionError{Type: "error", Expected: "success", Actual: fmt.Sprintf("%s: %s", r.Code, r.Error)}
		}
		return nil
	}
	if r.Error == "" {
		return &AssertionError{Type: "error", Expected: fmt.Sprintf("failure %s %q", exp.Code, exp.Error), Actual: "success"}
	}
	if exp.Code != "" && exp.Code != r.Code {
		return &AssertionError{Type: "code", Expected: exp.Code, Actual: quoteOrNone(r.Code)}
	}
	if exp.Error != "" && !strings.Contains(r.Error, exp.Error) {
		return &AssertionError{Type: "error", Expected: fmt.Sprintf("message containing %q", exp.Error), Actual: fmt.Sprintf("%q", r.Error)}
	}
	return nil
}

func assertCount(r *Result, exp Expect) *AssertionError {
	if exp.Count == nil {
		return nil
	}
	if r.IsScalar {
		return &AssertionError{Type: "count", Expected: fmt.Sprintf("%d items", *exp.Count), Actual: "scalar " + r.Scalar}
	}
	if len(r.Items) != *exp.Count {
		return &AssertionError{Type: "count", Expected: fmt.Sprintf("%d items", *exp.Count), Actual: fmt.Sprintf("%d items", len(r.Items))}
	}
	return nil
}

// assertRows matches expected rows against items in order. Expected
// objects match any item holding at least their fields with equal values.
func assertRows(r *Result, exp Expect) *AssertionError {
	if exp.Rows == nil {
		return nil
	}
	if r.IsScalar {
		return &AssertionError{Type: "rows", Expected: fmt.Sprintf("%d rows", len(exp.Rows)), Actual: "scalar " + r.Scalar}
	}
	if len(exp.Rows) != len(r.Items) {
		return &AssertionError{Type: "rows", Expected: fmt.Sprintf("%d rows", len(exp.Rows)), Actual: fmt.Sprintf("%d rows", len(r.Items))}
	}

	for i, want := range exp.Rows {
		wantNorm, err := normalize(want)
		if err != nil {
			return &AssertionError{Type: "rows", Expected: fmt.Sprintf("row %d: %v", i, want), Actual: err.Error()}
		}
		if !matchSubset(wantNorm, r.Items[i]) {
			return &AssertionError{
				Type:     "rows",
				Expected: fmt.Sprintf("row %d matching %v", i, wantNorm),
				Actual:   fmt.Sprintf("%v", r.Items[i]),
			}
		}
	}
	return nil
}

func assertScalar(r *Result, exp Expect) *AssertionError {
	if exp.Scalar == nil {
		return nil
	}
	if !r.IsScalar {
		return &AssertionError{Type: "scalar", Expected: *exp.Scalar, Actual: fmt.Sprintf("%d items", len(r.Items))}
	}
	if *exp.Scalar != r.Scalar {
		return &AssertionError{Type: "scalar", Expected: *exp.Scalar, Actual: r.Scalar}
	}
	return nil
}

func assertWarnings(r *Result, exp Expect) *AssertionError {
	if exp.Warnings == nil || equalStrings(exp.Warnings, r.Warnings) {
		return nil
	}
	return &AssertionError{
		Type:     "warnings",
		Expected: fmt.Sprintf("%q", exp.Warnings),
		Actual:   fmt.Sprintf("%q", r.Warnings),
	}
}

// matchSubset reports whether actual holds every field of an expected
// object. Non-object values must be equal.
func matchSubset(expected, actual any) bool {
	wantObj, ok := expected.(map[string]any)
	if !ok {
		return reflect.DeepEqual(expected, actual)
	}
	gotObj, ok := actual.(map[string]any)
	if !ok {
		return false
	}
	for k, want := range wantObj {
		got, exists := gotObj[k]
		if !exists || !reflect.DeepEqual(want, got) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func quoteOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return fmt.Sprintf("%q", s)
}
