package pipeline

import "errors"

var (
	// ErrEmptySequence is returned by First, Last, Single, Average, Min and
	// Max on an empty sequence.
	ErrEmptySequence = errors.New("sequence contains no elements")

	// ErrMultipleResults is returned by Single when more than one element
	// remains.
	ErrMultipleResults = errors.New("sequence contains more than one element")
)

// SequenceError names the operator that failed on the sequence.
type SequenceError struct {
	Op  string
	Err error
}

func (e *SequenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *SequenceError) Unwrap() error {
	return e.Err
}
