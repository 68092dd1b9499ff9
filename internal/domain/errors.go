package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSelection is returned when an answer is confirmed with nothing selected.
	ErrNoSelection = errors.New("no option selected")
	// ErrEmptyQuestionSet indicates an attempt was started without questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrInvalidState is matched by every StateError.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrOptionOutOfRange indicates a selection index outside the shown options.
	ErrOptionOutOfRange = errors.New("option index out of range")
)

// SchemaError reports every required column missing from a question file header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// LoadError wraps an I/O or decoding failure while reading a question set or history.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// StateError is returned when an operation is invoked in the wrong session state.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}
