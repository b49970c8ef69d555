package pattern

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPattern is returned when compiling a pattern without elements.
	ErrEmptyPattern = errors.New("empty pattern")

	// ErrUnbalanced indicates unmatched or mismatched brackets.
	ErrUnbalanced = errors.New("unbalanced brackets")
)

// SyntaxError describes a problem at a byte offset of a pattern string.
type SyntaxError struct {
	Offset  int
	Message string
	// Err optionally classifies the problem (for example ErrUnbalanced).
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// CompileError wraps a failure to compile a pattern.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile pattern %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
