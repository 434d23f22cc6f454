package scenario

import (
	"errors"
	"strings"
)

// ErrScripted is returned by handlers whose action is "fail".
var ErrScripted = errors.New("scripted handler failure")

// ErrUnknownFormat is returned when a scenario file's format cannot be determined.
var ErrUnknownFormat = errors.New("unknown scenario format")

// ParseError indicates a scenario file could not be decoded.
type ParseError struct {
	// Path is the file path or "<input>".
	Path string

	// Format is the decoder that failed.
	Format Format

	// Err is the decoder error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "parse " + string(e.Format) + " scenario " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError lists every problem found in a scenario.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid scenario: " + strings.Join(e.Problems, "; ")
}
