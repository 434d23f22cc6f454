package typeinfo

import (
	"errors"
	"fmt"
)

// Sentinel errors for the typeinfo package.
var (
	// ErrUnknownClass is returned when a signature names a class that was never declared.
	ErrUnknownClass = errors.New("unknown class")

	// ErrDuplicateClass is returned when a class name is declared twice.
	ErrDuplicateClass = errors.New("class already declared")

	// ErrArity is returned when a class is given the wrong number of type arguments.
	ErrArity = errors.New("wrong number of type arguments")

	// ErrInvalidDecl is returned when a declaration violates the hierarchy rules.
	ErrInvalidDecl = errors.New("invalid declaration")

	// ErrInvalidType is returned when a descriptor cannot be constructed from its parts.
	ErrInvalidType = errors.New("invalid type")
)

// SyntaxError reports a malformed type signature.
type SyntaxError struct {
	// Input is the signature being parsed.
	Input string

	// Offset is the byte offset where parsing failed.
	Offset int

	// Msg describes the problem.
	Msg string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}
