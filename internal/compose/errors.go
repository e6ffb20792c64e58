package compose

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidYAML is returned when the descriptor is not valid YAML.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrInvalidShape is returned when a container the augmenter touches has
	// the wrong YAML kind (e.g. services given as a list).
	ErrInvalidShape = errors.New("invalid descriptor shape")

	// ErrInvalidProject is returned when compose-go rejects the document.
	ErrInvalidProject = errors.New("invalid compose project")
)

// ReadError is returned when the descriptor cannot be opened or read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read descriptor %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g. "services.web.networks"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// ValidationError is returned by ValidateProject when the compose loader
// rejects the document.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidProject, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidProject, e.Err}
}
