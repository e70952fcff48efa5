package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrUnknownMode    = errors.New("unknown conversion mode")
	ErrNotImplemented = errors.New("not implemented")
	ErrInputNotFound  = errors.New("input not found")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UnknownModeError is returned when a file extension maps to no conversion
type UnknownModeError struct {
	Name string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("Cannot infer conversion mode from '%s'. Use .docx, .md, .markdown, .mdown, or .mkd.", e.Name)
}

func (e *UnknownModeError) Is(target error) bool {
	return target == ErrUnknownMode
}

// NotImplementedError marks a planned command
type NotImplementedError struct {
	Command string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("command '%s' is planned but not implemented yet in this release.", e.Command)
}

func (e *NotImplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}

// InputError reports an unreadable input path
type InputError struct {
	Path   string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %s", e.Path, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInputNotFound
}
