package service

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the service. Every failure returned by PokemonService
// matches exactly one of these with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrInternal   = errors.New("internal error")
)

// ValidationError reports a payload field that failed its constraints
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError reports a uniqueness violation or a delete that matched nothing
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NotFoundError reports an identifier no lookup strategy could resolve
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pokemon with id, name or no %q not found", e.Identifier)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InternalError hides a store failure from callers. The cause is only
// reachable through Cause().
type InternalError struct {
	Op    string
	cause error
}

func (e *InternalError) Error() string { return "internal server error" }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// Cause returns the underlying store error for logging
func (e *InternalError) Cause() error { return e.cause }
