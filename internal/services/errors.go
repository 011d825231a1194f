package services

import (
	"errors"
	"fmt"

	"github.com/startup-vidyapith/apiserver/internal/store"
	"github.com/startup-vidyapith/apiserver/types"
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ErrUnauthenticated is returned when a request carries no valid session.
var ErrUnauthenticated = errors.New("authentication required")

// AuthorizationError is returned when an authenticated user may not act on a resource.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return "you do not have permission to perform this action"
	}
	return e.Message
}

func forbidden(message string) error {
	return &AuthorizationError{Message: message}
}

// ConflictError is returned when a write clashes with existing state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NotFoundError is returned when an id does not resolve.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// notFound converts store.ErrNotFound into a NotFoundError for resource and
// passes any other error through.
func notFound(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Resource: resource}
	}
	return err
}

// fieldError converts a types.FieldError into a ValidationError.
func fieldError(err error) error {
	var fe *types.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Message: fe.Message}
	}
	return err
}
