package services

import "errors"

// Error categories. Handlers map them to status codes with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrCapacity   = errors.New("capacity reached")
)

// Error is a categorized error with a message safe to show to clients
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func validationError(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

func notFoundError(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func forbiddenError(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

func capacityError(message string) error {
	return &Error{Kind: ErrCapacity, Message: message}
}
