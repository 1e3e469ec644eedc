package apperrors

import (
	"errors"
	"fmt"
)

// Domain error kinds. Handlers classify failures with these sentinels so the
// HTTP boundary can map them to status codes without inspecting messages.
var (
	// ErrValidation covers malformed or out-of-range input: bad password
	// length, unknown course/category references, duplicate registration.
	ErrValidation = errors.New("validation failed")
	// ErrAuthentication covers bad credentials and invalid or expired tokens.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization covers acting on another user's owned resource.
	ErrAuthorization = errors.New("forbidden")
	// ErrNotFound covers references to nonexistent ids.
	ErrNotFound = errors.New("not found")
)

// Error pairs a sentinel kind with a human-readable message.
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

// Validation creates a client validation error.
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Authentication creates an authentication error.
func Authentication(format string, args ...interface{}) error {
	return &Error{Kind: ErrAuthentication, Message: fmt.Sprintf(format, args...)}
}

// Authorization creates a forbidden error.
func Authorization(format string, args ...interface{}) error {
	return &Error{Kind: ErrAuthorization, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}
