package secrets

import (
	"errors"
	"net/http"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrProviderIDTaken    = errors.New("provider id already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownProvider    = errors.New("unknown provider")
)

// Error codes reported through AuthError
const (
	ErrCodeMissingField  = "missing_field"
	ErrCodeInvalidCreds  = "invalid_credentials"
	ErrCodeUsernameTaken = "username_taken"
	ErrCodeCreateFailed  = "create_failed"
)

// AuthError describes why a login or signup attempt failed
type AuthError struct {
	Code    string
	Message string
	Field   string
	Err     error
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// AuthErrorHandler handles a failed login or signup. It returns true if it
// wrote a response, false to fall back to the default redirect.
type AuthErrorHandler func(err *AuthError, w http.ResponseWriter, r *http.Request) bool
