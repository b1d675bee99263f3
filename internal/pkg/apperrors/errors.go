// Package apperrors defines the typed errors the service layer returns.
// Handlers never pick HTTP codes; the error middleware maps each type once.
package apperrors

import "fmt"

// ValidationError reports client input the business rules reject.
type ValidationError struct {
	Reason string
}

func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// AuthenticationError reports a missing or unverifiable identity, including
// webhook signatures that do not check out.
type AuthenticationError struct {
	Reason string
}

func NewAuthentication(format string, args ...interface{}) *AuthenticationError {
	return &AuthenticationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// NotFoundError reports an absent resource. Key may be empty when the lookup
// was by ownership rather than id.
type NotFoundError struct {
	Resource string
	Key      string
}

func NewNotFound(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// ProviderError wraps a failure from an upstream payment gateway. StatusCode
// is the provider's HTTP status when one was received, 0 otherwise. The
// wrapped error stays available for logs; clients only ever see a generic
// message.
type ProviderError struct {
	Provider   string
	Message    string
	StatusCode int
	Err        error
}

func NewProvider(provider, message string, statusCode int, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
