// Package common defines shared constants and the error taxonomy used across
// client and server layers of gophauth. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrRoleNotFound = errors.New("role not found")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Client-class categories, matched by the typed errors below.
	ErrValidation          = errors.New("validation error")
	ErrDuplicateCredential = errors.New("duplicate credential")
	ErrRegistration        = errors.New("registration failed")
	ErrAuthentication      = errors.New("authentication failed")

	// Fatal categories.
	ErrTokenSigning  = errors.New("token signing error")
	ErrConfiguration = errors.New("configuration error")
	ErrHashing       = errors.New("hashing error")
)

// InvalidCredentialsMessage is the only text ever returned for a failed login,
// whether the account is missing or the password is wrong.
const InvalidCredentialsMessage = "invalid credentials"

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateCredentialError reports an email or username collision.
type DuplicateCredentialError struct {
	Field string
}

func (e *DuplicateCredentialError) Error() string {
	switch e.Field {
	case "email":
		return "Email is already registered"
	case "username":
		return "UserName is already registered"
	default:
		return fmt.Sprintf("%s is already registered", e.Field)
	}
}

func (e *DuplicateCredentialError) Is(target error) bool { return target == ErrDuplicateCredential }

// RegistrationError aggregates every reason the directory refused an identity.
type RegistrationError struct {
	Reasons []string
}

func (e *RegistrationError) Error() string {
	if len(e.Reasons) == 0 {
		return "registration failed"
	}
	return strings.Join(e.Reasons, ", ")
}

func (e *RegistrationError) Is(target error) bool { return target == ErrRegistration }

// AuthenticationError is returned for any failed login. Its text never says
// which check failed.
type AuthenticationError struct{}

func (e *AuthenticationError) Error() string { return InvalidCredentialsMessage }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// TokenSigningError wraps a failure to sign a token, usually a missing or
// malformed signing secret.
type TokenSigningError struct {
	Err error
}

func (e *TokenSigningError) Error() string {
	if e.Err == nil {
		return "token signing error"
	}
	return "token signing error: " + e.Err.Error()
}

func (e *TokenSigningError) Unwrap() error { return e.Err }

func (e *TokenSigningError) Is(target error) bool { return target == ErrTokenSigning }

// ConfigurationError names a missing or invalid setting.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// HashingError wraps a failure of the underlying cryptographic primitive.
type HashingError struct {
	Err error
}

func (e *HashingError) Error() string {
	if e.Err == nil {
		return "hashing error"
	}
	return "hashing error: " + e.Err.Error()
}

func (e *HashingError) Unwrap() error { return e.Err }

func (e *HashingError) Is(target error) bool { return target == ErrHashing }

// IsClientError reports whether err belongs to a 400-class category.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateCredential) ||
		errors.Is(err, ErrRegistration) ||
		errors.Is(err, ErrAuthentication)
}
