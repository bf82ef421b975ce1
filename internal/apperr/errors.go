// Package apperr holds the error values shared between services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotConfigured = errors.New("service not configured")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrConflict      = errors.New("conflict")
)

// ValidationError reports a rejected input field.
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

// Invalid builds a *ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError is a non-success answer from a third-party API.
type UpstreamError struct {
	Service string
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: upstream status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Service, e.Status, e.Message)
}

// NotConfigured wraps ErrNotConfigured with the name of the missing integration.
func NotConfigured(service string) error {
	return fmt.Errorf("%s: %w", service, ErrNotConfigured)
}
