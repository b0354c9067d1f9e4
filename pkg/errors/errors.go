// Package errors provides custom error types for the promise system.
// These errors enable better error handling, programmatic error checking,
// and improved debugging throughout the application. Every error raised by
// the reconciliation core maps to one of the types below so callers can tell
// a precondition failure apart from a remote failure or an empty result.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As are re-exported so callers need only one errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the promise system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrPrecondition indicates an operation ran before its required state was reached
	ErrPrecondition = errors.New("precondition not met")

	// ErrTransport indicates a remote service was unreachable or answered with a failure status
	ErrTransport = errors.New("transport failure")

	// ErrResultOverflow indicates a catalog query matched more records than it could return
	ErrResultOverflow = errors.New("result overflow")

	// ErrUnavailable indicates that a remote service is temporarily unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrRateLimited indicates that the remote rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrLocked indicates that another run holds the data directory
	ErrLocked = errors.New("locked by another run")
)

// NotFoundError represents an error when a resource is not found.
// Looking up an ISBN that is not a member of a pallet returns this error.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// PreconditionError is returned when a derived value (hit count, miss list,
// original misses) is requested before the state it derives from exists.
type PreconditionError struct {
	Operation   string
	Requirement string
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Operation, e.Requirement)
}

// Is implements errors.Is support
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// NewPreconditionError creates a new PreconditionError
func NewPreconditionError(operation, requirement string) *PreconditionError {
	return &PreconditionError{Operation: operation, Requirement: requirement}
}

// TransportError represents a failure talking to a remote service, either at
// the network level (Err set, StatusCode zero) or a non-success HTTP status.
type TransportError struct {
	Service    string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error from %s (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport error from %s: %s", e.Service, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrUnavailable:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// Temporary reports whether retrying the request may succeed.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NewTransportError creates a new TransportError
func NewTransportError(service string, statusCode int, message string) *TransportError {
	return &TransportError{
		Service:    service,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ResultOverflowError is returned when a catalog query reports more matches
// than the configured retrieval limit, so the returned set cannot be trusted.
type ResultOverflowError struct {
	Query string
	Found int
	Limit int
}

// Error implements the error interface
func (e *ResultOverflowError) Error() string {
	return fmt.Sprintf("query matched %d records but the result limit is %d: %s", e.Found, e.Limit, e.Query)
}

// Is implements errors.Is support
func (e *ResultOverflowError) Is(target error) bool {
	return target == ErrResultOverflow
}

// NewResultOverflowError creates a new ResultOverflowError
func NewResultOverflowError(query string, found, limit int) *ResultOverflowError {
	return &ResultOverflowError{Query: query, Found: found, Limit: limit}
}

// DuplicateExportError is returned when an export destination already exists.
// The existing artifact is never modified.
type DuplicateExportError struct {
	Path string
}

// Error implements the error interface
func (e *DuplicateExportError) Error() string {
	return fmt.Sprintf("export %s already exists", e.Path)
}

// Is implements errors.Is support
func (e *DuplicateExportError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewDuplicateExportError creates a new DuplicateExportError
func NewDuplicateExportError(path string) *DuplicateExportError {
	return &DuplicateExportError{Path: path}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "tsv", etc.
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "load", "save", "reconcile", "register"
	Resource  string // "pallet", "snapshot", "listing"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPrecondition checks if an error is a precondition error
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsTransport checks if an error is a transport error
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsResultOverflow checks if an error is a result overflow error
func IsResultOverflow(err error) bool {
	return errors.Is(err, ErrResultOverflow)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsUnavailable checks if an error indicates service unavailability
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Wrap helpers

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Message: err.Error(), Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapTransport wraps a network-level error as a TransportError
func WrapTransport(service, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{
		Service:  service,
		Endpoint: endpoint,
		Message:  err.Error(),
		Err:      err,
	}
}

// WrapCanceled wraps a context error so it matches ErrCanceled while keeping the cause
func WrapCanceled(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, ErrCanceled, err)
}
