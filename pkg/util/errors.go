// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy. Fatal kinds (unknown model,
// authentication) abort a run before any mutating call; the rest are captured
// at operation granularity and rolled into the run result.
var (
	ErrUnknownModel       = errors.New("device model not recognized")
	ErrAuthentication     = errors.New("authentication rejected")
	ErrTransport          = errors.New("transport failure")
	ErrUnsupportedFeature = errors.New("feature not supported by firmware")
	ErrDependency         = errors.New("ordering dependency not satisfied")
	ErrParse              = errors.New("response parse failure")
	ErrValidationFailed   = errors.New("validation failed")
	ErrNotConnected       = errors.New("device not connected")
)

// UnknownModelError means the login-page probe matched no known family.
type UnknownModelError struct {
	Target string
	Banner string
}

func (e *UnknownModelError) Error() string {
	msg := fmt.Sprintf("no known model signature in login page of %s", e.Target)
	if e.Banner != "" {
		msg += fmt.Sprintf(" (page title %q)", e.Banner)
	}
	return msg
}

func (e *UnknownModelError) Unwrap() error {
	return ErrUnknownModel
}

// AuthenticationError covers rejected credentials, expired sessions and
// token mismatches. Always fatal for the run.
type AuthenticationError struct {
	Target string
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication to %s failed: %s", e.Target, e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return ErrAuthentication
}

// TransportError is a network-level failure that survived the retry policy.
// It aborts only the in-flight operation, not a bulk run.
type TransportError struct {
	Page     string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request for %s failed after %d attempts: %v", e.Page, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return ErrTransport
}

// UnsupportedFeatureError reports a firmware/model gate rejection, naming the
// minimum version the feature requires.
type UnsupportedFeatureError struct {
	Feature  string
	Family   string
	Minimum  string
	Detected string
}

func (e *UnsupportedFeatureError) Error() string {
	if e.Minimum == "" {
		return fmt.Sprintf("%s is not available on %s", e.Feature, e.Family)
	}
	return fmt.Sprintf("%s requires firmware %s or later on %s (detected %s)",
		e.Feature, e.Minimum, e.Family, e.Detected)
}

func (e *UnsupportedFeatureError) Unwrap() error {
	return ErrUnsupportedFeature
}

// DependencyError reports an ordering/referential precondition violation,
// naming what blocks the operation.
type DependencyError struct {
	Resource  string
	BlockedBy []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s is blocked by: %s", e.Resource, strings.Join(e.BlockedBy, ", "))
}

func (e *DependencyError) Unwrap() error {
	return ErrDependency
}

// NewDependencyError creates a dependency error.
func NewDependencyError(resource string, blockedBy ...string) *DependencyError {
	return &DependencyError{Resource: resource, BlockedBy: blockedBy}
}

// ParseError records a field that could not be extracted from a device page.
// Gathering degrades the field to its zero value; this error is informational.
type ParseError struct {
	Page  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s from %s: %v", e.Field, e.Page, e.Err)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
