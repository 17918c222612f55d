package document

import (
	"errors"
	"fmt"

	"github.com/rxforms/backend/internal/domain/shared"
)

// Error codes carried by the typed document errors
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodePermission = "FORBIDDEN"
	CodePlatform   = "PLATFORM_UNAVAILABLE"
	CodeParse      = "PARSE_ERROR"
)

// ErrRecordNotFound is returned by repositories when no record exists for a name
var ErrRecordNotFound = errors.New("document record not found")

var (
	_ shared.CodedError = (*ValidationError)(nil)
	_ shared.CodedError = (*NotFoundError)(nil)
	_ shared.CodedError = (*PermissionError)(nil)
	_ shared.CodedError = (*PlatformError)(nil)
	_ shared.CodedError = (*ParseError)(nil)
)

// ValidationError reports a malformed payload or document
type ValidationError struct {
	Name   string
	Reason string
	Err    error
}

// NewValidationError creates a new ValidationError
func NewValidationError(name, reason string, err error) *ValidationError {
	return &ValidationError{Name: name, Reason: reason, Err: err}
}

func (e *ValidationError) Error() string {
	msg := "invalid document"
	if e.Name != "" {
		msg = fmt.Sprintf("invalid document %q", e.Name)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrorCode returns the stable error code
func (e *ValidationError) ErrorCode() string { return CodeValidation }

// NotFoundError reports an operation on a name absent from the merged set
type NotFoundError struct {
	Name string
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(name string) *NotFoundError {
	return &NotFoundError{Name: name}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", e.Name)
}

// ErrorCode returns the stable error code
func (e *NotFoundError) ErrorCode() string { return CodeNotFound }

// PermissionError reports an attempt to modify a bundled document
type PermissionError struct {
	Name string
	Op   string
}

// NewPermissionError creates a new PermissionError
func NewPermissionError(name, op string) *PermissionError {
	return &PermissionError{Name: name, Op: op}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("cannot %s bundled document %q", e.Op, e.Name)
}

// ErrorCode returns the stable error code
func (e *PermissionError) ErrorCode() string { return CodePermission }

// PlatformError reports that an output target could not be acquired
type PlatformError struct {
	Target string
	Err    error
}

// NewPlatformError creates a new PlatformError
func NewPlatformError(target string, err error) *PlatformError {
	return &PlatformError{Target: target, Err: err}
}

func (e *PlatformError) Error() string {
	msg := fmt.Sprintf("output target %s unavailable", e.Target)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PlatformError) Unwrap() error { return e.Err }

// ErrorCode returns the stable error code
func (e *PlatformError) ErrorCode() string { return CodePlatform }

// ParseError reports a persisted record that failed to decode
type ParseError struct {
	Name string
	Err  error
}

// NewParseError creates a new ParseError
func NewParseError(name string, err error) *ParseError {
	return &ParseError{Name: name, Err: err}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stored document %q is unreadable: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorCode returns the stable error code
func (e *ParseError) ErrorCode() string { return CodeParse }
