package printing

import (
	"context"
	"time"

	"github.com/rxforms/backend/internal/domain/printing"
	"github.com/rxforms/backend/internal/domain/shared"
)

// Result is the encoded output of one render
type Result struct {
	Data        []byte
	ContentType string
	Extension   string
	Pages       int
	Duration    time.Duration
}

// Size returns the encoded size in bytes
func (r *Result) Size() int {
	if r == nil {
		return 0
	}
	return len(r.Data)
}

// Output renders an assembled page into one concrete encoding. Each call
// acquires its own target, so an Output is safe for concurrent use.
type Output interface {
	Render(ctx context.Context, page *printing.Page) (*Result, error)
}

// RenderError represents an error during rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

var _ shared.CodedError = (*RenderError)(nil)

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the stable error code
func (e *RenderError) ErrorCode() string {
	return e.Code
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidPage   = "INVALID_PAGE"
	ErrCodeArchiveFailed = "ARCHIVE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func validatePage(page *printing.Page) error {
	if page == nil {
		return NewRenderError(ErrCodeInvalidPage, "page is nil", nil)
	}
	if page.WidthMM <= 0 || page.HeightMM <= 0 {
		return NewRenderError(ErrCodeInvalidPage, "page has no size", nil)
	}
	return nil
}
