package dto

import (
	"net/http"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/infrastructure/printing"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation is used when a document or request fails validation
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodePayloadTooLarge is used when the body exceeds the configured limit
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// Document error codes
const (
	// ErrCodeNotFound is used when a document is not in the merged set
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeForbidden is used when the store refuses the operation
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeParse is used when a stored record cannot be decoded
	ErrCodeParse = "ERR_PARSE"
)

// Print error codes
const (
	// ErrCodePlatformUnavailable is used when an output target cannot be reached
	ErrCodePlatformUnavailable = "ERR_PLATFORM_UNAVAILABLE"
	// ErrCodeRenderTimeout is used when a render is cancelled or times out
	ErrCodeRenderTimeout = "ERR_RENDER_TIMEOUT"
	// ErrCodeRenderFailed is used when a back end fails to encode a page
	ErrCodeRenderFailed = "ERR_RENDER_FAILED"
	// ErrCodeInvalidPage is used when an assembled page cannot be rendered
	ErrCodeInvalidPage = "ERR_INVALID_PAGE"
	// ErrCodeArchiveFailed is used when a print could not be archived
	ErrCodeArchiveFailed = "ERR_ARCHIVE_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:  http.StatusNotFound,
	ErrCodeForbidden: http.StatusForbidden,
	ErrCodeParse:     http.StatusUnprocessableEntity,

	ErrCodePlatformUnavailable: http.StatusServiceUnavailable,
	ErrCodeRenderTimeout:       http.StatusInternalServerError,
	ErrCodeRenderFailed:        http.StatusInternalServerError,
	ErrCodeInvalidPage:         http.StatusInternalServerError,
	ErrCodeArchiveFailed:       http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps the codes carried by domain and render errors
// to the API error codes
var DomainErrorCodeMapping = map[string]string{
	document.CodeValidation:       ErrCodeValidation,
	document.CodeNotFound:         ErrCodeNotFound,
	document.CodePermission:       ErrCodeForbidden,
	document.CodePlatform:         ErrCodePlatformUnavailable,
	document.CodeParse:            ErrCodeParse,
	printing.ErrCodeRenderTimeout: ErrCodeRenderTimeout,
	printing.ErrCodeRenderFailed:  ErrCodeRenderFailed,
	printing.ErrCodeInvalidPage:   ErrCodeInvalidPage,
	printing.ErrCodeArchiveFailed: ErrCodeArchiveFailed,
	"INTERNAL_ERROR":              ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
