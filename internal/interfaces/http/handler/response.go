package handler

import "github.com/rxforms/backend/internal/interfaces/http/dto"

// APIResponse is the response envelope with a typed data field. Clients
// decode into it; the handler annotations reference it.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse is the envelope of a failed request
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
