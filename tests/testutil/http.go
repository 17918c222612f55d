package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// APIError is the error object of a failed API response.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Details   []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// Do sends a request to h. Body may be nil, a string, raw bytes or any
// value that is marshaled to JSON.
func Do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, ToJSONReader(t, body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// DecodeResponse parses the response envelope.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to parse JSON response: %s", w.Body.String())
	return resp
}

// DataAs decodes the data field of a successful response into T.
func DataAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	resp := DecodeResponse(t, w)
	require.True(t, resp.Success, "Expected success response, got: %s", w.Body.String())

	var result T
	require.NoError(t, json.Unmarshal(resp.Data, &result), "Failed to parse response data")
	return result
}

// AssertSuccessResponse asserts the response is a successful API response.
func AssertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()

	resp := DecodeResponse(t, w)
	assert.True(t, resp.Success, "Expected success to be true")
	assert.Nil(t, resp.Error, "Expected no error")
}

// AssertErrorResponse asserts the response is an error API response with
// the given status and code, and returns the error object.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) *APIError {
	t.Helper()

	assert.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	resp := DecodeResponse(t, w)
	assert.False(t, resp.Success, "Expected success to be false")
	require.NotNil(t, resp.Error, "Expected error object in response")
	assert.Equal(t, code, resp.Error.Code, "Unexpected error code")
	return resp.Error
}

// ToJSONReader converts a value to a request body reader.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	switch b := v.(type) {
	case nil:
		return http.NoBody
	case string:
		return bytes.NewReader([]byte(b))
	case []byte:
		return bytes.NewReader(b)
	}
	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
