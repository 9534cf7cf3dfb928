package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	v1 "storefront/pkg/api/v1"
)

var (
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrEmptyToken       = errors.New("refresh response carried no access token")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
	Fields     map[string]string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Method: method, Path: path, Body: body}

	var eb v1.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Error
		}
		e.Fields = eb.Errors
		return e
	}
	// Some endpoints answer with a bare string.
	e.Message = strings.Trim(strings.TrimSpace(string(body)), `"`)
	return e
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Message returns the backend's message for err, falling back to fallback
// when there is none.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
