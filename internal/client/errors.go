package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx API response. Code and Detail carry the DRF-style
// error body fields when the server provides them.
type Error struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// IsStatus reports whether err is an API error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IsUnauthorized reports whether err is a 401 API error.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is a 404 API error.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Code = payload.Code
		e.Detail = payload.Detail
		if e.Detail == "" {
			e.Detail = payload.Error
		}
	}
	return e
}
