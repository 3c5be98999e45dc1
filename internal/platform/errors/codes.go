// Package errors provides structured error handling for service boundaries.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidRequest marks client-correctable input problems.
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// CodeStorage marks failures raised by the storage engine.
	CodeStorage Code = "STORAGE_ERROR"
)

// HTTPStatus maps the code to the status returned at the HTTP boundary.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
