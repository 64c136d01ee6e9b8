package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeCarNotFound     = "CAR_NOT_FOUND"
	CodeInvalidCarID    = "INVALID_CAR_ID"
	CodeValidationError = "VALIDATION_ERROR"
	CodeCarConflict     = "CAR_CONFLICT"
	CodeFetchFailed     = "FETCH_FAILED"
	CodeCreateFailed    = "CREATE_FAILED"
	CodeUpdateFailed    = "UPDATE_FAILED"
	CodeDeleteFailed    = "DELETE_FAILED"
)

// CarError is the base error of the car domain
type CarError struct {
	Code    string      // unique code (e.g. "CAR_NOT_FOUND")
	Message string      // human-readable, safe to return to callers
	Details interface{} // per-field validation errors, if any
	Err     error       // underlying error
}

func (e *CarError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *CarError) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped copies of a sentinel compare equal
func (e *CarError) Is(target error) bool {
	var t *CarError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// ============================================
// DOMAIN-SPECIFIC ERRORS
// ============================================

var ErrCarNotFound = &CarError{
	Code:    CodeCarNotFound,
	Message: "Car not found",
}

var ErrInvalidCarID = &CarError{
	Code:    CodeInvalidCarID,
	Message: "Invalid car ID format",
}

// NewValidationError wraps a validation failure (usually ozzo validation.Errors)
func NewValidationError(err error) *CarError {
	return &CarError{
		Code:    CodeValidationError,
		Message: "Invalid car payload",
		Details: err,
		Err:     err,
	}
}

// NewStoreError wraps a store failure with an already translated message
func NewStoreError(code, translated string, err error) *CarError {
	return &CarError{
		Code:    code,
		Message: translated,
		Err:     err,
	}
}

// ============================================
// HELPERS
// ============================================

func IsNotFound(err error) bool {
	return errors.Is(err, ErrCarNotFound)
}

func GetErrorCode(err error) string {
	var carErr *CarError
	if errors.As(err, &carErr) {
		return carErr.Code
	}
	return "INTERNAL_ERROR"
}

// GetErrorResponse maps an error to the HTTP status, message and code
func GetErrorResponse(err error) (statusCode int, message string, errorCode string) {
	if err == nil {
		return http.StatusOK, "Success", ""
	}

	var carErr *CarError
	if !errors.As(err, &carErr) {
		return http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR"
	}

	switch carErr.Code {
	case CodeCarNotFound:
		return http.StatusNotFound, carErr.Message, carErr.Code
	case CodeInvalidCarID, CodeValidationError:
		return http.StatusBadRequest, carErr.Message, carErr.Code
	case CodeCarConflict:
		return http.StatusConflict, carErr.Message, carErr.Code
	default:
		return http.StatusInternalServerError, carErr.Message, carErr.Code
	}
}

// ErrorDetails returns the per-field details attached to err, if any
func ErrorDetails(err error) interface{} {
	var carErr *CarError
	if errors.As(err, &carErr) {
		return carErr.Details
	}
	return nil
}
