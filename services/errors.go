package services

import (
	"fmt"
	"net/http"
)

// Error codes carried in the failure envelope.
const (
	CodeSecurityCheckFailed = "security_check_failed"
	CodePermissionDenied    = "permission_denied"
	CodeInvalidFilter       = "invalid_filter"
	CodeNoSelection         = "no_selection"
	CodeSelfDeletion        = "self_deletion"
	CodeEntityNotFound      = "entity_not_found"
	CodeDeleteFailed        = "delete_failed"
	CodePartialBatchFailure = "partial_batch_failure"
	CodeInternal            = "internal"
)

const (
	msgSecurityCheckFailed = "Security check failed."
	msgPermissionDenied    = "You do not have permission to perform this action."
	msgInvalidAction       = "Invalid action."
	msgInvalidDate         = "Invalid date format. Use YYYY-MM-DD."
)

type AppError struct {
	HTTPCode int
	Code     string
	Message  string
	Data     map[string]any
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(httpCode int, code string, message string, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Code: code, Message: message, Err: err}
}

func newAppErrorWithData(httpCode int, code string, message string, data map[string]any, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Code: code, Message: message, Data: data, Err: err}
}

func invalidFilter(message string) *AppError {
	return newAppError(http.StatusBadRequest, CodeInvalidFilter, message, nil)
}

func noSelection(message string) *AppError {
	return newAppError(http.StatusBadRequest, CodeNoSelection, message, nil)
}

func internalError(message string, err error) *AppError {
	return newAppError(http.StatusInternalServerError, CodeInternal, message, err)
}
