package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError carries a field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios.
var (
	// 400 Bad Request
	ErrInvalidRequest      = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrUnsupportedFileKind = New(http.StatusBadRequest, "UNSUPPORTED_FILE_KIND", "File type is not supported")

	// 404 Not Found
	ErrNotFound        = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrFileNotFound    = New(http.StatusNotFound, "FILE_NOT_FOUND", "Source file not found")
	ErrReportNotFound  = New(http.StatusNotFound, "REPORT_NOT_FOUND", "No report has been generated for this file")
	ErrInsightNotFound = New(http.StatusNotFound, "INSIGHT_NOT_FOUND", "Insight not found")

	// 409 Conflict
	ErrAlreadyProcessing = New(http.StatusConflict, "ALREADY_PROCESSING", "File is already being processed")
	ErrFileNotCompleted  = New(http.StatusConflict, "FILE_NOT_COMPLETED", "Analysis has not completed for this file")

	// 413 Payload Too Large
	ErrUploadTooLarge = New(http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "Uploaded file exceeds the size limit")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// InvalidRequestWithError creates an invalid request error with details.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NotFoundError creates a not found error naming the resource.
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// InternalError creates an internal error wrapping the cause message.
func InternalError(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", err.Error())
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse wraps an APIError in the standard envelope.
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{Success: false, Error: err}
}

// Render implements the render.Renderer interface.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// WriteError writes an error response directly to the response writer.
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}
