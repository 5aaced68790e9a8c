package operations

import "fmt"

// ErrorType classifies a pipeline error.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeFatal      ErrorType = "fatal"
)

// OperationError is a pipeline-specific error carrying the step it
// occurred in.
type OperationError struct {
	Type    ErrorType `json:"type"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewFatalError creates an error that terminates the run.
func NewFatalError(step, message string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeFatal,
		Step:    step,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a precondition error.
func NewValidationError(step, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: message,
	}
}
