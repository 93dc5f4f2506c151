package errors

import (
	"fmt"
)

// ErrorType classifies application errors independently of transport
type ErrorType string

const (
	ErrTypeParsing         ErrorType = "PARSING"
	ErrTypeStorage         ErrorType = "STORAGE"
	ErrTypeValidation      ErrorType = "VALIDATION"
	ErrTypeNotFound        ErrorType = "NOT_FOUND"
	ErrTypeConfig          ErrorType = "CONFIG"
	ErrTypeDataUnavailable ErrorType = "DATA_UNAVAILABLE"
	ErrTypeRender          ErrorType = "RENDER"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NewParsingError creates a CSV or value parsing error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a file access error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewDataUnavailableError marks a dataset that is missing or unreadable
func NewDataUnavailableError(dataset string, cause error) *AppError {
	return NewAppError(ErrTypeDataUnavailable, fmt.Sprintf("dataset %s unavailable", dataset), cause)
}

// NewRenderError wraps a chart or export rendering failure
func NewRenderError(message string, cause error) *AppError {
	return NewAppError(ErrTypeRender, message, cause)
}
