package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err is an AppError with the given code
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// Error codes. Configuration and data-integrity errors are fatal and
// propagate to the entry point: they signal that code or tables are out of
// sync with the data and need a maintainer, not a retry.
const (
	CodeConfiguration   = "CONFIGURATION_ERROR"
	CodeDataIntegrity   = "DATA_INTEGRITY_VIOLATION"
	CodeLookup          = "LOOKUP_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeInternalError   = "INTERNAL_ERROR"
)

// ConfigurationError signals a missing code or table extension, e.g. an
// unscored survey without fallback or an unhandled genotype.
func ConfigurationError(message string) *AppError {
	return New(CodeConfiguration, message)
}

// ConfigurationErrorf is ConfigurationError with formatting.
func ConfigurationErrorf(format string, args ...interface{}) *AppError {
	return ConfigurationError(fmt.Sprintf(format, args...))
}

// DataIntegrityError signals a "should never happen" violation, e.g.
// duplicate progress rows for one participant.
func DataIntegrityError(message string) *AppError {
	return New(CodeDataIntegrity, message)
}

// DataIntegrityErrorf is DataIntegrityError with formatting.
func DataIntegrityErrorf(format string, args ...interface{}) *AppError {
	return DataIntegrityError(fmt.Sprintf(format, args...))
}

// LookupError signals a question that is absent from a definition table.
func LookupError(message string) *AppError {
	return New(CodeLookup, message)
}

// LookupErrorf is LookupError with formatting.
func LookupErrorf(format string, args ...interface{}) *AppError {
	return LookupError(fmt.Sprintf(format, args...))
}

// ExternalServiceError wraps transport or decode failures of an external
// collaborator (e.g. the enrollment system).
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

// ConfigInvalid signals invalid or missing environment configuration.
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}
