// Package errors provides structured error types for the fitgrid pipeline.
// All errors carry a category, code, message, and retryable flag so callers
// can react uniformly across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by pipeline component.
type ErrorCategory string

const (
	ErrCategoryDecode    ErrorCategory = "DECODE"
	ErrCategoryNormalize ErrorCategory = "NORMALIZE"
	ErrCategoryExport    ErrorCategory = "EXPORT"
	ErrCategoryStorage   ErrorCategory = "STORAGE"
	ErrCategoryCatalog   ErrorCategory = "CATALOG"
	ErrCategoryConfig    ErrorCategory = "CONFIG"
	ErrCategoryInternal  ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Decode codes
	CodeMalformedInput = "MALFORMED_INPUT"

	// Normalize codes
	CodeMissingColumn = "MISSING_COLUMN"

	// Export codes
	CodeEmptyTable  = "EMPTY_TABLE"
	CodeBuildFailed = "BUILD_FAILED"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Catalog codes
	CodeDuplicateActivity = "DUPLICATE_ACTIVITY"
	CodeCatalogCorrupt    = "CATALOG_CORRUPT"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// PipelineError is the structured error type used throughout the system.
type PipelineError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new PipelineError.
func New(category ErrorCategory, code, message string) *PipelineError {
	return &PipelineError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new PipelineError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *PipelineError {
	return &PipelineError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *PipelineError) WithDetails(details map[string]interface{}) *PipelineError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a PipelineError.
func GetCategory(err error) ErrorCategory {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a PipelineError.
func GetCode(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// isRetryable determines if an error code is retryable. Decode and
// normalize failures are deterministic for a given byte stream and never
// retried inside the pipeline; a caller may re-download and decode again.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewDecodeError(message string, cause error) *PipelineError {
	return Wrap(ErrCategoryDecode, CodeMalformedInput, message, cause)
}

func NewNormalizeError(code, message string) *PipelineError {
	return New(ErrCategoryNormalize, code, message)
}

func NewExportError(code, message string, cause error) *PipelineError {
	return Wrap(ErrCategoryExport, code, message, cause)
}

func NewStorageError(code, message string, cause error) *PipelineError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewCatalogError(code, message string, cause error) *PipelineError {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewConfigError(message string) *PipelineError {
	return New(ErrCategoryConfig, CodeInvalidConfig, message)
}

func NewInternalError(message string, cause error) *PipelineError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
