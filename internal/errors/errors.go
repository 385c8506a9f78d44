package errors

import (
	stderrors "errors"
	"fmt"
)

// ShardexError is the structured error type for shardex.
// Every failure surfaced by the index, shard and catalog layers is one of these,
// so the HTTP layer can map it without string matching.
type ShardexError struct {
	// Code is the unique error code (e.g., "ERR_201_IO").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (IO, NotFound, Validation, etc.).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *ShardexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ShardexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with ShardexError.
func (e *ShardexError) Is(target error) bool {
	if t, ok := target.(*ShardexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *ShardexError) WithDetail(key, value string) *ShardexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new ShardexError with the given code and message.
// The category is derived from the code.
func New(code string, message string, cause error) *ShardexError {
	return &ShardexError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a ShardexError from an existing error.
// The error's message becomes the ShardexError message.
func Wrap(code string, err error) *ShardexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IOError creates a generic I/O error carrying a human-readable cause.
func IOError(message string, cause error) *ShardexError {
	return New(ErrCodeIO, message, cause)
}

// NoHandleError reports an operation on a shard with no attached index handle.
func NoHandleError(message string) *ShardexError {
	return New(ErrCodeNoHandle, message, nil)
}

// IndexNotFound reports a catalog lookup miss for the named index.
func IndexNotFound(name string) *ShardexError {
	return New(ErrCodeIndexNotFound, fmt.Sprintf("Index %s does not exist", name), nil).
		WithDetail("index", name)
}

// IndexExists reports an attempt to add an index name already present in the catalog.
func IndexExists(name string) *ShardexError {
	return New(ErrCodeIndexExists, fmt.Sprintf("Index %s already exists", name), nil).
		WithDetail("index", name)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ShardexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *ShardexError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ShardexError {
	return New(ErrCodeInternal, message, cause)
}

// As finds the first ShardexError in err's chain.
func As(err error) (*ShardexError, bool) {
	var se *ShardexError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNotFound reports whether err is a catalog lookup miss.
func IsNotFound(err error) bool {
	return GetCategory(err) == CategoryNotFound
}

// IsIO reports whether err is an I/O level failure (open, commit, missing handle).
func IsIO(err error) bool {
	return GetCategory(err) == CategoryIO
}

// GetCode extracts the error code from a ShardexError.
// Returns empty string if not a ShardexError.
func GetCode(err error) string {
	if se, ok := As(err); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a ShardexError.
// Returns empty string if not a ShardexError.
func GetCategory(err error) Category {
	if se, ok := As(err); ok {
		return se.Category
	}
	return ""
}
