// Package errors provides structured error handling for shardex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (engine, disk, handle)
//   - 4XX: Lookup and validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates index engine and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryNotFound indicates a catalog lookup miss.
	CategoryNotFound Category = "NOT_FOUND"
	// CategoryConflict indicates a catalog entry that already exists.
	CategoryConflict Category = "CONFLICT"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeIO           = "ERR_201_IO"
	ErrCodeNoHandle     = "ERR_202_NO_HANDLE"
	ErrCodeIndexOpen    = "ERR_203_INDEX_OPEN"
	ErrCodeCommitFailed = "ERR_204_COMMIT_FAILED"
	ErrCodeCorruptIndex = "ERR_205_CORRUPT_INDEX"

	// Lookup and validation errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidName   = "ERR_402_INVALID_INDEX_NAME"
	ErrCodeIndexNotFound = "ERR_404_INDEX_NOT_FOUND"
	ErrCodeIndexExists   = "ERR_409_INDEX_EXISTS"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	switch code {
	case ErrCodeIndexNotFound:
		return CategoryNotFound
	case ErrCodeIndexExists:
		return CategoryConflict
	}

	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "201" from "ERR_201_IO")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
