package errors

import "fmt"

// ErrorCode identifies a category of recoverable failure.
type ErrorCode string

const (
	ErrStorageUnavailable    ErrorCode = "STORAGE_UNAVAILABLE"    // 503
	ErrStorageRead           ErrorCode = "STORAGE_READ"           // 500
	ErrStorageWrite          ErrorCode = "STORAGE_WRITE"          // 500
	ErrImportValidation      ErrorCode = "IMPORT_VALIDATION"      // 422
	ErrSuggestionUnavailable ErrorCode = "SUGGESTION_UNAVAILABLE" // 503
	ErrSuggestionRequest     ErrorCode = "SUGGESTION_REQUEST"     // 502
	ErrNotFound              ErrorCode = "NOT_FOUND"              // 404
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"        // 400
	ErrInternal              ErrorCode = "INTERNAL"               // 500
)

// NoteError is a structured error with code, status, and details.
// Every code is recoverable at the CLI/web boundary; none should
// terminate the session.
type NoteError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *NoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewStorageUnavailable creates a 503 error for when the backing
// database cannot be opened or created.
func NewStorageUnavailable(err error) *NoteError {
	return &NoteError{
		Code:    ErrStorageUnavailable,
		Status:  503,
		Message: fmt.Sprintf("storage unavailable: %v", err),
	}
}

// NewStorageRead creates a 500 error for read/scan failures.
func NewStorageRead(err error) *NoteError {
	return &NoteError{
		Code:    ErrStorageRead,
		Status:  500,
		Message: fmt.Sprintf("storage read failed: %v", err),
	}
}

// NewStorageWrite creates a 500 error for write failures.
func NewStorageWrite(err error) *NoteError {
	return &NoteError{
		Code:    ErrStorageWrite,
		Status:  500,
		Message: fmt.Sprintf("storage write failed: %v", err),
	}
}

// NewImportValidation creates a 422 error for a backup file that does
// not validate. The existing collection is left untouched.
func NewImportValidation(msg string) *NoteError {
	return &NoteError{
		Code:    ErrImportValidation,
		Status:  422,
		Message: msg,
	}
}

// NewSuggestionUnavailable creates a 503 error for when no API
// credential is configured.
func NewSuggestionUnavailable() *NoteError {
	return &NoteError{
		Code:    ErrSuggestionUnavailable,
		Status:  503,
		Message: "no suggestion API key configured (set OPENAI_API_KEY)",
	}
}

// NewSuggestionRequest creates a 502 error for transport or response
// failures from the suggestion endpoint.
func NewSuggestionRequest(err error) *NoteError {
	return &NoteError{
		Code:    ErrSuggestionRequest,
		Status:  502,
		Message: fmt.Sprintf("suggestion request failed: %v", err),
	}
}

// NewNotFound creates a 404 error for when a note cannot be found.
func NewNotFound(identifier string) *NoteError {
	return &NoteError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("note not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInvalidRequest creates a 400 error for invalid parameters.
func NewInvalidRequest(msg string) *NoteError {
	return &NoteError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *NoteError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &NoteError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a NoteError with the given code.
func Is(err error, code ErrorCode) bool {
	if nErr, ok := err.(*NoteError); ok {
		return nErr.Code == code
	}
	return false
}
