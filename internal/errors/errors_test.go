package errors

import (
	"fmt"
	"testing"
)

func TestNoteError_Error(t *testing.T) {
	err := &NoteError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "note not found",
	}

	expected := "NOT_FOUND: note not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewStorageUnavailable(t *testing.T) {
	err := NewStorageUnavailable(fmt.Errorf("permission denied"))

	if err.Code != ErrStorageUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorageUnavailable)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
}

func TestNewImportValidation(t *testing.T) {
	err := NewImportValidation("backup is not a JSON array")

	if err.Code != ErrImportValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrImportValidation)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	if err.Message != "backup is not a JSON array" {
		t.Errorf("Message = %q, want %q", err.Message, "backup is not a JSON array")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("trip-plan")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "trip-plan" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "trip-plan")
	}
}

func TestNewSuggestionUnavailable(t *testing.T) {
	err := NewSuggestionUnavailable()

	if err.Code != ErrSuggestionUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrSuggestionUnavailable)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)

	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("abc")

	if !Is(err, ErrNotFound) {
		t.Error("Is() = false, want true for matching code")
	}
	if Is(err, ErrStorageRead) {
		t.Error("Is() = true, want false for non-matching code")
	}
	if Is(fmt.Errorf("plain error"), ErrNotFound) {
		t.Error("Is() = true, want false for non-NoteError")
	}
	if Is(nil, ErrNotFound) {
		t.Error("Is() = true, want false for nil")
	}
}
