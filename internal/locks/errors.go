package locks

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes locked-document errors.
type ErrorCode string

const (
	// ErrCodeDocumentMissing indicates the document file does not exist.
	ErrCodeDocumentMissing ErrorCode = "MISSING_INPUT_DOCUMENT"

	// ErrCodeDocumentSyntax indicates the document could not be decoded.
	ErrCodeDocumentSyntax ErrorCode = "DOCUMENT_SYNTAX"

	// ErrCodeSchemaViolation indicates the document decoded but does not
	// satisfy the locks schema.
	ErrCodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"

	// ErrCodeMissingParameter indicates a required key path is absent.
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"

	// ErrCodeBadValue indicates an entry's value string is not a valid
	// decimal number.
	ErrCodeBadValue ErrorCode = "BAD_VALUE"
)

// LockError is a structured error raised while loading or reading a
// locked-parameter document. All locks failures are fatal to a run: the
// inputs are static, so retrying cannot change the outcome.
type LockError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Path is the key path involved, when the error concerns a lookup.
	Path []string

	// File is the document file, when the error concerns loading.
	File string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *LockError) Error() string {
	switch {
	case len(e.Path) > 0:
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, strings.Join(e.Path, "."))
	case e.File != "":
		return fmt.Sprintf("%s: %s (file=%s)", e.Code, e.Message, e.File)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *LockError) Unwrap() error {
	return e.Err
}

// IsMissingParameter reports whether err is a missing key-path error.
// Uses errors.As to handle wrapped errors.
func IsMissingParameter(err error) bool {
	var le *LockError
	return errors.As(err, &le) && le.Code == ErrCodeMissingParameter
}

// IsMissingDocument reports whether err is a missing-document error.
func IsMissingDocument(err error) bool {
	var le *LockError
	return errors.As(err, &le) && le.Code == ErrCodeDocumentMissing
}

// NewMissingParameterError creates a LockError for an absent key path.
func NewMissingParameterError(path []string) *LockError {
	return &LockError{
		Code:    ErrCodeMissingParameter,
		Path:    path,
		Message: "locked parameter not found",
	}
}
