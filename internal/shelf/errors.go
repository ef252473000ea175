package shelf

import "errors"

// Code classifies row-level failures.
type Code string

const (
	// CodeFetchFailure marks a playlist that could not be resolved. Scoped
	// to one row.
	CodeFetchFailure Code = "FETCH_FAILURE"
	// CodeMalformedMetadata marks unusable playlist metadata. Recovered
	// locally with a default value.
	CodeMalformedMetadata Code = "MALFORMED_METADATA"
	// CodeEmptyPlaylist marks a playlist without items. Informational only,
	// an empty playlist renders as a valid row.
	CodeEmptyPlaylist Code = "EMPTY_PLAYLIST"
)

// Error is the domain error type for shelf resolution.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a domain error with a code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a domain error wrapping cause.
func WrapError(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata, Cause: cause}
}

var (
	ErrFetchFailure      = NewError(CodeFetchFailure, "fetch failure")
	ErrMalformedMetadata = NewError(CodeMalformedMetadata, "malformed metadata")
	ErrEmptyPlaylist     = NewError(CodeEmptyPlaylist, "empty playlist")
)

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
