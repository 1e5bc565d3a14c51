package client

import (
	"fmt"
	"net/http"
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassTransport represents network failures or an unreachable service.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassService represents non-2xx responses.
	ErrorClassService ErrorClass = "service"

	// ErrorClassMalformed represents a response body that could not be parsed.
	// It is surfaced to the user the same way as a transport failure.
	ErrorClassMalformed ErrorClass = "malformed"
)

// UnknownErrorMessage is shown when a failure carries no message at all.
const UnknownErrorMessage = "Unknown error"

// CollectionError is a failed fetch against the collection service.
type CollectionError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error returns the human-readable message shown to the user.
func (e *CollectionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil && e.Err.Error() != "" {
		return e.Err.Error()
	}
	if e.Class == ErrorClassService {
		return statusMessage(e.StatusCode)
	}
	return UnknownErrorMessage
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *CollectionError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether the failure should be surfaced as a transport error.
func (e *CollectionError) IsTransport() bool {
	return e.Class == ErrorClassTransport || e.Class == ErrorClassMalformed
}

// newServiceError builds the error for a non-2xx response. The body is used
// verbatim when present.
func newServiceError(status int, body []byte) *CollectionError {
	msg := string(body)
	if msg == "" {
		msg = statusMessage(status)
	}
	return &CollectionError{
		StatusCode: status,
		Class:      ErrorClassService,
		Message:    msg,
	}
}

func newTransportError(err error) *CollectionError {
	return &CollectionError{
		Class:   ErrorClassTransport,
		Message: err.Error(),
		Err:     err,
	}
}

func newMalformedError(status int, err error) *CollectionError {
	return &CollectionError{
		StatusCode: status,
		Class:      ErrorClassMalformed,
		Message:    fmt.Sprintf("decode response: %v", err),
		Err:        err,
	}
}

func statusMessage(status int) string {
	return fmt.Sprintf("Request failed with status %d", status)
}

// classifyStatus maps a status code to an error class; 2xx yields "".
func classifyStatus(status int) ErrorClass {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return ""
	}
	return ErrorClassService
}
