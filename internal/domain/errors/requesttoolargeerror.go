package errors

import "fmt"

// RequestTooLargeError means the conversation exceeds the provider's context
// window. Callers report it; retrying the same request cannot succeed.
type RequestTooLargeError struct {
	message string
}

func (v *RequestTooLargeError) Error() string {
	return v.message
}

func RequestTooLargeErrorf(format string, args ...any) *RequestTooLargeError {
	return &RequestTooLargeError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &RequestTooLargeError{}
