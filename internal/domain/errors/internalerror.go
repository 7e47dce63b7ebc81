package errors

import "fmt"

// InternalError covers filesystem and storage failures, including JSON
// persistence write errors.
type InternalError struct {
	message string
}

func (v *InternalError) Error() string {
	return v.message
}

func InternalErrorf(format string, args ...any) *InternalError {
	return &InternalError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &InternalError{}
