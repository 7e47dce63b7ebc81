package errors

import "fmt"

// UnavailableError is any model-provider failure: transport error, rate
// limit, or an invalid response shape. The turn controller reports it as the
// turn's output instead of retrying.
type UnavailableError struct {
	message string
}

func (v *UnavailableError) Error() string {
	return v.message
}

func UnavailableErrorf(format string, args ...any) *UnavailableError {
	return &UnavailableError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &UnavailableError{}
