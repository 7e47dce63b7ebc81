package errors

import "fmt"

// ToolLoopError is returned when the model keeps requesting tools past the
// configured iteration cap.
type ToolLoopError struct {
	message string
}

func (v *ToolLoopError) Error() string {
	return v.message
}

func ToolLoopErrorf(format string, args ...any) *ToolLoopError {
	return &ToolLoopError{
		message: fmt.Sprintf(format, args...),
	}
}

var _ error = &ToolLoopError{}
