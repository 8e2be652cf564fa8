package filter

import (
	"errors"
	"fmt"
)

// ErrUnknownPreset is returned when a named preset is not registered
var ErrUnknownPreset = errors.New("unknown filter preset")

// CompilationError indicates a filter expression could not be compiled
type CompilationError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid filter '%s': %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid filter '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}
