package ai

import (
	"errors"
	"fmt"
)

// ErrGeneration marks failures of the generation stage
var ErrGeneration = errors.New("recipe generation failed")

// GenerationError carries the reason and a preview of the raw LLM output
type GenerationError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrGeneration, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Raw != "" {
		msg += fmt.Sprintf(" (raw_content: %q)", e.Raw)
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is matches ErrGeneration
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
