package view

import (
	"fmt"
	"strings"
)

// UnknownViewError is returned when a view type name is not registered.
type UnknownViewError struct {
	Type      string
	Available []string
}

func (e *UnknownViewError) Error() string {
	return fmt.Sprintf("unknown view type %q (available: %s)", e.Type, strings.Join(e.Available, ", "))
}

// SerializationError is returned when resource or view data cannot be
// encoded as JSON. Input names the offending argument ("resource" or "data").
type SerializationError struct {
	Input string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to serialize %s: %v", e.Input, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
