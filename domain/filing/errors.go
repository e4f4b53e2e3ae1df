package filing

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFilingType = errors.New("unknown filing type")
	ErrUnknownOwner      = errors.New("unknown owner option")
)

// UnknownError reports a string that is not part of a closed option set.
type UnknownError struct {
	Kind  error
	Value string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("%s: %q", e.Kind, e.Value)
}

func (e *UnknownError) Unwrap() error {
	return e.Kind
}
