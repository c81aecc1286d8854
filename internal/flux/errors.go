package flux

import "errors"

var (
	// ErrNotFound is returned by Storage implementations for a missing key.
	ErrNotFound = errors.New("flux: item not found")

	// ErrThunkPanicked wraps a panic recovered from a thunk.
	ErrThunkPanicked = errors.New("flux: thunk panicked")
)
