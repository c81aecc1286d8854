package services

import "errors"

// ErrPollNotLoaded is returned when a vote is submitted for a poll the store
// holds no details for.
var ErrPollNotLoaded = errors.New("the vote is not loaded, refresh it and try again")

// ErrAlreadyVoted is returned when this session's vote on a poll was already
// accepted or is still pending.
var ErrAlreadyVoted = errors.New("you have already voted in this vote")

// ValidationError is a rejected form. The store was not touched.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// IsValidation reports whether err rejected a form before any dispatch
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
