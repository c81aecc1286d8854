package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Form limits. Lengths count characters, MinChoices is the least number of
// choices a poll is created with and every score lies within MinScore and
// MaxScore.
const (
	MaxPollNameLength   = 64
	MaxChoiceNameLength = 64
	MaxVoterNameLength  = 32
	MinChoices          = 2
	MinScore            = 1
	MaxScore            = 10
)

// Form errors shown to the user as they are
var (
	ErrDuplicateChoice = errors.New("This choice already exists")
	ErrTooFewChoices   = errors.New("There need to be at least two possible choices in a vote.")
	ErrNoVotes         = errors.New("at least one choice must be scored")
)

// ValidateRequired checks that a field is not blank
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(fieldName + " is required")
	}
	return nil
}

// ValidateMaxLength checks the length of a string in characters
func ValidateMaxLength(value string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(value) > maxLength {
		return fmt.Errorf("%s must be at most %d characters long", fieldName, maxLength)
	}
	return nil
}

// ValidatePollName validates the name of a new poll
func ValidatePollName(name string) error {
	if err := ValidateRequired(name, "vote name"); err != nil {
		return err
	}
	return ValidateMaxLength(name, MaxPollNameLength, "vote name")
}

// ValidateChoiceName validates a choice about to be added to existing
func ValidateChoiceName(existing []string, name string) error {
	if err := ValidateRequired(name, "choice"); err != nil {
		return err
	}
	if slices.Contains(existing, name) {
		return ErrDuplicateChoice
	}
	return ValidateMaxLength(name, MaxChoiceNameLength, "choice")
}

// ValidateChoices validates the complete choice list of a new poll
func ValidateChoices(choices []string) error {
	if len(choices) < MinChoices {
		return ErrTooFewChoices
	}
	for i, choice := range choices {
		if err := ValidateChoiceName(choices[:i], choice); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVoterName validates the name a vote is submitted under
func ValidateVoterName(name string) error {
	if err := ValidateRequired(name, "voter name"); err != nil {
		return err
	}
	return ValidateMaxLength(name, MaxVoterNameLength, "voter name")
}

// ValidateScore checks that score lies between MinScore and MaxScore
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("score must be between %d and %d, got %d", MinScore, MaxScore, score)
	}
	return nil
}

// ValidateVotes checks that votes scores at least one of choices and nothing
// else
func ValidateVotes(choices []string, votes map[string]int) error {
	if len(votes) == 0 {
		return ErrNoVotes
	}
	for choice, score := range votes {
		if !slices.Contains(choices, choice) {
			return fmt.Errorf("unknown choice: %s", choice)
		}
		if err := ValidateScore(score); err != nil {
			return fmt.Errorf("%s: %w", choice, err)
		}
	}
	return nil
}

// ValidatePollID checks that a poll id can be used as a single path segment
func ValidatePollID(pollID string) error {
	if err := ValidateRequired(pollID, "poll id"); err != nil {
		return err
	}
	if strings.Contains(pollID, "/") {
		return errors.New("poll id must not contain '/'")
	}
	return nil
}
