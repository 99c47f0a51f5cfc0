package types

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// ValidationError aggregates every violated constraint in a payload so the
// visitor sees all of them at once, not just the first.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

func (e *ValidationError) Add(msg string) {
	e.Messages = append(e.Messages, msg)
}

func (e *ValidationError) OrNil() error {
	if len(e.Messages) == 0 {
		return nil
	}
	return e
}
