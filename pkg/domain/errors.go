package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptyInput is returned when a requirement, answer or question is blank.
// It is raised before any completion call is made.
var ErrEmptyInput = errors.New("input is empty")

// ErrInputTooLarge is returned when input or an uploaded document exceeds its size limit.
var ErrInputTooLarge = errors.New("input exceeds maximum allowed size")

// ErrInvalidUTF8 is returned when input is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")

// ErrNoArtifact is returned when an operation needs a generated story and there is none.
var ErrNoArtifact = errors.New("no story has been generated for this session")

// ErrNoPendingQuestion is returned when an answer is submitted but no question is outstanding.
var ErrNoPendingQuestion = errors.New("no clarification question is pending")

// ErrConfiguration marks missing or invalid settings, such as a completion credential.
var ErrConfiguration = errors.New("invalid configuration")

// ErrCompletionFailed matches every CompletionError via errors.Is.
var ErrCompletionFailed = errors.New("completion failed")

// CompletionError reports a failed call to the completion service for a given operation.
type CompletionError struct {
	Op  string // generate, advance, ask, improve
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrCompletionFailed, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrCompletionFailed) match any CompletionError.
func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletionFailed
}
