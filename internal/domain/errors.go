package domain

import "errors"

var (
	// ErrMatchNotFound is returned when a match record does not exist.
	ErrMatchNotFound = errors.New("match not found")
	// ErrInvalidPin is returned when a host action carries the wrong PIN.
	ErrInvalidPin = errors.New("invalid host pin")
	// ErrIllegalTransition is returned when the match state does not allow an action.
	ErrIllegalTransition = errors.New("illegal state transition")
	// ErrConflictRetryExhausted is returned when a transaction kept conflicting.
	ErrConflictRetryExhausted = errors.New("transaction conflict: retries exhausted")
	// ErrVersionConflict signals a failed compare-and-swap inside a store.
	ErrVersionConflict = errors.New("match version conflict")
	// ErrPlayerNotFound is returned when a player acts before joining.
	ErrPlayerNotFound = errors.New("player not found in match")
	// ErrAlreadyAnswered is returned on a second submission for the same question.
	ErrAlreadyAnswered = errors.New("answer already recorded for this question")
	// ErrInvalidAnswer indicates the chosen index is outside the answer list.
	ErrInvalidAnswer = errors.New("answer index out of range")
	// ErrInvalidPlayerID indicates a player id that cannot be used as a field path segment.
	ErrInvalidPlayerID = errors.New("invalid player id")
	// ErrQuestionSetNotFound indicates the question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrInvalidConfig indicates unusable match settings.
	ErrInvalidConfig = errors.New("invalid match config")
)
