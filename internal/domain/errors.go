package domain

import "errors"

var (
	// ErrEmptyGuess is returned when a guess is blank after trimming.
	ErrEmptyGuess = errors.New("guess is empty")
	// ErrAlreadyGuessed is returned when the current question was already answered.
	ErrAlreadyGuessed = errors.New("question already guessed")
	// ErrAnswerRevealed is returned when guessing after the answer was shown.
	ErrAnswerRevealed = errors.New("answer already revealed")
	// ErrRoundFinished is returned when acting on a completed round.
	ErrRoundFinished = errors.New("round already finished")
	// ErrInvalidScore is returned for negative candidate scores.
	ErrInvalidScore = errors.New("score must be non-negative")
)
