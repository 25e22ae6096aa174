package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotReady is returned when a session cannot be created because
	// the quiz has no questions to run. Retryable once the quiz is authored.
	ErrSessionNotReady = errors.New("quiz session not ready: no questions")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID absent from the session snapshot.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrStatsUnavailable indicates no answers have been recorded for a question yet.
	ErrStatsUnavailable = errors.New("no answers recorded for question")
	// ErrInvalidAnswer indicates an answer value that does not match the question kind.
	ErrInvalidAnswer = errors.New("answer value does not match question kind")
)
