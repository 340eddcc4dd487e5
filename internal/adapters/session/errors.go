package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidEvaluation = errors.New("invalid evaluation")
)
