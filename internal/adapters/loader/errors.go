package loader

import (
	"errors"
	"fmt"
)

// Sentinel kinds for load failures. A *LoadError always wraps one of them.
var (
	ErrUnreadable = errors.New("source unreadable")
	ErrTooLarge   = errors.New("source too large")
	ErrParse      = errors.New("parse failed")
	ErrNoHeader   = errors.New("header row missing")
)

// LoadError reports why a source could not be turned into a RawTable.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Reason returns a short label for the failure kind, suitable for metrics.
func (e *LoadError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrTooLarge):
		return "too_large"
	case errors.Is(e.Err, ErrUnreadable):
		return "unreadable"
	case errors.Is(e.Err, ErrNoHeader):
		return "no_header"
	case errors.Is(e.Err, ErrParse):
		return "parse"
	default:
		return "unknown"
	}
}

func newLoadError(source string, kind, cause error) *LoadError {
	if cause == nil {
		return &LoadError{Source: source, Err: kind}
	}
	return &LoadError{Source: source, Err: fmt.Errorf("%w: %w", kind, cause)}
}
