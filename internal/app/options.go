// Package service wires the ingestion pipeline and the session store into
// the operations the HTTP API exposes.
package service

import (
	"time"

	"github.com/kiteforlife/kitegrade/internal/domain/header"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
	"github.com/kiteforlife/kitegrade/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(lg logger.Logger) Option {
	return func(s *Service) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithRubric replaces the default rubric.
func WithRubric(r *rubric.Rubric) Option {
	return func(s *Service) {
		if r != nil {
			s.rubric = r
		}
	}
}

// WithSkipRows sets the number of boilerplate rows above the header.
func WithSkipRows(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.skipRows = n
		}
	}
}

// WithStrictness sets accent handling for header matching.
func WithStrictness(st header.Strictness) Option {
	return func(s *Service) {
		s.strictness = st
	}
}

// WithIdentifierPrefix sets the prefix of synthesized student names.
func WithIdentifierPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.idPrefix = prefix
		}
	}
}

// WithDefaultFile sets the local file tried before the demo table. An empty
// path disables the local stage.
func WithDefaultFile(path string) Option {
	return func(s *Service) {
		s.defaultFile = path
	}
}

// WithSessionTTL sets the idle timeout of sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.sessionTTL = ttl
	}
}

// WithMaxUploadBytes caps uploaded file size.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}
