// Package session keeps per-user grading state for the lifetime of a session.
package session

import (
	"time"

	"github.com/kiteforlife/kitegrade/pkg/logger"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithTTL sets how long an idle session is kept. Zero or negative keeps
// sessions until they are disposed.
func WithTTL(ttl time.Duration) Option {
	return func(g *Registry) {
		g.ttl = ttl
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Registry) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLogger sets a custom logger for the registry.
func WithLogger(lg logger.Logger) Option {
	return func(g *Registry) {
		if lg != nil {
			g.logger = lg
		}
	}
}

// WithIDGenerator replaces the uuid generator, for tests.
func WithIDGenerator(next func() string) Option {
	return func(g *Registry) {
		if next != nil {
			g.newID = next
		}
	}
}
