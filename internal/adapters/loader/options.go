// Package loader parses uploaded spreadsheets and delimited text into raw tables.
package loader

import "github.com/kiteforlife/kitegrade/pkg/logger"

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithSkipRows sets how many boilerplate rows precede the header row.
func WithSkipRows(n int) Option {
	return func(l *Loader) {
		if n >= 0 {
			l.skipRows = n
		}
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}
