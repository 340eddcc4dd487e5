// Package reconcile conforms a raw table to the rubric schema.
package reconcile

import "github.com/kiteforlife/kitegrade/internal/domain/header"

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithStrictness selects how accents compare when looking for the
// identifier and aggregate columns.
func WithStrictness(st header.Strictness) Option {
	return func(r *Reconciler) {
		r.strictness = st
	}
}

// WithIdentifierPrefix sets the prefix of synthesized row identifiers.
func WithIdentifierPrefix(prefix string) Option {
	return func(r *Reconciler) {
		if prefix != "" {
			r.idPrefix = prefix
		}
	}
}
