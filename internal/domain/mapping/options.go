// Package mapping aligns arbitrary spreadsheet headers with rubric fields.
package mapping

import "github.com/kiteforlife/kitegrade/internal/domain/header"

// Option applies a configuration option to the Mapper.
type Option func(*Mapper)

// WithStrictness selects how accents compare during the heuristic pass.
func WithStrictness(st header.Strictness) Option {
	return func(m *Mapper) {
		m.strictness = st
	}
}
