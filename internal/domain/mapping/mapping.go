// Package mapping aligns arbitrary spreadsheet headers with rubric fields.
package mapping

import (
	"strings"

	"github.com/samber/lo"

	"github.com/kiteforlife/kitegrade/internal/domain/header"
	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
)

// Mapper builds a HeaderMapping in two greedy passes. The result depends on
// header order: ties go to the header seen first, and a header claimed by
// one field is never offered to a later one.
type Mapper struct {
	strictness header.Strictness
}

// New creates a Mapper. The default strictness compares accents exactly.
func New(opts ...Option) *Mapper {
	m := &Mapper{strictness: header.Strict}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map is a convenience for New(opts...).Map(headers, r).
func Map(headers []string, r *rubric.Rubric, opts ...Option) model.HeaderMapping {
	return New(opts...).Map(headers, r)
}

// Map pairs headers with the fields of r.
//
// Exact pass: a header whose canonical form equals the field name.
// Heuristic pass: for each field still open, the first unclaimed header
// whose canonical form contains one of the field's tokens, skipping headers
// that look like the identifier or aggregate column.
func (m *Mapper) Map(headers []string, r *rubric.Rubric) model.HeaderMapping {
	fields := r.Fields()
	claimed := make([]bool, len(headers))
	found := make(map[string]model.ColumnMatch, len(fields))

	canon := lo.Map(headers, func(h string, _ int) string { return header.Canonical(h) })
	keys := lo.Map(headers, func(h string, _ int) string { return header.Key(h, m.strictness) })

	for _, f := range fields {
		for i, c := range canon {
			if claimed[i] || c != f {
				continue
			}
			claimed[i] = true
			found[f] = model.ColumnMatch{Header: headers[i], Field: f, Kind: model.MatchExact}
			break
		}
	}

	excluded := m.exclusionKeywords(r)
	for _, f := range fields {
		if _, ok := found[f]; ok {
			continue
		}
		tokens := m.tokens(f)
		for i, k := range keys {
			if claimed[i] || k == "" {
				continue
			}
			if !containsAny(k, tokens) || containsAny(k, excluded) {
				continue
			}
			claimed[i] = true
			found[f] = model.ColumnMatch{Header: headers[i], Field: f, Kind: model.MatchHeuristic}
			break
		}
	}

	out := model.HeaderMapping{Matches: []model.ColumnMatch{}, Gaps: []string{}}
	for _, f := range fields {
		if c, ok := found[f]; ok {
			out.Matches = append(out.Matches, c)
			continue
		}
		out.Gaps = append(out.Gaps, f)
	}
	return out
}

// tokens returns the substrings that qualify a header for field: each
// whitespace token, plus the first token once "/" is treated as a space.
func (m *Mapper) tokens(field string) []string {
	toks := strings.Fields(field)
	if first := strings.Fields(strings.ReplaceAll(field, "/", " ")); len(first) > 0 {
		toks = append(toks, first[0])
	}
	return lo.Uniq(lo.Map(toks, func(t string, _ int) string { return header.Key(t, m.strictness) }))
}

func (m *Mapper) exclusionKeywords(r *rubric.Rubric) []string {
	kw := append(r.IdentifierKeywords(), r.AggregateKeywords()...)
	return lo.Uniq(lo.Map(kw, func(k string, _ int) string { return header.Key(k, m.strictness) }))
}

func containsAny(s string, subs []string) bool {
	return lo.SomeBy(subs, func(sub string) bool { return sub != "" && strings.Contains(s, sub) })
}
