// Package rubric defines the fixed set of skill fields students are graded on.
package rubric

import (
	"errors"
	"fmt"

	"github.com/kiteforlife/kitegrade/internal/domain/header"
)

// Column names shared by every component that reads or writes a grade table.
const (
	IdentifierField = "Aluno"
	AggregateField  = "Média Geral"
	NotesField      = "Observações"
)

// Score bounds accepted for a submitted evaluation.
const (
	MinScore = 1
	MaxScore = 5
)

// DefaultFields is the kite-school skill rubric, in display order.
var DefaultFields = []string{
	"LIDERANÇA", "ASSIDUIDADE", "FLEXIBILIDADE", "TEORIA",
	"COMANDO", "CONTROLE", "BADYDRAG ESQ/DIR", "WATER START",
	"PRANCHA ESQ/DIR", "CONTRA VENTO",
}

// ErrInvalidRubric is returned when a rubric cannot be constructed.
var ErrInvalidRubric = errors.New("invalid rubric")

// Rubric is an immutable ordered set of skill fields plus the names of the
// identifier, aggregate and notes columns. Safe for concurrent reads.
type Rubric struct {
	fields             []string
	identifier         string
	aggregate          string
	notes              string
	identifierKeywords []string
	aggregateKeywords  []string
}

// Option customizes a Rubric at construction.
type Option func(*Rubric)

// WithIdentifierKeywords sets the canonical keywords that mark an identifier column.
func WithIdentifierKeywords(keywords ...string) Option {
	return func(r *Rubric) {
		if len(keywords) > 0 {
			r.identifierKeywords = upper(keywords)
		}
	}
}

// WithAggregateKeywords sets the canonical keywords that mark an aggregate column.
func WithAggregateKeywords(keywords ...string) Option {
	return func(r *Rubric) {
		if len(keywords) > 0 {
			r.aggregateKeywords = upper(keywords)
		}
	}
}

// New builds a rubric from field names. Names are canonicalized (trimmed,
// single-spaced, uppercased); empty or duplicate names are rejected.
func New(fields []string, opts ...Option) (*Rubric, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidRubric)
	}
	seen := make(map[string]struct{}, len(fields))
	canon := make([]string, 0, len(fields))
	for _, f := range fields {
		c := header.Canonical(f)
		if c == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrInvalidRubric)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidRubric, c)
		}
		seen[c] = struct{}{}
		canon = append(canon, c)
	}
	r := &Rubric{
		fields:             canon,
		identifier:         IdentifierField,
		aggregate:          AggregateField,
		notes:              NotesField,
		identifierKeywords: []string{"ALUNO", "NOME"},
		aggregateKeywords:  []string{"MEDIA", "MÉDIA"},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Default returns the built-in kite-school rubric.
func Default() *Rubric {
	r, err := New(DefaultFields)
	if err != nil {
		panic(err)
	}
	return r
}

// Fields returns a copy of the skill fields in rubric order.
func (r *Rubric) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of skill fields.
func (r *Rubric) Len() int { return len(r.fields) }

// Has reports whether name is one of the skill fields.
func (r *Rubric) Has(name string) bool {
	for _, f := range r.fields {
		if f == name {
			return true
		}
	}
	return false
}

// Identifier returns the identifier column name.
func (r *Rubric) Identifier() string { return r.identifier }

// Aggregate returns the aggregate score column name.
func (r *Rubric) Aggregate() string { return r.aggregate }

// Notes returns the free-text notes column name.
func (r *Rubric) Notes() string { return r.notes }

// IdentifierKeywords returns the keywords that mark an identifier column.
func (r *Rubric) IdentifierKeywords() []string {
	return append([]string(nil), r.identifierKeywords...)
}

// AggregateKeywords returns the keywords that mark an aggregate column.
func (r *Rubric) AggregateKeywords() []string {
	return append([]string(nil), r.aggregateKeywords...)
}

func upper(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = header.Canonical(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
