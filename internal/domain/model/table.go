// Package model contains domain models passed between layers.
package model

import "time"

// RawTable is a parsed table before reconciliation. Headers keeps the
// original labels in column order; blank labels are already dropped and
// repeated labels carry a ".N" suffix.
type RawTable struct {
	Headers []string
	Rows    []map[string]string
}

// Column returns the cells of header h in row order.
func (t *RawTable) Column(h string) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[h]
	}
	return out
}

// MatchKind records which mapper pass paired a header with a rubric field.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchHeuristic MatchKind = "heuristic"
)

// ColumnMatch pairs one source header with one rubric field.
type ColumnMatch struct {
	Header string    `json:"header"`
	Field  string    `json:"field"`
	Kind   MatchKind `json:"kind"`
}

// HeaderMapping maps source headers onto rubric fields. Each field receives
// at most one header and each header feeds at most one field.
type HeaderMapping struct {
	Matches []ColumnMatch `json:"matches"`
	// Gaps lists rubric fields no header was found for.
	Gaps []string `json:"gaps"`
}

// FieldFor returns the rubric field header h was mapped to.
func (m HeaderMapping) FieldFor(h string) (string, bool) {
	for _, c := range m.Matches {
		if c.Header == h {
			return c.Field, true
		}
	}
	return "", false
}

// HeaderFor returns the source header mapped to field.
func (m HeaderMapping) HeaderFor(field string) (string, bool) {
	for _, c := range m.Matches {
		if c.Field == field {
			return c.Header, true
		}
	}
	return "", false
}

// Row is one student in a reconciled table.
type Row struct {
	ID      string             `json:"id"`
	Scores  map[string]float64 `json:"scores"`
	Average float64            `json:"average"`
	// Extra holds source columns that are neither rubric, identifier nor aggregate.
	Extra map[string]string `json:"extra,omitempty"`
}

// ReconciledTable conforms to the rubric: every row has every field and an ID.
type ReconciledTable struct {
	Fields  []string      `json:"fields"`
	Extra   []string      `json:"extra,omitempty"`
	Rows    []Row         `json:"rows"`
	Mapping HeaderMapping `json:"mapping"`

	// AggregateSupplied is set when averages were copied from the source.
	AggregateSupplied bool `json:"aggregate_supplied"`
	// AggregateFailures counts rows whose average fell back to 0.
	AggregateFailures int `json:"aggregate_failures"`
	// SyntheticIDs is set when the source had no identifier column.
	SyntheticIDs bool `json:"synthetic_ids"`
}

// Len returns the number of rows.
func (t *ReconciledTable) Len() int { return len(t.Rows) }

// IDs returns the row identifiers in order.
func (t *ReconciledTable) IDs() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.ID
	}
	return out
}

// Evaluation is one set of scores submitted during an interactive session.
type Evaluation struct {
	ID          string         `json:"id"`
	Scores      map[string]int `json:"scores"`
	Notes       string         `json:"notes"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Origin says which stage of the load chain produced a table.
type Origin string

const (
	OriginUpload Origin = "upload"
	OriginLocal  Origin = "local"
	OriginDemo   Origin = "demo"
)

// LoadResult is a usable table plus a warning for every load stage that
// failed before it.
type LoadResult struct {
	Table    *ReconciledTable `json:"table"`
	Origin   Origin           `json:"origin"`
	Warnings []string         `json:"warnings"`
}
