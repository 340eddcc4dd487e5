// Package reconcile conforms a raw table to the rubric schema.
package reconcile

import (
	"math"
	"strconv"
	"strings"

	"github.com/kiteforlife/kitegrade/internal/domain/header"
	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
)

// DefaultIdentifierPrefix names rows when the source has no identifier column.
const DefaultIdentifierPrefix = "Aluno"

// Reconciler turns a RawTable and its HeaderMapping into a ReconciledTable.
type Reconciler struct {
	rubric     *rubric.Rubric
	strictness header.Strictness
	idPrefix   string
}

// New creates a Reconciler for r.
func New(r *rubric.Rubric, opts ...Option) *Reconciler {
	rc := &Reconciler{
		rubric:     r,
		strictness: header.Strict,
		idPrefix:   DefaultIdentifierPrefix,
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Reconcile is a convenience for New(r, opts...).Reconcile(raw, m).
func Reconcile(raw *model.RawTable, m model.HeaderMapping, r *rubric.Rubric, opts ...Option) *model.ReconciledTable {
	return New(r, opts...).Reconcile(raw, m)
}

// Reconcile never fails. Rubric fields without a source column and blank
// cells read 0 and count in the mean, so a computed average always equals
// Average(row.Scores, t.Fields). A cell that is not a number zeroes that
// row's average. An aggregate column already in the source is kept as is.
func (rc *Reconciler) Reconcile(raw *model.RawTable, m model.HeaderMapping) *model.ReconciledTable {
	fields := rc.rubric.Fields()
	out := &model.ReconciledTable{
		Fields:  fields,
		Extra:   []string{},
		Rows:    make([]model.Row, 0, len(raw.Rows)),
		Mapping: m,
	}

	idCol, aggCol := rc.locate(raw.Headers, m)
	out.SyntheticIDs = idCol == ""
	out.AggregateSupplied = aggCol != ""
	for _, h := range raw.Headers {
		if _, mapped := m.FieldFor(h); mapped || h == idCol || h == aggCol {
			continue
		}
		out.Extra = append(out.Extra, h)
	}

	for i, src := range raw.Rows {
		row := model.Row{
			ID:     rc.identifier(src, idCol, i),
			Scores: make(map[string]float64, len(fields)),
		}

		failed := false
		for _, f := range fields {
			row.Scores[f] = 0
			h, ok := m.HeaderFor(f)
			if !ok {
				continue
			}
			cell := strings.TrimSpace(src[h])
			if cell == "" {
				continue
			}
			v, ok := ParseScore(cell)
			if !ok {
				failed = true
				continue
			}
			row.Scores[f] = v
		}

		switch {
		case aggCol != "":
			cell := strings.TrimSpace(src[aggCol])
			if v, ok := ParseScore(cell); ok {
				row.Average = v
			} else if cell != "" {
				out.AggregateFailures++
			}
		case failed:
			out.AggregateFailures++
		default:
			row.Average = Average(row.Scores, fields)
		}

		if len(out.Extra) > 0 {
			row.Extra = make(map[string]string, len(out.Extra))
			for _, h := range out.Extra {
				row.Extra[h] = src[h]
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// locate finds the identifier and aggregate columns among headers the
// mapper did not claim.
func (rc *Reconciler) locate(headers []string, m model.HeaderMapping) (idCol, aggCol string) {
	idKeys := map[string]struct{}{header.Key(rc.rubric.Identifier(), rc.strictness): {}}
	for _, k := range rc.rubric.IdentifierKeywords() {
		idKeys[header.Key(k, rc.strictness)] = struct{}{}
	}
	aggKey := header.Key(rc.rubric.Aggregate(), rc.strictness)

	for _, h := range headers {
		if _, mapped := m.FieldFor(h); mapped {
			continue
		}
		k := header.Key(h, rc.strictness)
		if _, ok := idKeys[k]; ok && idCol == "" {
			idCol = h
			continue
		}
		if k == aggKey && aggCol == "" {
			aggCol = h
		}
	}
	return idCol, aggCol
}

func (rc *Reconciler) identifier(src map[string]string, idCol string, i int) string {
	if idCol != "" {
		if id := strings.TrimSpace(src[idCol]); id != "" {
			return id
		}
	}
	return SyntheticID(rc.idPrefix, i)
}

// SyntheticID returns the generated identifier of the i-th row (0-based).
func SyntheticID(prefix string, i int) string {
	return prefix + " " + strconv.Itoa(i+1)
}

// ParseScore reads a numeric cell. A lone comma is accepted as the decimal
// separator, so "3,5" reads 3.5.
func ParseScore(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	if strings.Count(cell, ",") == 1 && !strings.Contains(cell, ".") {
		cell = strings.Replace(cell, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Round2 rounds v to two decimals, halves to even, the way pandas rounds
// the aggregate column: 2.125 reads 2.12.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// Average returns the rounded mean of scores over fields, or 0 when fields is empty.
func Average(scores map[string]float64, fields []string) float64 {
	if len(fields) == 0 {
		return 0
	}
	var sum float64
	for _, f := range fields {
		sum += scores[f]
	}
	return Round2(sum / float64(len(fields)))
}
