// Package fallback provides the built-in demo table used when no grade sheet
// can be loaded.
package fallback

import (
	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/reconcile"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
)

type student struct {
	name   string
	scores []float64
}

var demo = []student{
	{"Beatriz Vitoria", []float64{3, 4, 3, 2, 3, 2, 3, 2, 3, 2}},
	{"Ana Cecilia", []float64{2, 3, 2, 1, 2, 2, 2, 1, 2, 1}},
	{"Francisco Neto", []float64{4, 4, 4, 3, 4, 3, 4, 3, 4, 3}},
}

// Table returns the three-student demo table for r. Demo scores are assigned
// to fields in rubric order; a rubric with more than ten fields reads 0 for
// the rest.
func Table(r *rubric.Rubric) *model.ReconciledTable {
	fields := r.Fields()
	t := &model.ReconciledTable{
		Fields:  fields,
		Extra:   []string{},
		Rows:    make([]model.Row, 0, len(demo)),
		Mapping: model.HeaderMapping{Matches: []model.ColumnMatch{}, Gaps: []string{}},
	}
	for _, s := range demo {
		row := model.Row{ID: s.name, Scores: make(map[string]float64, len(fields))}
		for i, f := range fields {
			if i < len(s.scores) {
				row.Scores[f] = s.scores[i]
			} else {
				row.Scores[f] = 0
			}
		}
		row.Average = reconcile.Average(row.Scores, fields)
		t.Rows = append(t.Rows, row)
	}
	return t
}
