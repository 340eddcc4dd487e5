// Package report derives the dashboard and student views from a reconciled table.
package report

import (
	"errors"
	"slices"

	"github.com/samber/lo"

	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/reconcile"
	"github.com/kiteforlife/kitegrade/internal/domain/types"
)

// ErrStudentNotFound is returned by Student for an unknown identifier.
var ErrStudentNotFound = errors.New("student not found")

// Summary is the school-wide view.
type Summary struct {
	SchoolAverage float64            `json:"school_average"`
	Students      int                `json:"students"`
	Skills        []types.SkillScore `json:"skills"`
	Ranking       []types.Entry      `json:"ranking"`
}

// StudentSkill is one field of a student sheet, next to the school mean.
type StudentSkill struct {
	Field      string  `json:"field"`
	Score      float64 `json:"score"`
	SchoolMean float64 `json:"school_mean"`
}

// StudentSheet is the per-student view.
type StudentSheet struct {
	ID      string         `json:"id"`
	Average float64        `json:"average"`
	Skills  []StudentSkill `json:"skills"`
}

// Summarize computes the school average, the per-skill means in rubric order
// and the ranking by average, highest first. Ties keep table order. An empty
// table yields zero means.
func Summarize(t *model.ReconciledTable) Summary {
	s := Summary{
		Students: t.Len(),
		Skills:   SkillMeans(t),
		Ranking:  make([]types.Entry, 0, t.Len()),
	}
	if t.Len() > 0 {
		s.SchoolAverage = reconcile.Round2(lo.SumBy(t.Rows, func(r model.Row) float64 { return r.Average }) / float64(t.Len()))
	}

	rows := slices.Clone(t.Rows)
	slices.SortStableFunc(rows, func(a, b model.Row) int {
		switch {
		case a.Average > b.Average:
			return -1
		case a.Average < b.Average:
			return 1
		default:
			return 0
		}
	})
	for i, r := range rows {
		s.Ranking = append(s.Ranking, types.Entry{Rank: i + 1, StudentID: r.ID, Average: r.Average})
	}
	return s
}

// SkillMeans returns the mean of every rubric field across rows.
func SkillMeans(t *model.ReconciledTable) []types.SkillScore {
	return lo.Map(t.Fields, func(f string, _ int) types.SkillScore {
		if t.Len() == 0 {
			return types.SkillScore{Field: f}
		}
		sum := lo.SumBy(t.Rows, func(r model.Row) float64 { return r.Scores[f] })
		return types.SkillScore{Field: f, Score: reconcile.Round2(sum / float64(t.Len()))}
	})
}

// Student returns the sheet of the first row whose ID is id.
func Student(t *model.ReconciledTable, id string) (StudentSheet, error) {
	row, ok := lo.Find(t.Rows, func(r model.Row) bool { return r.ID == id })
	if !ok {
		return StudentSheet{}, ErrStudentNotFound
	}
	means := SkillMeans(t)
	sheet := StudentSheet{ID: row.ID, Average: row.Average, Skills: make([]StudentSkill, len(t.Fields))}
	for i, f := range t.Fields {
		sheet.Skills[i] = StudentSkill{Field: f, Score: row.Scores[f], SchoolMean: means[i].Score}
	}
	return sheet, nil
}
