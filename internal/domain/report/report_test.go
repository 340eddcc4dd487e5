package report

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kiteforlife/kitegrade/internal/domain/fallback"
	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
)

func TestSummarize(t *testing.T) {
	Convey("Given the demo table", t, func() {
		tbl := fallback.Table(rubric.Default())
		s := Summarize(tbl)

		Convey("The school average is the mean of row averages", func() {
			So(s.Students, ShouldEqual, 3)
			So(s.SchoolAverage, ShouldEqual, 2.7)
		})

		Convey("Skills follow rubric order", func() {
			So(len(s.Skills), ShouldEqual, 10)
			So(s.Skills[0].Field, ShouldEqual, "LIDERANÇA")
			So(s.Skills[0].Score, ShouldEqual, 3)
		})

		Convey("The ranking is highest first", func() {
			So(s.Ranking[0].StudentID, ShouldEqual, "Francisco Neto")
			So(s.Ranking[0].Rank, ShouldEqual, 1)
			So(s.Ranking[2].StudentID, ShouldEqual, "Ana Cecilia")
			So(s.Ranking[2].Rank, ShouldEqual, 3)
		})

		Convey("The table is left untouched", func() {
			So(tbl.Rows[0].ID, ShouldEqual, "Beatriz Vitoria")
		})
	})

	Convey("Given tied averages", t, func() {
		tbl := &model.ReconciledTable{
			Fields: []string{"TEORIA"},
			Rows: []model.Row{
				{ID: "B", Scores: map[string]float64{"TEORIA": 3}, Average: 3},
				{ID: "A", Scores: map[string]float64{"TEORIA": 3}, Average: 3},
			},
		}

		Convey("Table order is kept", func() {
			s := Summarize(tbl)
			So(s.Ranking[0].StudentID, ShouldEqual, "B")
			So(s.Ranking[1].StudentID, ShouldEqual, "A")
		})
	})

	Convey("Given an empty table", t, func() {
		tbl := &model.ReconciledTable{Fields: []string{"TEORIA"}, Rows: []model.Row{}}
		s := Summarize(tbl)

		Convey("Means are zero and the ranking is empty", func() {
			So(s.SchoolAverage, ShouldEqual, 0)
			So(s.Skills[0].Score, ShouldEqual, 0)
			So(s.Ranking, ShouldBeEmpty)
		})
	})
}

func TestStudent(t *testing.T) {
	Convey("Given the demo table", t, func() {
		tbl := fallback.Table(rubric.Default())

		Convey("A known student gets scores next to school means", func() {
			sheet, err := Student(tbl, "Ana Cecilia")
			So(err, ShouldBeNil)
			So(sheet.Average, ShouldEqual, 1.8)
			So(sheet.Skills[0].Field, ShouldEqual, "LIDERANÇA")
			So(sheet.Skills[0].Score, ShouldEqual, 2)
			So(sheet.Skills[0].SchoolMean, ShouldEqual, 3)
		})

		Convey("An unknown student is reported", func() {
			_, err := Student(tbl, "Nobody")
			So(errors.Is(err, ErrStudentNotFound), ShouldBeTrue)
		})
	})
}
