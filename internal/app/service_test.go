package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kiteforlife/kitegrade/internal/adapters/loader"
	service "github.com/kiteforlife/kitegrade/internal/app"
	"github.com/kiteforlife/kitegrade/internal/domain/header"
	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
	"github.com/kiteforlife/kitegrade/pkg/logger"
)

const gradeSheet = "Aluno,LIDERANCA,ASSIDUIDADE,TEORIA\n" +
	"Ana,3,4,5\n" +
	"Bia,2,2,2\n"

func csvSource(name, body string) loader.Source {
	return loader.BytesSource{Filename: name, Data: []byte(body)}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Rubric().Len(), ShouldEqual, 10)
			So(svc.MaxUploadBytes(), ShouldEqual, int64(10<<20))
		})
	})

	Convey("Given a new service with custom options", t, func() {
		r, _ := rubric.New([]string{"TEORIA"})
		svc := service.New(
			service.WithLogger(logger.Discard()),
			service.WithRubric(r),
			service.WithSkipRows(0),
			service.WithStrictness(header.AccentInsensitive),
			service.WithIdentifierPrefix("Estudante"),
			service.WithSessionTTL(time.Minute),
			service.WithMaxUploadBytes(1024),
		)

		Convey("Then the options are applied", func() {
			So(svc.Rubric(), ShouldEqual, r)
			So(svc.MaxUploadBytes(), ShouldEqual, int64(1024))
			stats := svc.GetStats()
			So(stats["skipRows"], ShouldEqual, 0)
			So(stats["accentMode"], ShouldEqual, "fold")
			So(stats["rubricFields"], ShouldEqual, 1)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(service.WithSessionTTL(time.Minute))
		ctx := context.Background()

		Convey("Start and Stop are idempotent", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)

			svc.Stop()
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestService_Reconcile(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sheet without the title block", t, func() {
		svc := service.New(service.WithSkipRows(0))

		Convey("Strict mode leaves the unaccented field as a gap", func() {
			tbl, err := svc.Reconcile(ctx, csvSource("aval.csv", gradeSheet))
			So(err, ShouldBeNil)
			So(tbl.Len(), ShouldEqual, 2)
			So(tbl.Mapping.Gaps, ShouldContain, "LIDERANÇA")
			So(tbl.Rows[0].Scores["LIDERANÇA"], ShouldEqual, 0)
		})

		Convey("Fold mode picks it up", func() {
			svc := service.New(service.WithSkipRows(0), service.WithStrictness(header.AccentInsensitive))
			tbl, err := svc.Reconcile(ctx, csvSource("aval.csv", gradeSheet))
			So(err, ShouldBeNil)
			So(tbl.Mapping.Gaps, ShouldNotContain, "LIDERANÇA")
			So(tbl.Rows[0].Scores["LIDERANÇA"], ShouldEqual, 3)
		})

		Convey("A malformed file is a LoadError", func() {
			_, err := svc.Reconcile(ctx, csvSource("aval.csv", "Aluno,TEORIA\nAna,1,2,3\n"))
			var le *loader.LoadError
			So(errors.As(err, &le), ShouldBeTrue)
		})
	})
}

func TestService_LoadTable(t *testing.T) {
	ctx := context.Background()

	Convey("Given a malformed upload and no local file", t, func() {
		svc := service.New(service.WithSkipRows(0))
		res := svc.LoadTable(ctx, csvSource("aval.csv", "Aluno,TEORIA\nAna,1,2,3\n"))

		Convey("The demo table is served with a warning", func() {
			So(res.Origin, ShouldEqual, model.OriginDemo)
			So(res.Table.Len(), ShouldEqual, 3)
			So(res.Warnings, ShouldHaveLength, 1)
			for _, row := range res.Table.Rows {
				So(len(row.Scores), ShouldEqual, svc.Rubric().Len())
			}
		})
	})

	Convey("Given a good upload", t, func() {
		svc := service.New(service.WithSkipRows(0))
		res := svc.LoadTable(ctx, csvSource("aval.csv", gradeSheet))

		Convey("It is served as is", func() {
			So(res.Origin, ShouldEqual, model.OriginUpload)
			So(res.Table.IDs(), ShouldResemble, []string{"Ana", "Bia"})
			So(res.Warnings, ShouldBeEmpty)
		})
	})

	Convey("Given a local default file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "aval.csv")
		So(os.WriteFile(path, []byte(gradeSheet), 0o600), ShouldBeNil)
		svc := service.New(service.WithSkipRows(0), service.WithDefaultFile(path))

		Convey("It is used when nothing is uploaded", func() {
			res := svc.LoadTable(ctx, nil)
			So(res.Origin, ShouldEqual, model.OriginLocal)
			So(res.Table.Len(), ShouldEqual, 2)
		})

		Convey("It is used when the upload fails", func() {
			res := svc.LoadTable(ctx, csvSource("x.xlsx", "garbage"))
			So(res.Origin, ShouldEqual, model.OriginLocal)
			So(res.Warnings, ShouldHaveLength, 1)
		})

		Convey("A broken local file falls through to the demo", func() {
			So(os.WriteFile(path, []byte("Aluno\nAna,1\n"), 0o600), ShouldBeNil)
			res := svc.LoadTable(ctx, csvSource("x.xlsx", "garbage"))
			So(res.Origin, ShouldEqual, model.OriginDemo)
			So(res.Warnings, ShouldHaveLength, 2)
		})
	})

	Convey("Given a configured local file that does not exist", t, func() {
		svc := service.New(service.WithDefaultFile(filepath.Join(t.TempDir(), "missing.csv")))

		Convey("The demo is served without a warning", func() {
			res := svc.LoadTable(ctx, nil)
			So(res.Origin, ShouldEqual, model.OriginDemo)
			So(res.Warnings, ShouldBeEmpty)
		})
	})
}
