package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kiteforlife/kitegrade/internal/adapters/session"
	"github.com/kiteforlife/kitegrade/internal/domain/report"
)

func TestOpError(t *testing.T) {
	Convey("Given a wrapped error", t, func() {
		cause := errors.New("boom")
		err := WrapKind("upload", ErrBadRequest, cause)

		Convey("Both the kind and the cause are visible", func() {
			So(errors.Is(err, ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "upload: bad request: boom")
		})

		Convey("A bare kind prints without a cause", func() {
			So(NewKind("summary", ErrNotFound).Error(), ShouldEqual, "summary: not found")
			So(errors.Is(NewKind("summary", ErrNotFound), ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestWriteDomainError(t *testing.T) {
	Convey("Service errors map to statuses", t, func() {
		cases := []struct {
			err  error
			code int
		}{
			{session.ErrSessionNotFound, http.StatusNotFound},
			{report.ErrStudentNotFound, http.StatusNotFound},
			{session.ErrInvalidEvaluation, http.StatusBadRequest},
			{errors.New("disk on fire"), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			w := httptest.NewRecorder()
			writeDomainError(w, "op", tc.err)
			So(w.Code, ShouldEqual, tc.code)
		}
	})
}

func TestErrorClassification(t *testing.T) {
	Convey("Status codes are classified for metrics", t, func() {
		So(getErrorType(http.StatusInternalServerError), ShouldEqual, "server_error")
		So(getErrorType(http.StatusRequestEntityTooLarge), ShouldEqual, "too_large")
		So(getErrorType(http.StatusNotFound), ShouldEqual, "not_found")
		So(getErrorType(http.StatusBadRequest), ShouldEqual, "client_error")
		So(getErrorType(http.StatusOK), ShouldEqual, "unknown")

		So(getErrorSeverity(http.StatusBadGateway), ShouldEqual, "high")
		So(getErrorSeverity(http.StatusConflict), ShouldEqual, "medium")
		So(getErrorSeverity(http.StatusOK), ShouldEqual, "low")
	})

	Convey("The middleware records the status written", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}, "test")
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		So(w.Code, ShouldEqual, http.StatusTeapot)
	})
}
