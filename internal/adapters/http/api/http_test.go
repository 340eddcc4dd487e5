package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"

	"github.com/kiteforlife/kitegrade/internal/adapters/http/api"
	service "github.com/kiteforlife/kitegrade/internal/app"
)

const gradeSheet = "Nome,LIDERANÇA,ASSIDUIDADE,TEORIA,Turma\n" +
	"Ana,3,4,5,A\n" +
	"Bia,2,2,2,B\n"

func newServer(opts ...service.Option) (*service.Service, http.Handler) {
	svc := service.New(append([]service.Option{service.WithSkipRows(0)}, opts...)...)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return svc, mux
}

func do(h http.Handler, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func upload(h http.Handler, id, filename, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", filename)
	_, _ = part.Write([]byte(content))
	_ = mw.Close()
	return do(h, http.MethodPost, "/sessions/"+id+"/table", buf.Bytes(), mw.FormDataContentType())
}

func createSession(h http.Handler) string {
	w := do(h, http.MethodPost, "/sessions", nil, "")
	So(w.Code, ShouldEqual, http.StatusCreated)
	id := gjson.Get(w.Body.String(), "session_id").String()
	So(id, ShouldNotBeEmpty)
	return id
}

func evaluationBody(fields []string, id string, v int) []byte {
	scores := make(map[string]int, len(fields))
	for _, f := range fields {
		scores[f] = v
	}
	b, _ := json.Marshal(map[string]any{"id": id, "scores": scores, "notes": "ok"})
	return b
}

func TestSessions(t *testing.T) {
	Convey("Given the API", t, func() {
		_, h := newServer()

		Convey("Creating a session returns the demo table", func() {
			w := do(h, http.MethodPost, "/sessions", nil, "")
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")

			body := w.Body.String()
			So(gjson.Get(body, "origin").String(), ShouldEqual, "demo")
			So(gjson.Get(body, "table.rows.#").Int(), ShouldEqual, 3)
			So(gjson.Get(body, "table.fields.#").Int(), ShouldEqual, 10)
			So(gjson.Get(body, "table.rows.0.average").Float(), ShouldEqual, 2.7)
		})

		Convey("Deleting a session makes it unknown", func() {
			id := createSession(h)
			So(do(h, http.MethodDelete, "/sessions/"+id, nil, "").Code, ShouldEqual, http.StatusNoContent)

			w := do(h, http.MethodGet, "/sessions/"+id+"/table", nil, "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(gjson.Get(w.Body.String(), "code").String(), ShouldEqual, "not_found")
			So(do(h, http.MethodDelete, "/sessions/"+id, nil, "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestTable(t *testing.T) {
	Convey("Given a session", t, func() {
		_, h := newServer()
		id := createSession(h)

		Convey("Uploading a sheet replaces the table", func() {
			w := upload(h, id, "aval.csv", gradeSheet)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := w.Body.String()
			So(gjson.Get(body, "origin").String(), ShouldEqual, "upload")
			So(gjson.Get(body, "table.rows.#").Int(), ShouldEqual, 2)
			So(gjson.Get(body, "table.rows.0.id").String(), ShouldEqual, "Ana")
			So(gjson.Get(body, "table.rows.0.average").Float(), ShouldEqual, 1.2)
			So(gjson.Get(body, "table.extra.0").String(), ShouldEqual, "Turma")
			So(gjson.Get(body, "table.mapping.gaps.#").Int(), ShouldEqual, 7)

			w = do(h, http.MethodGet, "/sessions/"+id+"/table", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(gjson.Get(w.Body.String(), "origin").String(), ShouldEqual, "upload")
		})

		Convey("A malformed sheet falls back with a warning", func() {
			w := upload(h, id, "aval.csv", "Aluno,TEORIA\nAna,1,2,3\n")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := w.Body.String()
			So(gjson.Get(body, "origin").String(), ShouldEqual, "demo")
			So(gjson.Get(body, "table.rows.#").Int(), ShouldEqual, 3)
			So(gjson.Get(body, "warnings.#").Int(), ShouldEqual, 1)
		})

		Convey("A request without a file part is rejected", func() {
			w := do(h, http.MethodPost, "/sessions/"+id+"/table", []byte("{}"), "application/json")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("The table downloads as CSV", func() {
			upload(h, id, "aval.csv", gradeSheet)
			w := do(h, http.MethodGet, "/sessions/"+id+"/table.csv", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "text/csv; charset=utf-8")
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "attachment")
			lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
			So(lines, ShouldHaveLength, 3)
			So(lines[0], ShouldStartWith, "Aluno,LIDERANÇA")
			So(lines[0], ShouldEndWith, "Média Geral,Turma")
		})
	})

	Convey("Given a small upload limit", t, func() {
		_, h := newServer(service.WithMaxUploadBytes(32))
		id := createSession(h)
		So(upload(h, id, "small.csv", "Aluno,TEORIA\nAna,3\n").Code, ShouldEqual, http.StatusOK)

		Convey("Oversized bodies are refused", func() {
			w := upload(h, id, "aval.csv", strings.Repeat("x", 2<<20))
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})

		Convey("A file over the limit inside a small body is refused too", func() {
			w := upload(h, id, "aval.csv", gradeSheet)
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			So(gjson.Get(w.Body.String(), "code").String(), ShouldEqual, "too_large")

			Convey("The session keeps its table", func() {
				w := do(h, http.MethodGet, "/sessions/"+id+"/table", nil, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(gjson.Get(w.Body.String(), "origin").String(), ShouldEqual, "upload")
				So(gjson.Get(w.Body.String(), "table.rows.0.id").String(), ShouldEqual, "Ana")
			})
		})
	})
}

func TestReport(t *testing.T) {
	Convey("Given a session on the demo table", t, func() {
		_, h := newServer()
		id := createSession(h)

		Convey("The summary ranks students", func() {
			w := do(h, http.MethodGet, "/sessions/"+id+"/summary", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := w.Body.String()
			So(gjson.Get(body, "students").Int(), ShouldEqual, 3)
			So(gjson.Get(body, "school_average").Float(), ShouldEqual, 2.7)
			So(gjson.Get(body, "ranking.0.student_id").String(), ShouldEqual, "Francisco Neto")
			So(gjson.Get(body, "skills.#").Int(), ShouldEqual, 10)
		})

		Convey("A student sheet is served by identifier", func() {
			w := do(h, http.MethodGet, "/sessions/"+id+"/students/Ana%20Cecilia", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(gjson.Get(w.Body.String(), "average").Float(), ShouldEqual, 1.8)
			So(gjson.Get(w.Body.String(), "skills.0.school_mean").Float(), ShouldEqual, 3)
		})

		Convey("An unknown student is not found", func() {
			w := do(h, http.MethodGet, "/sessions/"+id+"/students/Nobody", nil, "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestEvaluations(t *testing.T) {
	Convey("Given a session", t, func() {
		svc, h := newServer()
		id := createSession(h)
		fields := svc.Rubric().Fields()

		Convey("Submitting returns the single evaluation CSV", func() {
			w := do(h, http.MethodPost, "/sessions/"+id+"/evaluations", evaluationBody(fields, "Ana Cecilia", 4), "application/json")
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Header().Get("Content-Disposition"), ShouldEqual, `attachment; filename=avaliacao_Ana_Cecilia.csv`)
			lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
			So(lines, ShouldHaveLength, 2)
			So(lines[1], ShouldStartWith, "Ana Cecilia,4,4")
			So(lines[1], ShouldEndWith, ",ok")
		})

		Convey("Invalid evaluations are rejected", func() {
			w := do(h, http.MethodPost, "/sessions/"+id+"/evaluations", evaluationBody(fields, "Ana", 9), "application/json")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(gjson.Get(w.Body.String(), "code").String(), ShouldEqual, "bad_request")

			w = do(h, http.MethodPost, "/sessions/"+id+"/evaluations", []byte(`{"id":`), "application/json")
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			w = do(h, http.MethodPost, "/sessions/"+id+"/evaluations", []byte(`{"id":"Ana","grade":1}`), "application/json")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Submitted evaluations are listed and exported", func() {
			do(h, http.MethodPost, "/sessions/"+id+"/evaluations", evaluationBody(fields, "B", 2), "application/json")
			do(h, http.MethodPost, "/sessions/"+id+"/evaluations", evaluationBody(fields, "A", 5), "application/json")

			w := do(h, http.MethodGet, "/sessions/"+id+"/evaluations", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(gjson.Get(w.Body.String(), "#").Int(), ShouldEqual, 2)
			So(gjson.Get(w.Body.String(), "0.id").String(), ShouldEqual, "B")

			w = do(h, http.MethodGet, "/sessions/"+id+"/evaluations.csv", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "avaliacoes_sessao.csv")
			So(strings.Split(strings.TrimSpace(w.Body.String()), "\n"), ShouldHaveLength, 3)
		})

		Convey("A fresh session lists nothing", func() {
			other := createSession(h)
			w := do(h, http.MethodGet, "/sessions/"+other+"/evaluations", nil, "")
			So(w.Body.String(), ShouldStartWith, "[]")
		})
	})
}

func TestOperational(t *testing.T) {
	Convey("Given the API", t, func() {
		_, h := newServer()
		createSession(h)

		Convey("Health serves Prometheus metrics", func() {
			w := do(h, http.MethodGet, "/healthz", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "kitegrade_pipeline_http_requests_total")
		})

		Convey("Stats report live sessions", func() {
			w := do(h, http.MethodGet, "/stats", nil, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(gjson.Get(w.Body.String(), "sessions").Int(), ShouldEqual, 1)
		})

		Convey("Wrong methods are refused by the mux", func() {
			w := do(h, http.MethodPut, "/sessions", nil, "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
