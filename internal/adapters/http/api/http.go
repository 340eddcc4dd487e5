// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kiteforlife/kitegrade/internal/adapters/loader"
	"github.com/kiteforlife/kitegrade/internal/adapters/session"
	"github.com/kiteforlife/kitegrade/internal/domain/model"
	"github.com/kiteforlife/kitegrade/internal/domain/report"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Rubric() *rubric.Rubric
	MaxUploadBytes() int64

	NewSession(ctx context.Context) (*session.Session, model.LoadResult)
	Session(ctx context.Context, id string) (*session.Session, error)
	EndSession(ctx context.Context, id string) error

	Upload(ctx context.Context, id string, src loader.Source) (model.LoadResult, error)
	Submit(ctx context.Context, id string, ev model.Evaluation) (model.Evaluation, error)

	Summary(ctx context.Context, id string) (report.Summary, error)
	Student(ctx context.Context, id, student string) (report.StudentSheet, error)
}

// Server wires HTTP routes for the grading API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	sessionsHandler    *SessionsHandler
	tableHandler       *TableHandler
	reportHandler      *ReportHandler
	evaluationsHandler *EvaluationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		sessionsHandler:    NewSessionsHandler(deps),
		tableHandler:       NewTableHandler(deps),
		reportHandler:      NewReportHandler(deps),
		evaluationsHandler: NewEvaluationsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "sessions"))

	mux.HandleFunc("POST /sessions/{id}/table", MetricsMiddleware(s.tableHandler.HandleUpload, "table"))
	mux.HandleFunc("GET /sessions/{id}/table", MetricsMiddleware(s.tableHandler.HandleGet, "table"))
	mux.HandleFunc("GET /sessions/{id}/table.csv", MetricsMiddleware(s.tableHandler.HandleCSV, "table_csv"))

	mux.HandleFunc("GET /sessions/{id}/summary", MetricsMiddleware(s.reportHandler.HandleSummary, "summary"))
	mux.HandleFunc("GET /sessions/{id}/students/{student}", MetricsMiddleware(s.reportHandler.HandleStudent, "student"))

	mux.HandleFunc("POST /sessions/{id}/evaluations", MetricsMiddleware(s.evaluationsHandler.HandleSubmit, "evaluations"))
	mux.HandleFunc("GET /sessions/{id}/evaluations", MetricsMiddleware(s.evaluationsHandler.HandleList, "evaluations"))
	mux.HandleFunc("GET /sessions/{id}/evaluations.csv", MetricsMiddleware(s.evaluationsHandler.HandleExport, "evaluations_csv"))
}

// tableResponse is returned by every endpoint that yields a table.
type tableResponse struct {
	SessionID string                 `json:"session_id"`
	Origin    model.Origin           `json:"origin"`
	Warnings  []string               `json:"warnings,omitempty"`
	Table     *model.ReconciledTable `json:"table"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates service errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, report.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, session.ErrInvalidEvaluation):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
