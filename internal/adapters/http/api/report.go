package api

import (
	"net/http"
)

// ReportHandler serves the dashboard and per-student views.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleSummary handles GET /sessions/{id}/summary.
func (h *ReportHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleStudent handles GET /sessions/{id}/students/{student}.
func (h *ReportHandler) HandleStudent(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.deps.Student(r.Context(), r.PathValue("id"), r.PathValue("student"))
	if err != nil {
		writeDomainError(w, "student", err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}
