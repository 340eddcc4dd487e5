package api

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/kiteforlife/kitegrade/internal/adapters/export"
	"github.com/kiteforlife/kitegrade/internal/domain/model"
)

const maxEvaluationBytes = 64 << 10

// evaluationRequest is the body of POST /sessions/{id}/evaluations.
type evaluationRequest struct {
	ID     string         `json:"id"`
	Scores map[string]int `json:"scores"`
	Notes  string         `json:"notes"`
}

// EvaluationsHandler records new evaluations and exports them as CSV.
type EvaluationsHandler struct {
	deps Dependencies
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps Dependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps}
}

// HandleSubmit handles POST /sessions/{id}/evaluations. The response is the
// single-row CSV download for the recorded evaluation.
func (h *EvaluationsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req evaluationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEvaluationBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("submit", ErrBadRequest, err))
		return
	}

	ev, err := h.deps.Submit(r.Context(), r.PathValue("id"), model.Evaluation{
		ID:     req.ID,
		Scores: req.Scores,
		Notes:  req.Notes,
	})
	if err != nil {
		writeDomainError(w, "submit", err)
		return
	}
	writeAttachment(w, export.EvaluationFilename(ev.ID))
	w.WriteHeader(http.StatusCreated)
	_ = export.Evaluation(w, ev, h.deps.Rubric())
}

// HandleList handles GET /sessions/{id}/evaluations.
func (h *EvaluationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "evaluations", err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Evaluations())
}

// HandleExport handles GET /sessions/{id}/evaluations.csv.
func (h *EvaluationsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "evaluations csv", err)
		return
	}
	writeAttachment(w, export.SessionFilename)
	_ = export.Session(w, sess.Evaluations(), h.deps.Rubric())
}

func writeAttachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}
