package api

import (
	"net/http"
)

// SessionsHandler creates and disposes grading sessions.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions. The new session starts with the
// local default table, or the demo table when that is unavailable.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess, res := h.deps.NewSession(r.Context())
	writeJSON(w, http.StatusCreated, tableResponse{
		SessionID: sess.ID(),
		Origin:    res.Origin,
		Warnings:  res.Warnings,
		Table:     res.Table,
	})
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.EndSession(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, "end session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
