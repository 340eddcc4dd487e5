package api

import (
	"errors"
	"net/http"

	"github.com/kiteforlife/kitegrade/internal/adapters/export"
	"github.com/kiteforlife/kitegrade/internal/adapters/loader"
)

const (
	uploadField = "file"
	// multipartOverhead leaves room for boundaries and part headers.
	multipartOverhead = 1 << 20
	tableFilename     = "tabela.csv"
)

// TableHandler serves the session table and accepts replacement uploads.
type TableHandler struct {
	deps Dependencies
}

// NewTableHandler creates a new table handler.
func NewTableHandler(deps Dependencies) *TableHandler {
	return &TableHandler{deps: deps}
}

// HandleUpload handles POST /sessions/{id}/table with a multipart "file" part.
// A file larger than the upload limit is refused with 413 and the session
// keeps its table. An unreadable or malformed file does not fail the request:
// the session falls back to the local or demo table and the response carries
// warnings.
func (h *TableHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.deps.Session(r.Context(), id); err != nil {
		writeDomainError(w, "upload", err)
		return
	}

	limit := h.deps.MaxUploadBytes()
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind("upload", ErrTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("upload", ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	_, fh, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("upload", ErrBadRequest, err))
		return
	}
	if limit > 0 && fh.Size > limit {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", NewKind("upload", ErrTooLarge))
		return
	}

	res, err := h.deps.Upload(r.Context(), id, loader.MultipartSource{Header: fh, MaxBytes: limit})
	if err != nil {
		writeDomainError(w, "upload", err)
		return
	}
	writeJSON(w, http.StatusOK, tableResponse{
		SessionID: id,
		Origin:    res.Origin,
		Warnings:  res.Warnings,
		Table:     res.Table,
	})
}

// HandleGet handles GET /sessions/{id}/table.
func (h *TableHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.deps.Session(r.Context(), id)
	if err != nil {
		writeDomainError(w, "table", err)
		return
	}
	t, origin := sess.Table()
	writeJSON(w, http.StatusOK, tableResponse{SessionID: id, Origin: origin, Table: t})
}

// HandleCSV handles GET /sessions/{id}/table.csv.
func (h *TableHandler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "table csv", err)
		return
	}
	t, _ := sess.Table()
	writeAttachment(w, tableFilename)
	_ = export.Table(w, t, h.deps.Rubric())
}
