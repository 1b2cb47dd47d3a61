package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/okian/tipset/internal/adapters/render"
)

// ReportHandler renders the latest report.
type ReportHandler struct {
	deps  ReportDependencies
	title string
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies, title string) *ReportHandler {
	return &ReportHandler{deps: deps, title: title}
}

// HandleGetReport handles GET /report?format=json|markdown|html requests.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	renderer, err := render.ForFormat(r.URL.Query().Get("format"), h.title)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := h.deps.Report(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	// Render fully before writing so a failure can still become a 500.
	var buf bytes.Buffer
	if err := renderer.Render(&buf, snap.Report); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("X-Report-Version", strconv.FormatUint(snap.Version, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

