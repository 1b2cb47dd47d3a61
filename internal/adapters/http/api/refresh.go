// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/tipset/internal/adapters/mq/queue"
	service "github.com/okian/tipset/internal/app"
	"github.com/okian/tipset/internal/domain/types"
)

// IdempotencyHeader carries the client's retry key for POST /refresh.
const IdempotencyHeader = "Idempotency-Key"

// RefreshHandler handles refresh requests
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// HandlePostRefresh handles POST /refresh requests
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))

	job, err := h.deps.Refresh(r.Context(), queue.ReasonManual, key)
	switch {
	case errors.Is(err, service.ErrDuplicateRequest):
		writeJSON(w, http.StatusOK, types.RefreshAck{Status: "duplicate", Duplicate: true})
		return
	case errors.Is(err, service.ErrBackpressure):
		writeFailure(w, WrapKind(op, ErrBackpressure, err))
		return
	case err != nil:
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, types.RefreshAck{
		Status:      "accepted",
		JobID:       job.ID,
		Reason:      job.Reason,
		RequestedAt: job.RequestedAt,
	})
}
