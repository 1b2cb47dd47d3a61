// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/tipset/internal/domain/types"
)

// ParticipantDependencies defines the interface for participant lookups.
type ParticipantDependencies interface {
	Participant(ctx context.Context, name string) (types.ParticipantView, error)
}

// ParticipantHandler handles participant requests.
type ParticipantHandler struct {
	deps ParticipantDependencies
}

// NewParticipantHandler creates a new participant handler.
func NewParticipantHandler(deps ParticipantDependencies) *ParticipantHandler {
	return &ParticipantHandler{deps: deps}
}

// HandleGetParticipant handles GET /participants/{name} requests.
func (h *ParticipantHandler) HandleGetParticipant(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_participant"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /participants/
	name := strings.TrimPrefix(r.URL.Path, "/participants/")
	if strings.TrimSpace(name) == "" || strings.Contains(name, "/") {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	view, err := h.deps.Participant(r.Context(), name)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
