// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/tipset/internal/adapters/mq/queue"
	"github.com/okian/tipset/internal/adapters/repository"
	"github.com/okian/tipset/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ReportDependencies
	LeaderboardDependencies
	ParticipantDependencies
	ViewDependencies
	RefreshDependencies
}

// ReportDependencies exposes the latest published report.
type ReportDependencies interface {
	Report(ctx context.Context) (*repository.Snapshot, error)
}

// ViewDependencies exposes the consensus and insight views.
type ViewDependencies interface {
	Consensus(ctx context.Context) (types.ConsensusView, error)
	Insights(ctx context.Context) (types.InsightsView, error)
}

// RefreshDependencies queues report rebuilds.
type RefreshDependencies interface {
	// Refresh queues a rebuild; key, when set, makes the call idempotent.
	Refresh(ctx context.Context, reason, key string) (queue.Job, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	reportHandler      *ReportHandler
	leaderboardHandler *LeaderboardHandler
	participantHandler *ParticipantHandler
	viewHandler        *ViewHandler
	refreshHandler     *RefreshHandler
}

// NewServer creates a new API server with all handlers. title heads the
// rendered markdown and HTML reports.
func NewServer(deps Dependencies, statsProvider StatsProvider, title string) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		reportHandler:      NewReportHandler(deps, title),
		leaderboardHandler: NewLeaderboardHandler(deps),
		participantHandler: NewParticipantHandler(deps),
		viewHandler:        NewViewHandler(deps),
		refreshHandler:     NewRefreshHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/report", MetricsMiddleware(s.reportHandler.HandleGetReport, "report"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/participants/", MetricsMiddleware(s.participantHandler.HandleGetParticipant, "participants"))
	mux.HandleFunc("/consensus", MetricsMiddleware(s.viewHandler.HandleGetConsensus, "consensus"))
	mux.HandleFunc("/insights", MetricsMiddleware(s.viewHandler.HandleGetInsights, "insights"))
	mux.HandleFunc("/refresh", MetricsMiddleware(s.refreshHandler.HandlePostRefresh, "refresh"))
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

// writeFailure classifies err and writes the matching error response.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
