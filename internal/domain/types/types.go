// Package types contains the read shapes the service hands to the HTTP layer.
package types

import (
	"time"

	"github.com/okian/tipset/internal/domain/consensus"
	"github.com/okian/tipset/internal/domain/insights"
	"github.com/okian/tipset/internal/domain/leaderboard"
	"github.com/okian/tipset/internal/domain/model"
)

// Meta identifies the report a view was cut from.
type Meta struct {
	Version     uint64    `json:"version"`
	Mode        string    `json:"mode"`
	GeneratedAt time.Time `json:"generated_at"`
}

// LeaderboardView is GET /leaderboard.
type LeaderboardView struct {
	Meta
	Total   int                 `json:"total"`
	Entries []leaderboard.Entry `json:"entries"`
}

// ParticipantView is GET /participants/{name}.
type ParticipantView struct {
	Meta
	Prediction model.Prediction   `json:"prediction"`
	Entry      *leaderboard.Entry `json:"entry,omitempty"`
	Issues     []model.Issue      `json:"issues,omitempty"`
}

// ConsensusView is GET /consensus.
type ConsensusView struct {
	Meta
	Entries []consensus.Entry `json:"entries"`
}

// InsightsView is GET /insights.
type InsightsView struct {
	Meta
	FunStats insights.FunStats `json:"fun_stats"`
}

// RefreshAck is the POST /refresh response.
type RefreshAck struct {
	Status      string    `json:"status"`
	JobID       string    `json:"job_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
	Duplicate   bool      `json:"duplicate"`
}
