// Package config defines service configuration structures and loading hooks.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// Title heads rendered markdown and HTML reports.
	Title string `koanf:"title"`

	// PredictionsPath is the predictions file; its extension picks the parser.
	PredictionsPath string `koanf:"predictions_path" validate:"required"`

	// StandingsURL is the league table feed. Empty runs without a live table.
	StandingsURL string `koanf:"standings_url" validate:"omitempty,url"`

	// StandingsTimeout bounds one feed request.
	StandingsTimeout time.Duration `koanf:"standings_timeout" validate:"gt=0"`

	// StandingsRatePerMinute caps feed requests. Zero disables the limit.
	StandingsRatePerMinute int `koanf:"standings_rate_per_minute" validate:"gte=0"`

	// StandingsCacheTTL is how long a fetched table is reused.
	StandingsCacheTTL time.Duration `koanf:"standings_cache_ttl" validate:"gte=0"`

	// RefreshInterval schedules rebuilds. Zero disables the schedule.
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=0"`

	// JobTimeout bounds one rebuild.
	JobTimeout time.Duration `koanf:"job_timeout" validate:"gt=0"`

	// QueueSize bounds pending refresh jobs.
	QueueSize int `koanf:"queue_size" validate:"min=1"`

	// DedupeSize is how many refresh idempotency keys are remembered.
	DedupeSize int `koanf:"dedupe_size" validate:"min=1"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"min=1"`

	// TopN is how many consensus leaders the optimism insights look at.
	TopN int `koanf:"top_n" validate:"min=1"`

	// TieBreakPolicy resolves tied insights: first or random.
	TieBreakPolicy string `koanf:"tie_break_policy" validate:"oneof=first random"`

	// TieBreakSeed seeds the random policy. Zero seeds from the clock.
	TieBreakSeed int64 `koanf:"tie_break_seed"`

	// ConsensusFallback scores against the consensus when no table is available.
	ConsensusFallback bool `koanf:"consensus_fallback"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		Title:                  "Tipset",
		PredictionsPath:        "predictions.md",
		StandingsTimeout:       10 * time.Second,
		StandingsRatePerMinute: 6,
		StandingsCacheTTL:      time.Minute,
		RefreshInterval:        5 * time.Minute,
		JobTimeout:             30 * time.Second,
		QueueSize:              4,
		DedupeSize:             1024,
		MaxLeaderboardLimit:    100,
		TopN:                   5,
		TieBreakPolicy:         "first",
	}
}
