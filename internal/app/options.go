package service

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/okian/tipset/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPredictionSource sets where predictions come from.
func WithPredictionSource(src PredictionSource) Option {
	return func(s *Service) {
		s.predictions = src
	}
}

// WithStandingsSource sets where the live table comes from.
func WithStandingsSource(src StandingsSource) Option {
	return func(s *Service) {
		s.standings = src
	}
}

// WithRefreshInterval sets the periodic refresh. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithQueueSize sets the maximum number of pending refresh jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobTimeout bounds one refresh.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithTieBreakPolicy selects "first" or "random".
func WithTieBreakPolicy(policy string) Option {
	return func(s *Service) {
		if policy != "" {
			s.tiePolicy = policy
		}
	}
}

// WithTieBreakSeed seeds the random tie policy. Zero seeds from the clock.
func WithTieBreakSeed(seed int64) Option {
	return func(s *Service) {
		s.tieSeed = seed
	}
}

// WithConsensusFallback scores against the consensus when no standings
// are available.
func WithConsensusFallback(enabled bool) Option {
	return func(s *Service) {
		s.consensusFallback = enabled
	}
}

// WithTopN sets how many consensus leaders the optimism insights use.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithMaxLeaderboardLimit caps leaderboard reads.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithDedupeSize sets how many refresh idempotency keys are remembered.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithTracer sets the tracer used for report computations.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}
