// Package report runs the full pipeline: predictions and standings in,
// consensus, leaderboard and fun stats out.
package report

import (
	"errors"
	"time"

	"github.com/okian/tipset/internal/domain/consensus"
	"github.com/okian/tipset/internal/domain/insights"
	"github.com/okian/tipset/internal/domain/leaderboard"
	"github.com/okian/tipset/internal/domain/model"
	"github.com/okian/tipset/internal/domain/scoring"
)

// Mode says what the leaderboard was scored against.
type Mode string

// Modes.
const (
	ModeLive               Mode = "live"
	ModeConsensusOnly      Mode = "consensus_only"
	ModeConsensusReference Mode = "consensus_reference"
)

// Input is everything one computation needs.
type Input struct {
	Predictions model.PredictionSet
	Standings   []model.Standing
	// ExpectedItems is the list length each prediction should have. Zero
	// means the length of the reference order, if any.
	ExpectedItems int
}

// Report is the immutable result of one computation.
type Report struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Mode        Mode                    `json:"mode"`
	Predictions model.PredictionSet     `json:"predictions"`
	Standings   []model.Standing        `json:"standings"`
	Reference   []string                `json:"reference"`
	Consensus   []consensus.Entry       `json:"consensus"`
	Leaderboard leaderboard.Leaderboard `json:"leaderboard"`
	FunStats    insights.FunStats       `json:"fun_stats"`
	Issues      []model.Issue           `json:"issues,omitempty"`
	// ScoringUnavailable holds the reason no leaderboard was built.
	ScoringUnavailable string `json:"scoring_unavailable,omitempty"`

	model consensus.Model
}

// ConsensusModel returns the aggregated consensus with lookup helpers.
func (r *Report) ConsensusModel() consensus.Model { return r.model }

// Scored reports whether a leaderboard was produced.
func (r *Report) Scored() bool { return r.ScoringUnavailable == "" }

// Option configures Compute.
type Option func(*options)

type options struct {
	engine           *insights.Engine
	now              func() time.Time
	consensusAsFinal bool
}

// WithEngine sets the insight engine, and through it the tie policy.
func WithEngine(e *insights.Engine) Option {
	return func(o *options) {
		if e != nil {
			o.engine = e
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithConsensusFallback scores predictions against the consensus order when
// no standings are available.
func WithConsensusFallback(enabled bool) Option {
	return func(o *options) {
		o.consensusAsFinal = enabled
	}
}

// Compute builds a report. It never fails: malformed input becomes Issues
// and a missing or degenerate reference becomes ScoringUnavailable.
func Compute(in Input, opts ...Option) *Report {
	o := options{
		engine: insights.NewEngine(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	set, issues := model.NormalizeSet(in.Predictions)
	cons := consensus.Aggregate(set)

	r := &Report{
		GeneratedAt: o.now().UTC(),
		Mode:        ModeLive,
		Predictions: set,
		Standings:   in.Standings,
		Reference:   model.ReferenceOrder(in.Standings),
		Consensus:   cons.Entries(),
		model:       cons,
	}

	if len(r.Reference) == 0 && o.consensusAsFinal && cons.Len() > 0 {
		r.Mode = ModeConsensusReference
		r.Reference = cons.Order()
		r.Standings = model.StandingsFromOrder(r.Reference)
	}

	expected := in.ExpectedItems
	if expected == 0 {
		expected = len(r.Reference)
	}
	known := r.Reference
	if r.Mode == ModeConsensusReference {
		known = nil
	}
	issues = append(issues, model.Validate(set, expected, known)...)
	r.Issues = issues

	records, err := scoring.Score(r.Reference, set)
	switch {
	case err == nil:
		r.Leaderboard = leaderboard.Build(records)
	case errors.Is(err, scoring.ErrEmptyReference):
		r.Mode = ModeConsensusOnly
		r.ScoringUnavailable = err.Error()
	default:
		r.ScoringUnavailable = err.Error()
	}

	r.FunStats = o.engine.Compute(set, cons)
	return r
}
