// Package service wires sources, the refresh worker and the snapshot store
// into the operations the HTTP API and binaries need.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/tipset/internal/adapters/mq/queue"
	"github.com/okian/tipset/internal/adapters/mq/worker"
	"github.com/okian/tipset/internal/adapters/repository"
	"github.com/okian/tipset/internal/domain/dedupe"
	"github.com/okian/tipset/internal/domain/insights"
	"github.com/okian/tipset/internal/domain/model"
	"github.com/okian/tipset/internal/domain/report"
	"github.com/okian/tipset/internal/domain/types"
	"github.com/okian/tipset/pkg/logger"
	"github.com/okian/tipset/pkg/metrics"
)

const tracerName = "github.com/okian/tipset/internal/app"

// Tie break policies.
const (
	TiePolicyFirst  = "first"
	TiePolicyRandom = "random"
)

// PredictionSource loads the current prediction set.
type PredictionSource interface {
	Load(ctx context.Context) (model.PredictionSet, error)
}

// StandingsSource fetches the live table.
type StandingsSource interface {
	Fetch(ctx context.Context) ([]model.Standing, error)
}

// Service implements the API dependencies for the tipset report.
type Service struct {
	mu sync.RWMutex

	// Core components
	predictions PredictionSource
	standings   StandingsSource
	store       *repository.SnapshotStore
	deduper     dedupe.Deduper
	queue       *queue.InMemoryQueue
	worker      *worker.Worker
	tracer      trace.Tracer

	// Configuration
	refreshInterval   time.Duration
	queueSize         int
	jobTimeout        time.Duration
	tiePolicy         string
	tieSeed           int64
	consensusFallback bool
	topN              int
	maxLimit          int
	dedupeSize        int

	// State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	// Last job outcome. Never take mu while holding doneMu.
	doneMu      sync.Mutex
	lastRefresh time.Time
	lastErr     error

	logger logger.Logger
}

// New constructs a Service. Sources must be supplied through options
// before Start.
func New(opts ...Option) *Service {
	s := &Service{
		refreshInterval: 5 * time.Minute,
		queueSize:       4,
		jobTimeout:      30 * time.Second,
		tiePolicy:       TiePolicyFirst,
		topN:            5,
		maxLimit:        1000,
		dedupeSize:      1024,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	s.store = repository.NewSnapshotStore(repository.WithMaxLimit(s.maxLimit))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start launches the refresh worker, queues the first refresh and, if
// configured, the periodic one. The worker outlives ctx; call Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.predictions == nil || s.standings == nil {
		return ErrMissingSource
	}
	if err := s.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting tipset service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.New(s.queue, s.predictions, s.standings, s, s.store,
		worker.WithLogger(s.logger),
		worker.WithJobTimeout(s.jobTimeout),
		worker.WithOnDone(s.jobDone),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker.Run(runCtx)
	}()

	s.queue.Enqueue(runCtx, queue.NewJob(queue.ReasonStartup))

	if s.refreshInterval > 0 {
		s.wg.Add(1)
		go s.schedule(runCtx, s.queue)
	}

	s.started = true
	s.logger.Info(ctx, "tipset service started",
		logger.Duration("refreshInterval", s.refreshInterval),
		logger.Int("queueSize", s.queueSize),
		logger.String("tiePolicy", s.tiePolicy),
		logger.Bool("consensusFallback", s.consensusFallback),
	)
	return nil
}

// Stop gracefully shuts down the worker and the scheduler.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping tipset service...")

	_ = s.queue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker did not stop in time", logger.Error(err))
	}
	cancel()
	s.cancel()
	s.wg.Wait()

	s.started = false
	s.logger.Info(ctx, "tipset service stopped")
}

func (s *Service) schedule(ctx context.Context, q *queue.InMemoryQueue) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !q.Enqueue(ctx, queue.NewJob(queue.ReasonSchedule)) {
				s.logger.Debug(ctx, "scheduled refresh skipped, queue full")
			}
		}
	}
}

func (s *Service) jobDone(_ queue.Job, _ uint64, err error) {
	s.doneMu.Lock()
	defer s.doneMu.Unlock()
	s.lastRefresh = time.Now()
	s.lastErr = err
}

// Compute builds one report. It is the worker's computer and is safe for
// concurrent use; each call gets its own tie breaker.
func (s *Service) Compute(ctx context.Context, in report.Input) *report.Report {
	_, span := s.tracer.Start(ctx, "report.compute", trace.WithAttributes(
		attribute.Int("tipset.participants", len(in.Predictions)),
		attribute.Int("tipset.standings", len(in.Standings)),
	))
	defer span.End()

	start := time.Now()
	engine := insights.NewEngine(
		insights.WithTieBreaker(s.tieBreaker()),
		insights.WithTopN(s.topN),
	)
	r := report.Compute(in,
		report.WithEngine(engine),
		report.WithConsensusFallback(s.consensusFallback),
	)
	latency := time.Since(start)

	span.SetAttributes(
		attribute.String("tipset.mode", string(r.Mode)),
		attribute.Bool("tipset.scored", r.Scored()),
		attribute.Int("tipset.issues", len(r.Issues)),
	)
	metrics.RecordReportComputed(string(r.Mode), float64(latency.Microseconds())/1000)
	metrics.UpdateReportSize(len(r.Predictions), len(r.Consensus))
	if !r.Scored() {
		span.AddEvent("scoring unavailable", trace.WithAttributes(
			attribute.String("reason", r.ScoringUnavailable)))
		metrics.RecordScoringUnavailable()
		s.logger.Warn(ctx, "scoring unavailable", logger.String("reason", r.ScoringUnavailable))
	}
	for _, issue := range r.Issues {
		metrics.RecordPredictionIssue(string(issue.Kind))
		s.logger.Debug(ctx, "prediction issue", logger.String("issue", issue.String()))
	}
	return r
}

// Validate checks the options Compute depends on.
func (s *Service) Validate() error {
	if s.tiePolicy != TiePolicyFirst && s.tiePolicy != TiePolicyRandom {
		return fmt.Errorf("%q: %w", s.tiePolicy, ErrUnknownTiePolicy)
	}
	return nil
}

func (s *Service) tieBreaker() insights.TieBreaker {
	if s.tiePolicy == TiePolicyRandom {
		return insights.NewRandomTieBreaker(s.tieSeed)
	}
	return insights.FirstTieBreaker{}
}

// Refresh queues a rebuild. A non-empty key makes the request idempotent:
// a repeated key returns ErrDuplicateRequest without queueing again.
func (s *Service) Refresh(ctx context.Context, reason, key string) (queue.Job, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return queue.Job{}, ErrNotStarted
	}

	if key != "" && s.deduper.SeenAndRecord(ctx, key) {
		return queue.Job{}, ErrDuplicateRequest
	}
	if reason == "" {
		reason = queue.ReasonManual
	}
	job := queue.NewJob(reason)
	if !q.Enqueue(ctx, job) {
		if key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return queue.Job{}, ErrBackpressure
	}
	s.logger.Debug(ctx, "refresh queued",
		logger.String("job_id", job.ID),
		logger.String("reason", job.Reason))
	return job, nil
}

// Report returns the latest published snapshot.
func (s *Service) Report(ctx context.Context) (*repository.Snapshot, error) {
	snap, err := s.store.Latest(ctx)
	if errors.Is(err, repository.ErrNoSnapshot) {
		return nil, ErrNotReady
	}
	return snap, err
}

// Leaderboard returns the first n leaderboard entries.
func (s *Service) Leaderboard(ctx context.Context, n int) (types.LeaderboardView, error) {
	if err := s.store.CheckLimit(n); err != nil {
		return types.LeaderboardView{}, err
	}
	snap, err := s.Report(ctx)
	if err != nil {
		return types.LeaderboardView{}, err
	}
	entries, err := snap.Top(n)
	if err != nil {
		return types.LeaderboardView{}, err
	}
	return types.LeaderboardView{
		Meta:    meta(snap),
		Total:   len(snap.Report.Leaderboard),
		Entries: entries,
	}, nil
}

// Participant returns one participant's prediction, score and issues.
// Entry is nil when the report was not scored.
func (s *Service) Participant(ctx context.Context, name string) (types.ParticipantView, error) {
	snap, err := s.Report(ctx)
	if err != nil {
		return types.ParticipantView{}, err
	}
	p, ok := snap.Report.Predictions.Find(name)
	if !ok {
		return types.ParticipantView{}, fmt.Errorf("%q: %w", name, repository.ErrNotFound)
	}

	view := types.ParticipantView{Meta: meta(snap), Prediction: p}
	if entry, err := snap.Rank(name); err == nil {
		view.Entry = &entry
	}
	for _, issue := range snap.Report.Issues {
		if issue.Participant == name {
			view.Issues = append(view.Issues, issue)
		}
	}
	return view, nil
}

// Consensus returns the consensus table.
func (s *Service) Consensus(ctx context.Context) (types.ConsensusView, error) {
	snap, err := s.Report(ctx)
	if err != nil {
		return types.ConsensusView{}, err
	}
	return types.ConsensusView{Meta: meta(snap), Entries: snap.Report.Consensus}, nil
}

// Insights returns the fun stats.
func (s *Service) Insights(ctx context.Context) (types.InsightsView, error) {
	snap, err := s.Report(ctx)
	if err != nil {
		return types.InsightsView{}, err
	}
	return types.InsightsView{Meta: meta(snap), FunStats: snap.Report.FunStats}, nil
}

func meta(snap *repository.Snapshot) types.Meta {
	return types.Meta{
		Version:     snap.Version,
		Mode:        string(snap.Report.Mode),
		GeneratedAt: snap.Report.GeneratedAt,
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"queueSize":       s.queueSize,
		"refreshInterval": s.refreshInterval.String(),
		"tiePolicy":       s.tiePolicy,
		"dedupeKeys":      s.deduper.Size(),
		"version":         s.store.Version(),
		"participants":    s.store.Count(ctx),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
	}

	s.doneMu.Lock()
	if !s.lastRefresh.IsZero() {
		stats["lastRefresh"] = s.lastRefresh.UTC().Format(time.RFC3339)
	}
	if s.lastErr != nil {
		stats["lastError"] = s.lastErr.Error()
	}
	s.doneMu.Unlock()

	if snap, err := s.store.Latest(ctx); err == nil {
		stats["mode"] = string(snap.Report.Mode)
		stats["items"] = len(snap.Report.Consensus)
	}
	return stats
}
