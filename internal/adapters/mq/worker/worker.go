// Package worker runs refresh jobs: load predictions, fetch standings,
// compute the report and publish it.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/tipset/internal/adapters/mq/queue"
	"github.com/okian/tipset/internal/domain/model"
	"github.com/okian/tipset/internal/domain/report"
	"github.com/okian/tipset/pkg/logger"
	"github.com/okian/tipset/pkg/metrics"
)

const defaultJobTimeout = 30 * time.Second

// Predictions loads the current prediction set.
type Predictions interface {
	Load(ctx context.Context) (model.PredictionSet, error)
}

// Standings fetches the live table.
type Standings interface {
	Fetch(ctx context.Context) ([]model.Standing, error)
}

// Computer turns inputs into a report.
type Computer interface {
	Compute(ctx context.Context, in report.Input) *report.Report
}

// Publisher makes a report visible to readers and returns its version.
type Publisher interface {
	Publish(ctx context.Context, r *report.Report) uint64
}

// Queue defines how the worker receives jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes refresh jobs one at a time, so published versions never
// go backwards.
type Worker struct {
	queue       Queue
	predictions Predictions
	standings   Standings
	computer    Computer
	publisher   Publisher

	name       string
	jobTimeout time.Duration
	onDone     func(queue.Job, uint64, error)

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a refresh worker.
func New(q Queue, p Predictions, s Standings, c Computer, pub Publisher, opts ...Option) *Worker {
	w := &Worker{
		queue:       q,
		predictions: p,
		standings:   s,
		computer:    c,
		publisher:   pub,
		name:        "refresh",
		jobTimeout:  defaultJobTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run drains the queue until ctx is cancelled, Shutdown is called, or the
// queue is closed.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			version, err := w.Process(ctx, job)
			if err != nil {
				w.logger.Error(ctx, "refresh failed",
					logger.String("job_id", job.ID), logger.Error(err))
			}
			if w.onDone != nil {
				w.onDone(job, version, err)
			}
		}
	}
}

// Shutdown stops the worker and waits for the current job to finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Process runs one job synchronously and returns the published version.
// A standings failure degrades to a consensus-only report; a predictions
// failure keeps the previous report.
func (w *Worker) Process(ctx context.Context, job queue.Job) (uint64, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	set, err := w.predictions.Load(ctx)
	if err != nil {
		metrics.RecordJobError()
		metrics.RecordErrorByComponent("worker", "predictions")
		return 0, fmt.Errorf("job %s: load predictions: %w", job.ID, err)
	}

	table, err := w.standings.Fetch(ctx)
	if err != nil {
		w.logger.Warn(ctx, "standings unavailable, continuing without reference",
			logger.String("job_id", job.ID), logger.Error(err))
		table = nil
	}

	r := w.computer.Compute(ctx, report.Input{Predictions: set, Standings: table})
	version := w.publisher.Publish(ctx, r)

	latency := time.Since(start)
	metrics.RecordJobProcessed(float64(latency.Milliseconds()))
	w.logger.Info(ctx, "report refreshed",
		logger.String("job_id", job.ID),
		logger.String("reason", job.Reason),
		logger.String("mode", string(r.Mode)),
		logger.Int("participants", len(r.Predictions)),
		logger.Int("teams", len(r.Reference)),
		logger.Any("version", version),
		logger.Duration("took", latency))
	return version, nil
}
