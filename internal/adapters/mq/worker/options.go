package worker

import (
	"time"

	"github.com/okian/tipset/internal/adapters/mq/queue"
	"github.com/okian/tipset/pkg/logger"
)

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithJobTimeout bounds a single refresh.
func WithJobTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}

// WithOnDone registers a callback invoked after every job from Run.
func WithOnDone(fn func(job queue.Job, version uint64, err error)) Option {
	return func(w *Worker) {
		w.onDone = fn
	}
}
