package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Expirer closes practical schedules whose window has passed.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// ExpiryWorker periodically expires overdue practical exams so they stop
// counting toward examiner workloads.
type ExpiryWorker struct {
	schedules Expirer
	interval  time.Duration
	log       zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(schedules Expirer, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryWorker{
		schedules: schedules,
		interval:  interval,
		log:       log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start sweeps once immediately, then every interval until ctx is cancelled.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	n, err := w.schedules.ExpireOverdue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Expiry sweep failed")
		}
		return
	}
	if n > 0 {
		w.log.Info().Int64("expired", n).Msg("Expired overdue practical exams")
	}
}
