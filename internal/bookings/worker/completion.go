package worker

import (
	"context"
	"time"

	"innkeep/pkg/logger"
)

type dueCompleter interface {
	CompleteDue(ctx context.Context) (int, error)
}

// CompletionWorker moves confirmed bookings whose check-out has passed to completed.
type CompletionWorker struct {
	bookings  dueCompleter
	interval  time.Duration
	batchSize int
	log       *logger.Logger
}

func NewCompletionWorker(bookings dueCompleter, interval time.Duration, batchSize int, log *logger.Logger) *CompletionWorker {
	return &CompletionWorker{
		bookings:  bookings,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

func (w *CompletionWorker) Name() string {
	return "completion-sweep"
}

// Start sweeps once immediately, then on every tick, until ctx is done.
func (w *CompletionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Completion sweep started", "interval", w.interval)
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Completion sweep stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep drains full batches so a backlog is cleared within one tick.
func (w *CompletionWorker) sweep(ctx context.Context) {
	total := 0
	for ctx.Err() == nil {
		n, err := w.bookings.CompleteDue(ctx)
		total += n
		if err != nil {
			w.log.Error("Completion sweep failed", "completed", total, "error", err)
			return
		}
		if n < w.batchSize {
			break
		}
	}

	if total > 0 {
		w.log.Info("Completion sweep finished", "completed", total)
	}
}
