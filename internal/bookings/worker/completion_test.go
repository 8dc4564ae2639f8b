package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"innkeep/pkg/logger"
)

type dueFunc func(ctx context.Context) (int, error)

func (f dueFunc) CompleteDue(ctx context.Context) (int, error) { return f(ctx) }

func TestSweep_DrainsFullBatches(t *testing.T) {
	results := []int{10, 10, 3}
	calls := 0
	w := NewCompletionWorker(dueFunc(func(ctx context.Context) (int, error) {
		n := results[calls]
		calls++
		return n, nil
	}), time.Hour, 10, logger.Discard())

	w.sweep(context.Background())

	if calls != 3 {
		t.Errorf("expected 3 batches, got %d", calls)
	}
}

func TestSweep_StopsOnError(t *testing.T) {
	calls := 0
	w := NewCompletionWorker(dueFunc(func(ctx context.Context) (int, error) {
		calls++
		return 10, errors.New("store down")
	}), time.Hour, 10, logger.Discard())

	w.sweep(context.Background())

	if calls != 1 {
		t.Errorf("expected sweep to stop after error, got %d calls", calls)
	}
}

func TestStart_RunsOnTickAndStops(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	w := NewCompletionWorker(dueFunc(func(ctx context.Context) (int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return 0, nil
	}), 5*time.Millisecond, 10, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls < 2 {
		t.Errorf("expected initial sweep plus ticks, got %d", calls)
	}
}
