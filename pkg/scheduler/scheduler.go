// Package scheduler provides a generic periodic task with explicit start and
// stop, independent of any host scheduling primitive. Ticks never overlap:
// the tick function runs inline in the task loop and the next tick is only
// scheduled after it returns.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Task struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

func New(name string, interval time.Duration, fn func(ctx context.Context), logger *zap.SugaredLogger) *Task {
	return &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger,
	}
}

// Start launches the task loop. Calling Start on a running task is a no-op.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopChan != nil {
		return
	}
	t.stopChan = make(chan struct{})
	t.done = make(chan struct{})

	// The loop must outlive the caller: Start is typically invoked from a
	// request-scoped context that is cancelled as soon as the handler
	// returns. Values (trace metadata) are kept; only Stop ends the loop.
	go t.run(context.WithoutCancel(ctx), t.stopChan, t.done)
	t.logger.Debugw("task started", "task", t.name, "interval", t.interval)
}

func (t *Task) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			t.fn(ctx)
			if elapsed := time.Since(start); elapsed > t.interval {
				t.logger.Warnw("tick exceeded budget",
					"task", t.name,
					"elapsed", elapsed,
					"budget", t.interval,
				)
			}
		case <-stop:
			return
		}
	}
}

// Stop halts the loop and waits for any in-flight tick to finish, so no tick
// fires after Stop returns. Stopping an idle task is a no-op.
func (t *Task) Stop() {
	t.mu.Lock()
	stop, done := t.stopChan, t.done
	t.stopChan, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	t.logger.Debugw("task stopped", "task", t.name)
}

// Running reports whether the task loop is active.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopChan != nil
}
