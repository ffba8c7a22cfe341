package refill

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner triggers sweeps on an interval and serialises on-demand runs, so at
// most one sweep runs per process.
type Runner struct {
	sweeper  *Sweeper
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewRunner creates a Runner. A non-positive interval disables the ticker.
func NewRunner(sweeper *Sweeper, interval time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// RunNow runs a sweep unless one is already in progress, in which case it
// returns ErrSweepInProgress.
func (r *Runner) RunNow(ctx context.Context) (*Report, error) {
	if !r.mu.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer r.mu.Unlock()
	return r.sweeper.Sweep(ctx)
}

// Start launches the ticker loop. Call Stop to end it.
func (r *Runner) Start() {
	if r.interval <= 0 {
		return
	}
	r.started = true
	go r.loop()
	r.logger.Info("refill runner started", zap.Duration("interval", r.interval))
}

// Stop ends the ticker loop and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		if r.started {
			<-r.done
			r.logger.Info("refill runner stopped")
		}
	})
}

func (r *Runner) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	report, err := r.RunNow(ctx)
	switch {
	case errors.Is(err, ErrSweepInProgress):
		r.logger.Debug("scheduled refill skipped, sweep in progress")
	case err != nil:
		r.logger.Error("scheduled refill sweep failed", zap.Error(err))
	default:
		r.logger.Debug("scheduled refill sweep finished", zap.Int("results", len(report.Results)))
	}
}
