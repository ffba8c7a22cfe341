package refill

import (
	"context"
	"testing"
	"time"

	"github.com/pixelmuse/server/internal/module/subscription"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type blockingSelection struct {
	subscription.Repository
	entered chan struct{}
	release chan struct{}
}

func (r *blockingSelection) ListDueAnnual(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	r.entered <- struct{}{}
	<-r.release
	return r.Repository.ListDueAnnual(ctx, now)
}

func TestRunner_RunNowRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	sel := &blockingSelection{entered: make(chan struct{}), release: make(chan struct{})}
	store := &hookStore{Store: f.store, subs: func(inner Store) subscription.Repository {
		sel.Repository = inner.Subscriptions()
		return sel
	}}
	runner := NewRunner(f.newSweeper(store, nil), 0, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := runner.RunNow(context.Background())
		done <- err
	}()
	<-sel.entered

	_, err := runner.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)

	close(sel.release)
	require.NoError(t, <-done)

	// The lock is released once the first sweep returns.
	go func() { <-sel.entered }()
	_, err = runner.RunNow(context.Background())
	assert.NoError(t, err)
}

func TestRunner_TicksUntilStopped(t *testing.T) {
	f := newFixture(t)
	sub := f.annual(t, f.now.Add(-time.Hour), 1)
	runner := NewRunner(f.sweeper, 10*time.Millisecond, zap.NewNop())

	runner.Start()
	assert.Eventually(t, func() bool {
		return promtestutil.ToFloat64(f.metrics.SweepRunsTotal.WithLabelValues("completed")) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	runner.Stop()
	runner.Stop()

	// Repeated ticks disburse once.
	assert.Equal(t, 0, f.reload(t, sub).RemainingRefills)
	assert.Equal(t, int64(1), f.entryCount(t))
}

func TestRunner_StopWithoutStart(t *testing.T) {
	runner := NewRunner(nil, time.Minute, nil)
	runner.Stop()
}
