package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stickerlandia/print-service/internal/outbox"
	"github.com/stickerlandia/print-service/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Level:       zerolog.ErrorLevel,
		Output:      io.Discard,
	})
}

type scriptedRunner struct {
	results []outbox.PassStats
	errs    []error
	calls   int
	cancel  context.CancelFunc
	after   int
}

func (r *scriptedRunner) RunOnce(ctx context.Context) (outbox.PassStats, error) {
	idx := r.calls
	r.calls++
	if r.cancel != nil && r.calls >= r.after {
		r.cancel()
	}
	var stats outbox.PassStats
	var err error
	if idx < len(r.results) {
		stats = r.results[idx]
	}
	if idx < len(r.errs) {
		err = r.errs[idx]
	}
	return stats, err
}

type stubPinger struct {
	failures int
	calls    int
}

func (p *stubPinger) Ping(ctx context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("not ready")
	}
	return nil
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &scriptedRunner{cancel: cancel, after: 3}

	svc := NewService(runner, testLogger(), time.Millisecond, 100, nil)
	err := svc.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, runner.calls, 3)
}

func TestRunContinuesImmediatelyOnFullBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &scriptedRunner{
		results: []outbox.PassStats{
			{Fetched: 2, Published: 2},
			{Fetched: 2, Published: 2},
			{Fetched: 0},
		},
		cancel: cancel,
		after:  3,
	}

	start := time.Now()
	svc := NewService(runner, testLogger(), 200*time.Millisecond, 2, nil)
	err := svc.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, runner.calls)
	// The two full batches skip the poll interval entirely.
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestRunKeepsGoingAfterPassError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &scriptedRunner{
		errs:   []error{errors.New("db down"), nil},
		cancel: cancel,
		after:  2,
	}

	svc := NewService(runner, testLogger(), time.Millisecond, 100, nil)
	err := svc.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, runner.calls)
}

func TestEnsureReadinessWaitsForDependencies(t *testing.T) {
	p := &stubPinger{failures: 2}
	svc := NewService(&scriptedRunner{}, testLogger(), time.Millisecond, 100, map[string]pinger{"database": p})

	err := svc.ensureReadiness(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, p.calls)
}

func TestEnsureReadinessHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &stubPinger{failures: 100}
	svc := NewService(&scriptedRunner{}, testLogger(), time.Millisecond, 100, map[string]pinger{"database": p})

	err := svc.ensureReadiness(ctx)

	require.ErrorIs(t, err, context.Canceled)
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	base := 500 * time.Millisecond

	d := nextBackoff(base, base)
	assert.Equal(t, time.Second, d)

	d = nextBackoff(d, base)
	assert.Equal(t, 2*time.Second, d)

	d = nextBackoff(20*time.Second, base)
	assert.Equal(t, maxBackoff, d)
}

func TestWithJitterStaysInWindow(t *testing.T) {
	svc := NewService(&scriptedRunner{}, testLogger(), time.Millisecond, 100, nil)
	base := time.Second
	for i := 0; i < 50; i++ {
		d := svc.withJitter(base)
		assert.GreaterOrEqual(t, d, base)
		assert.Less(t, d, base+jitterWindow)
	}
}
