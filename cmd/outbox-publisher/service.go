package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/stickerlandia/print-service/internal/outbox"
	"github.com/stickerlandia/print-service/pkg/logger"
)

const (
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

type passRunner interface {
	RunOnce(ctx context.Context) (outbox.PassStats, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Service drives the outbox processor on a poll loop. A pass that drained a
// full batch is followed immediately by another pass; an idle or failing pass
// backs off with jitter so restarted replicas do not poll in lockstep.
type Service struct {
	runner       passRunner
	logg         *logger.Logger
	pollInterval time.Duration
	batchSize    int
	deps         map[string]pinger
	rng          *rand.Rand
}

func NewService(runner passRunner, logg *logger.Logger, pollInterval time.Duration, batchSize int, deps map[string]pinger) *Service {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		runner:       runner,
		logg:         logg,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		deps:         deps,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ensureReadiness pings each dependency until all respond or the context ends.
func (s *Service) ensureReadiness(ctx context.Context) error {
	delay := s.pollInterval
	for {
		ready := true
		for name, dep := range s.deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "dependency", name), "dependency not ready")
				ready = false
				break
			}
		}
		if ready {
			return nil
		}
		if err := s.sleep(ctx, s.withJitter(delay)); err != nil {
			return err
		}
		delay = nextBackoff(delay, s.pollInterval)
	}
}

// Run polls until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}
	s.logg.Info(ctx, "outbox publisher started")

	delay := s.pollInterval
	for {
		stats, err := s.runner.RunOnce(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			delay = nextBackoff(delay, s.pollInterval)
		case stats.Fetched >= s.batchSize:
			// More rows are likely waiting; go straight back in.
			delay = s.pollInterval
			continue
		default:
			delay = s.pollInterval
		}

		if err := s.sleep(ctx, s.withJitter(delay)); err != nil {
			return err
		}
	}
}

func nextBackoff(current, base time.Duration) time.Duration {
	next := current * 2
	if next < base {
		next = base
	}
	if next > maxBackoff {
		next = maxBackoff
	}
	return next
}

func (s *Service) withJitter(d time.Duration) time.Duration {
	if jitterWindow <= 0 {
		return d
	}
	return d + time.Duration(s.rng.Int63n(int64(jitterWindow)))
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
