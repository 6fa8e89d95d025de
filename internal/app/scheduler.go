package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/middleware"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

// Service is a lifecycle-managed background component.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Scheduler runs periodic housekeeping on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	log  *logging.Logger
}

func NewScheduler(log *logging.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLogger{log}))),
		log:  log,
	}
}

func (s *Scheduler) Name() string { return "scheduler" }

// Add registers job under spec, e.g. "@every 1m".
func (s *Scheduler) Add(spec, name string, job func()) error {
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.WithField("job", name).WithField("spec", spec).Debug("job scheduled")
	return nil
}

func (s *Scheduler) Start(context.Context) error {
	s.cron.Start()
	return nil
}

// Stop waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cleanupLimiterJob evicts idle rate limit buckets.
func cleanupLimiterJob(rl *middleware.RateLimiter, maxIdle time.Duration, log *logging.Logger) func() {
	return func() {
		if n := rl.Cleanup(maxIdle); n > 0 {
			log.WithField("removed", n).Debug("rate limiter buckets evicted")
		}
	}
}

// pingBackendJob pings the storage backend so outages show up in the logs before users
// report them.
func pingBackendJob(p storage.Pinger, name string, log *logging.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			log.WithError(err).WithField("backend", name).Warn("storage backend unreachable")
		}
	}
}

// cronLogger adapts the logger to cron.Logger.
type cronLogger struct{ log *logging.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithField("detail", fmt.Sprint(keysAndValues...)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithField("detail", fmt.Sprint(keysAndValues...)).Error(msg)
}
