package app

import (
	"context"
	"time"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
)

// Recomputer is the part of CaseService the scheduler drives.
type Recomputer interface {
	Recompute(ctx context.Context, trigger string) (*casetracking.RecomputeReport, error)
}

// Locker is a non-blocking lease. *redis.Mutex satisfies it.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Scheduler recomputes every case on a fixed interval and on request. With a
// Locker, only the replica holding the lease runs a given tick.
type Scheduler struct {
	cases    Recomputer
	lock     Locker
	interval time.Duration
	logger   logging.Logger

	requests  chan string
	intervals chan time.Duration
}

// NewScheduler builds a Scheduler. lock may be nil for a single replica.
func NewScheduler(cases Recomputer, lock Locker, interval time.Duration, logger logging.Logger) *Scheduler {
	return &Scheduler{
		cases:     cases,
		lock:      lock,
		interval:  interval,
		logger:    logger.Named("scheduler"),
		requests:  make(chan string, 1),
		intervals: make(chan time.Duration, 1),
	}
}

// Request asks for an out-of-cycle run. Requests arriving while one is
// already queued are coalesced into it.
func (s *Scheduler) Request(trigger string) {
	select {
	case s.requests <- trigger:
	default:
		s.logger.Debug("Recompute already queued", logging.String("trigger", trigger))
	}
}

// SetInterval changes the tick interval of a running scheduler.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-s.intervals:
	default:
	}
	s.intervals <- d
}

// HandleRecomputeRequest queues a run for a recompute-requested event.
func (s *Scheduler) HandleRecomputeRequest(_ context.Context, req kafka.RecomputeRequestedPayload) error {
	s.logger.Info("Recompute requested",
		logging.String("requested_by", req.RequestedBy),
		logging.String("reason", req.Reason))
	s.Request(casetracking.TriggerEvent)
	return nil
}

// Run recomputes once immediately and then on every tick or request until ctx
// ends. Failed runs are logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Scheduler started", logging.Duration("interval", s.interval))
	_, _ = s.RunOnce(ctx, casetracking.TriggerSchedule)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return nil
		case d := <-s.intervals:
			s.interval = d
			ticker.Reset(d)
			s.logger.Info("Recompute interval changed", logging.Duration("interval", d))
		case <-ticker.C:
			_, _ = s.RunOnce(ctx, casetracking.TriggerSchedule)
		case trigger := <-s.requests:
			_, _ = s.RunOnce(ctx, trigger)
		}
	}
}

// RunOnce takes the lease and recomputes. ran is false when another replica
// holds the lease.
func (s *Scheduler) RunOnce(ctx context.Context, trigger string) (ran bool, err error) {
	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx)
		if err != nil {
			s.logger.Error("Failed to acquire recompute lock", logging.Err(err))
			return false, err
		}
		if !ok {
			s.logger.Debug("Recompute skipped, lock held elsewhere", logging.String("trigger", trigger))
			return false, nil
		}
		defer func() {
			if uerr := s.lock.Unlock(context.WithoutCancel(ctx)); uerr != nil {
				s.logger.Warn("Failed to release recompute lock", logging.Err(uerr))
			}
		}()
	}

	report, err := s.cases.Recompute(ctx, trigger)
	if err != nil {
		fields := []logging.Field{logging.String("trigger", trigger), logging.Err(err)}
		if report != nil {
			fields = append(fields, logging.Int("processed", report.Processed))
		}
		s.logger.Error("Recompute failed", fields...)
		return true, err
	}
	return true, nil
}

//Personal.AI order the ending
