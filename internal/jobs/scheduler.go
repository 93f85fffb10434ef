package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"gallery/internal/cache"
)

const sweepLockKey = "jobs:session-sweep"

// SessionSweeper clears refresh sessions that expired before now.
type SessionSweeper interface {
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron     *cron.Cron
	sessions SessionSweeper
	locker   *cache.Locker
	schedule string
	lockTTL  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewScheduler builds the housekeeping scheduler. Without a locker every
// replica sweeps; the sweep is idempotent so that is only wasted work.
func NewScheduler(sessions SessionSweeper, locker *cache.Locker, schedule string, lockTTL time.Duration, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		sessions: sessions,
		locker:   locker,
		schedule: schedule,
		lockTTL:  lockTTL,
		now:      time.Now,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.sessions == nil || s.schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweepSessions); err != nil {
		return errors.Wrapf(err, "schedule session sweep %q", s.schedule)
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.RunSweep(ctx); err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
	}
}

// RunSweep performs one sweep. It reports false when another replica
// holds the lock.
func (s *Scheduler) RunSweep(ctx context.Context) (bool, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, sweepLockKey, s.lockTTL)
		if err != nil {
			return false, err
		}
		if release == nil {
			s.log.Debug().Msg("session sweep skipped, lock held elsewhere")
			return false, nil
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				s.log.Warn().Err(err).Msg("release sweep lock")
			}
		}()
	}

	cleared, err := s.sessions.Sweep(ctx, s.now())
	if err != nil {
		return true, errors.Wrap(err, "sweep sessions")
	}
	if cleared > 0 {
		s.log.Info().Int64("cleared", cleared).Msg("expired refresh sessions cleared")
	}
	return true, nil
}
