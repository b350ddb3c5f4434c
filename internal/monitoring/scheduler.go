// Package monitoring runs the background maintenance jobs.
package monitoring

import (
	"context"
	"time"

	"github.com/isdelr/resume-bot-be/internal/session"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	resetCodeSchedule = "@every 1m"
	sessionSchedule   = "@every 5m"
	jobTimeout        = 30 * time.Second
)

// ResetCodeSweeper clears one-time codes whose expiry has passed.
type ResetCodeSweeper interface {
	ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler periodically drops expired reset codes and idle sessions.
type Scheduler struct {
	codes       ResetCodeSweeper
	sessions    session.Store
	idleTimeout time.Duration
	cron        *cron.Cron
	now         func() time.Time
}

// NewScheduler creates a new scheduler instance. Sessions unused for longer
// than idleTimeout are removed.
func NewScheduler(codes ResetCodeSweeper, sessions session.Store, idleTimeout time.Duration) *Scheduler {
	return &Scheduler{
		codes:       codes,
		sessions:    sessions,
		idleTimeout: idleTimeout,
		cron:        cron.New(),
		now:         time.Now,
	}
}

// Start registers the jobs, runs each once and starts the cron loop.
func (s *Scheduler) Start() error {
	log.Info().Msg("Starting background scheduler...")
	if _, err := s.cron.AddFunc(resetCodeSchedule, s.runResetCodes); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(sessionSchedule, s.runSessions); err != nil {
		return err
	}

	// Run once immediately on start
	s.runResetCodes()
	s.runSessions()

	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

func (s *Scheduler) runResetCodes() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.SweepResetCodes(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to clear expired reset codes")
	}
}

func (s *Scheduler) runSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.SweepSessions(ctx); err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to sweep idle sessions")
	}
}

// SweepResetCodes clears expired reset codes and returns how many.
func (s *Scheduler) SweepResetCodes(ctx context.Context) (int64, error) {
	n, err := s.codes.ClearExpiredResetCodes(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("Scheduler: Cleared expired reset codes")
	}
	return n, nil
}

// SweepSessions removes idle sessions and returns how many.
func (s *Scheduler) SweepSessions(ctx context.Context) (int, error) {
	n, err := s.sessions.Sweep(ctx, s.now().UTC().Add(-s.idleTimeout))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("Scheduler: Removed idle sessions")
	}
	return n, nil
}
