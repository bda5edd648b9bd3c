// Package scheduler runs the periodic maintenance jobs: nightly streak
// decay, daily challenge rotation, and expired power-up sweeps.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	"github.com/ZobairQ/taskflow-sub002/internal/observability"
)

// Scheduler wires the cron entries. All jobs run in UTC so day boundaries
// match the gamification math.
type Scheduler struct {
	cron      *cron.Cron
	profiles  domain.GamificationRepository
	challenge domain.ChallengeRepository
	logger    *slog.Logger
	timeout   time.Duration
}

// New constructs a Scheduler. Jobs are registered but not started. A nil
// logger falls back to slog.Default.
func New(profiles domain.GamificationRepository, challenge domain.ChallengeRepository, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		profiles:  profiles,
		challenge: challenge,
		logger:    logger,
		timeout:   time.Minute,
	}

	if _, err := s.cron.AddFunc("0 0 * * *", s.rotateChallenge); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc("5 0 * * *", s.decayStreaks); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc("0 * * * *", s.sweepPowerUps); err != nil {
		return nil, err
	}

	return s, nil
}

// Start launches the cron loop and immediately runs the challenge rotation
// once so a freshly deployed worker has today's challenge in place.
func (s *Scheduler) Start() {
	s.rotateChallenge()
	s.cron.Start()
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Scheduler) rotateChallenge() {
	ctx, cancel := s.jobContext()
	defer cancel()

	day := domain.DayUTC(time.Now())
	template := domain.TemplateForDay(day)
	challenge := domain.Challenge{
		ID:       uuid.NewString(),
		Day:      day,
		Code:     template.Code,
		Title:    template.Title,
		Target:   template.Target,
		RewardXP: template.RewardXP,
	}

	ensured, err := s.challenge.EnsureForDay(ctx, challenge)
	if err != nil {
		s.logger.Error("challenge rotation failed", "err", err)
		return
	}
	if ensured != nil {
		s.logger.Info("challenge rotated", "day", day.Format("2006-01-02"), "code", ensured.Code)
	}
}

func (s *Scheduler) decayStreaks() {
	ctx, cancel := s.jobContext()
	defer cancel()

	count, err := s.profiles.ResetStaleStreaks(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("streak decay failed", "err", err)
		return
	}
	observability.RecordStreaksReset(count)
	if count > 0 {
		s.logger.Info("stale streaks reset", "count", count)
	}
}

func (s *Scheduler) sweepPowerUps() {
	ctx, cancel := s.jobContext()
	defer cancel()

	count, err := s.profiles.DeleteExpiredPowerUps(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("power-up sweep failed", "err", err)
		return
	}
	if count > 0 {
		s.logger.Info("expired power-ups removed", "count", count)
	}
}
