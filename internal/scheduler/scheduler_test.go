package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZobairQ/taskflow-sub002/internal/domain"
)

func TestRotateChallengeEnsuresTodaysTemplate(t *testing.T) {
	challenges := &recordingChallengeRepo{}
	s, err := New(&recordingProfileRepo{}, challenges, discardLogger())
	require.NoError(t, err)

	s.rotateChallenge()

	require.Len(t, challenges.ensured, 1)
	got := challenges.ensured[0]

	today := domain.DayUTC(time.Now())
	want := domain.TemplateForDay(today)
	require.Equal(t, today, got.Day)
	require.Equal(t, want.Code, got.Code)
	require.Equal(t, want.Target, got.Target)
	require.Equal(t, want.RewardXP, got.RewardXP)
	require.NotEmpty(t, got.ID)
}

func TestRotateChallengeIsIdempotentPerDay(t *testing.T) {
	challenges := &recordingChallengeRepo{}
	s, err := New(&recordingProfileRepo{}, challenges, discardLogger())
	require.NoError(t, err)

	s.rotateChallenge()
	s.rotateChallenge()

	require.Len(t, challenges.ensured, 2)
	require.Equal(t, challenges.ensured[0].Code, challenges.ensured[1].Code)
	require.Equal(t, challenges.ensured[0].Day, challenges.ensured[1].Day)
}

func TestDecayStreaksPassesUTCNow(t *testing.T) {
	profiles := &recordingProfileRepo{resetCount: 3}
	s, err := New(profiles, &recordingChallengeRepo{}, discardLogger())
	require.NoError(t, err)

	s.decayStreaks()

	require.Len(t, profiles.resetCalls, 1)
	require.Equal(t, time.UTC, profiles.resetCalls[0].Location())
	require.WithinDuration(t, time.Now().UTC(), profiles.resetCalls[0], 5*time.Second)
}

func TestSweepPowerUps(t *testing.T) {
	profiles := &recordingProfileRepo{sweepCount: 2}
	s, err := New(profiles, &recordingChallengeRepo{}, discardLogger())
	require.NoError(t, err)

	s.sweepPowerUps()

	require.Len(t, profiles.sweepCalls, 1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingChallengeRepo struct {
	ensured []domain.Challenge
}

func (r *recordingChallengeRepo) EnsureForDay(_ context.Context, challenge domain.Challenge) (*domain.Challenge, error) {
	r.ensured = append(r.ensured, challenge)
	return &challenge, nil
}

func (r *recordingChallengeRepo) GetForDay(_ context.Context, _ time.Time) (*domain.Challenge, error) {
	return nil, nil
}

func (r *recordingChallengeRepo) GetProgress(_ context.Context, _, _ string) (*domain.ChallengeProgress, error) {
	return nil, nil
}

func (r *recordingChallengeRepo) Advance(_ context.Context, _ string, _ domain.Challenge, _ int, _ time.Time) (bool, error) {
	return false, nil
}

type recordingProfileRepo struct {
	resetCalls []time.Time
	sweepCalls []time.Time
	resetCount int
	sweepCount int
}

func (r *recordingProfileRepo) GetProfile(_ context.Context, _ string) (*domain.Profile, error) {
	return nil, nil
}

func (r *recordingProfileRepo) ActivePowerUps(_ context.Context, _ string, _ time.Time) ([]domain.PowerUp, error) {
	return nil, nil
}

func (r *recordingProfileRepo) ActivatePowerUp(_ context.Context, _ domain.PowerUp) error {
	return nil
}

func (r *recordingProfileRepo) ResetStaleStreaks(_ context.Context, now time.Time) (int, error) {
	r.resetCalls = append(r.resetCalls, now)
	return r.resetCount, nil
}

func (r *recordingProfileRepo) DeleteExpiredPowerUps(_ context.Context, now time.Time) (int, error) {
	r.sweepCalls = append(r.sweepCalls, now)
	return r.sweepCount, nil
}
