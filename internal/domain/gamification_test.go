package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseXP(t *testing.T) {
	cases := []struct {
		priority Priority
		want     int
	}{
		{PriorityLow, 10},
		{PriorityMedium, 20},
		{PriorityHigh, 35},
		{PriorityUrgent, 50},
		{Priority("unknown"), 10},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, BaseXP(tc.priority), "priority %s", tc.priority)
	}
}

func TestStreakMultiplier(t *testing.T) {
	require.Equal(t, 1.0, StreakMultiplier(0))
	require.Equal(t, 1.25, StreakMultiplier(5))
	require.Equal(t, 2.0, StreakMultiplier(20))
	// Contribution caps at 20 consecutive days.
	require.Equal(t, 2.0, StreakMultiplier(35))
	require.Equal(t, 1.0, StreakMultiplier(-3))
}

func TestLevelThresholds(t *testing.T) {
	require.Equal(t, 0, XPForLevel(1))
	require.Equal(t, 100, XPForLevel(2))
	require.Equal(t, 400, XPForLevel(3))
	require.Equal(t, 900, XPForLevel(4))

	require.Equal(t, 1, LevelForXP(0))
	require.Equal(t, 1, LevelForXP(99))
	require.Equal(t, 2, LevelForXP(100))
	require.Equal(t, 2, LevelForXP(399))
	require.Equal(t, 3, LevelForXP(400))
}

func TestPowerUpMultiplierStacks(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	powerUps := []PowerUp{
		{Kind: PowerUpDoubleXP, Multiplier: 2.0, ExpiresAt: now.Add(30 * time.Minute)},
		{Kind: PowerUpFocusBoost, Multiplier: 1.5, ExpiresAt: now.Add(2 * time.Hour)},
	}
	require.Equal(t, 3.0, PowerUpMultiplier(powerUps, now))

	// Expired entries contribute nothing.
	expired := []PowerUp{{Multiplier: 2.0, ExpiresAt: now.Add(-time.Minute)}}
	require.Equal(t, 1.0, PowerUpMultiplier(expired, now))
}

func TestApplyCompletionFirstEver(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	profile, awarded := ApplyCompletion(NewProfile("user-1", now), PriorityMedium, nil, now)

	// 20 base with a fresh one-day streak.
	require.Equal(t, 21, awarded)
	require.Equal(t, 21, profile.XP)
	require.Equal(t, 1, profile.CurrentStreak)
	require.Equal(t, 1, profile.LongestStreak)
	require.Equal(t, 1, profile.Level)
	require.Equal(t, DayUTC(now), *profile.LastCompletedOn)
}

func TestApplyCompletionExtendsStreak(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	yesterday := DayUTC(now.AddDate(0, 0, -1))
	profile := Profile{UserID: "user-1", XP: 50, Level: 1, CurrentStreak: 4, LongestStreak: 4, LastCompletedOn: &yesterday}

	updated, awarded := ApplyCompletion(profile, PriorityHigh, nil, now)

	// 35 * 1.25 = 43.75 rounds to 44.
	require.Equal(t, 44, awarded)
	require.Equal(t, 5, updated.CurrentStreak)
	require.Equal(t, 5, updated.LongestStreak)
}

func TestApplyCompletionSameDayKeepsStreak(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	today := DayUTC(now)
	profile := Profile{UserID: "user-1", CurrentStreak: 7, LongestStreak: 9, LastCompletedOn: &today, Level: 1}

	updated, _ := ApplyCompletion(profile, PriorityLow, nil, now)
	require.Equal(t, 7, updated.CurrentStreak)
	require.Equal(t, 9, updated.LongestStreak)
}

func TestApplyCompletionGapResetsStreak(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	lastWeek := DayUTC(now.AddDate(0, 0, -6))
	profile := Profile{UserID: "user-1", CurrentStreak: 12, LongestStreak: 12, LastCompletedOn: &lastWeek, Level: 1}

	updated, awarded := ApplyCompletion(profile, PriorityMedium, nil, now)
	require.Equal(t, 1, updated.CurrentStreak)
	require.Equal(t, 12, updated.LongestStreak)
	require.Equal(t, 21, awarded)
}

func TestApplyCompletionPowerUpsAffectAward(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	powerUps := []PowerUp{
		{Kind: PowerUpDoubleXP, Multiplier: 2.0, ExpiresAt: now.Add(time.Hour)},
		{Kind: PowerUpFocusBoost, Multiplier: 1.5, ExpiresAt: now.Add(time.Hour)},
	}

	_, awarded := ApplyCompletion(NewProfile("user-1", now), PriorityLow, powerUps, now)
	// 10 * 1.05 * 3.0 = 31.5 rounds to 32.
	require.Equal(t, 32, awarded)
}

func TestApplyCompletionLevelsUpAndNeverDrops(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	profile := Profile{UserID: "user-1", XP: 90, Level: 1}

	updated, _ := ApplyCompletion(profile, PriorityMedium, nil, now)
	require.GreaterOrEqual(t, updated.XP, 100)
	require.Equal(t, 2, updated.Level)

	// A profile holding a higher level than its XP implies keeps it.
	inflated := Profile{UserID: "user-1", XP: 10, Level: 5}
	kept, _ := ApplyCompletion(inflated, PriorityLow, nil, now)
	require.Equal(t, 5, kept.Level)
}

func TestApplyReopenFloorsAtZero(t *testing.T) {
	now := time.Now().UTC()
	profile := Profile{UserID: "user-1", XP: 15, Level: 1, CurrentStreak: 3}

	updated := ApplyReopen(profile, 40, now)
	require.Equal(t, 0, updated.XP)
	require.Equal(t, 3, updated.CurrentStreak)
	require.Equal(t, 1, updated.Level)
}

func TestStreakStale(t *testing.T) {
	now := time.Date(2026, time.March, 10, 0, 30, 0, 0, time.UTC)
	today := DayUTC(now)
	yesterday := today.AddDate(0, 0, -1)
	twoDaysAgo := today.AddDate(0, 0, -2)

	require.True(t, StreakStale(nil, now))
	require.False(t, StreakStale(&today, now))
	require.False(t, StreakStale(&yesterday, now))
	require.True(t, StreakStale(&twoDaysAgo, now))
}

func TestTemplateForDayIsDeterministic(t *testing.T) {
	day := time.Date(2026, time.March, 10, 17, 45, 0, 0, time.UTC)
	first := TemplateForDay(day)
	second := TemplateForDay(DayUTC(day))
	require.Equal(t, first.Code, second.Code)

	// Consecutive days walk the catalog.
	next := TemplateForDay(day.AddDate(0, 0, 1))
	require.NotEqual(t, first.Code, next.Code)
}
