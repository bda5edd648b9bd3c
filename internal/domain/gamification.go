package domain

import (
	"math"
	"time"
)

// Profile is the per-user gamification record. A user has exactly one row,
// created lazily on first completion.
type Profile struct {
	UserID          string
	XP              int
	Level           int
	CurrentStreak   int
	LongestStreak   int
	LastCompletedOn *time.Time
	UpdatedAt       time.Time
}

// PowerUpKind identifies a temporary XP multiplier.
type PowerUpKind string

const (
	PowerUpDoubleXP   PowerUpKind = "double_xp"
	PowerUpFocusBoost PowerUpKind = "focus_boost"
)

// PowerUp is an active multiplier applied to XP awards until it expires.
type PowerUp struct {
	ID          string
	UserID      string
	Kind        PowerUpKind
	Multiplier  float64
	ActivatedAt time.Time
	ExpiresAt   time.Time
}

// PowerUpSpec describes the catalog entry for an activatable power-up.
type PowerUpSpec struct {
	Kind       PowerUpKind
	Multiplier float64
	Duration   time.Duration
}

// PowerUpCatalog lists the activatable power-ups.
var PowerUpCatalog = map[PowerUpKind]PowerUpSpec{
	PowerUpDoubleXP:   {Kind: PowerUpDoubleXP, Multiplier: 2.0, Duration: time.Hour},
	PowerUpFocusBoost: {Kind: PowerUpFocusBoost, Multiplier: 1.5, Duration: 4 * time.Hour},
}

// streakCap bounds the streak contribution so the multiplier tops out at 2.0.
const streakCap = 20

// BaseXP returns the XP award for completing a task of the given priority.
func BaseXP(p Priority) int {
	switch p {
	case PriorityLow:
		return 10
	case PriorityMedium:
		return 20
	case PriorityHigh:
		return 35
	case PriorityUrgent:
		return 50
	}
	return 10
}

// StreakMultiplier scales awards by 5% per consecutive day, capped.
func StreakMultiplier(streak int) float64 {
	if streak < 0 {
		streak = 0
	}
	if streak > streakCap {
		streak = streakCap
	}
	return 1 + 0.05*float64(streak)
}

// PowerUpMultiplier stacks all unexpired power-ups multiplicatively.
func PowerUpMultiplier(powerUps []PowerUp, now time.Time) float64 {
	mult := 1.0
	for _, p := range powerUps {
		if p.ExpiresAt.After(now) {
			mult *= p.Multiplier
		}
	}
	return mult
}

// XPForLevel returns the cumulative XP threshold for reaching level n.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return 100 * (level - 1) * (level - 1)
}

// LevelForXP converts a cumulative XP total to a level.
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(xp)/100)) + 1
}

// DayUTC truncates t to its UTC calendar day.
func DayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// nextStreak computes the streak after a completion on day today.
func nextStreak(current int, lastCompletedOn *time.Time, today time.Time) int {
	if lastCompletedOn == nil {
		return 1
	}
	last := DayUTC(*lastCompletedOn)
	switch {
	case last.Equal(today):
		return current
	case today.Sub(last) == 24*time.Hour:
		return current + 1
	default:
		return 1
	}
}

// StreakStale reports whether a profile's streak should decay: no completion
// yesterday or today.
func StreakStale(lastCompletedOn *time.Time, now time.Time) bool {
	if lastCompletedOn == nil {
		return true
	}
	today := DayUTC(now)
	last := DayUTC(*lastCompletedOn)
	return today.Sub(last) > 24*time.Hour
}

// ApplyCompletion advances the profile for one task completion and returns
// the updated profile plus the XP awarded. Level never decreases.
func ApplyCompletion(p Profile, priority Priority, powerUps []PowerUp, now time.Time) (Profile, int) {
	today := DayUTC(now)

	streak := nextStreak(p.CurrentStreak, p.LastCompletedOn, today)
	award := float64(BaseXP(priority)) * StreakMultiplier(streak) * PowerUpMultiplier(powerUps, now)
	awarded := int(math.Round(award))

	p.XP += awarded
	p.CurrentStreak = streak
	if streak > p.LongestStreak {
		p.LongestStreak = streak
	}
	if level := LevelForXP(p.XP); level > p.Level {
		p.Level = level
	}
	if p.Level < 1 {
		p.Level = 1
	}
	p.LastCompletedOn = &today
	p.UpdatedAt = now

	return p, awarded
}

// ApplyReopen deducts the XP a completion originally awarded, floored at
// zero. Streak and level are left untouched.
func ApplyReopen(p Profile, awarded int, now time.Time) Profile {
	p.XP -= awarded
	if p.XP < 0 {
		p.XP = 0
	}
	p.UpdatedAt = now
	return p
}

// NewProfile returns the zero-state profile for a user.
func NewProfile(userID string, now time.Time) Profile {
	return Profile{UserID: userID, Level: 1, UpdatedAt: now}
}
