package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrPowerUpActive is returned when a power-up of the same kind is already running.
var ErrPowerUpActive = errors.New("power-up already active")

// ErrUnknownPowerUp is returned for kinds outside the catalog.
var ErrUnknownPowerUp = errors.New("unknown power-up kind")

// GamificationRepository captures profile and power-up persistence.
type GamificationRepository interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	ActivePowerUps(ctx context.Context, userID string, now time.Time) ([]PowerUp, error)
	ActivatePowerUp(ctx context.Context, powerUp PowerUp) error
	// ResetStaleStreaks zeroes current_streak for profiles whose last
	// completion is older than yesterday. Returns the number reset.
	ResetStaleStreaks(ctx context.Context, now time.Time) (int, error)
	// DeleteExpiredPowerUps sweeps rows past their expiry. Returns the number removed.
	DeleteExpiredPowerUps(ctx context.Context, now time.Time) (int, error)
}

// ProfileView is the profile enriched with derived progress numbers.
type ProfileView struct {
	Profile       Profile
	XPIntoLevel   int
	XPForNext     int
	ActivePowerUp []PowerUp
}

// GamificationService serves profile reads and power-up activation.
type GamificationService struct {
	repo GamificationRepository
	now  func() time.Time
}

// NewGamificationService constructs a GamificationService.
func NewGamificationService(repo GamificationRepository) *GamificationService {
	return &GamificationService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// GetProfile returns the caller's profile with level progress and active
// power-ups. Users without a row yet get the zero-state profile.
func (s *GamificationService) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	now := s.now()

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		zero := NewProfile(userID, now)
		profile = &zero
	}

	powerUps, err := s.repo.ActivePowerUps(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	floor := XPForLevel(profile.Level)
	ceil := XPForLevel(profile.Level + 1)
	return &ProfileView{
		Profile:       *profile,
		XPIntoLevel:   profile.XP - floor,
		XPForNext:     ceil - floor,
		ActivePowerUp: powerUps,
	}, nil
}

// ActivatePowerUp starts a power-up from the catalog. Only one instance of a
// kind may run at a time.
func (s *GamificationService) ActivatePowerUp(ctx context.Context, userID string, kind PowerUpKind) (*PowerUp, error) {
	spec, ok := PowerUpCatalog[kind]
	if !ok {
		return nil, ErrUnknownPowerUp
	}

	now := s.now()
	active, err := s.repo.ActivePowerUps(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	for _, p := range active {
		if p.Kind == kind {
			return nil, ErrPowerUpActive
		}
	}

	powerUp := PowerUp{
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        spec.Kind,
		Multiplier:  spec.Multiplier,
		ActivatedAt: now,
		ExpiresAt:   now.Add(spec.Duration),
	}
	if err := s.repo.ActivatePowerUp(ctx, powerUp); err != nil {
		return nil, err
	}
	return &powerUp, nil
}
