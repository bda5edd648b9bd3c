package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZobairQ/taskflow-sub002/internal/auth"
)

var (
	// ErrEmailTaken is returned when registering an address that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound is returned for unknown or expired refresh tokens.
	ErrSessionNotFound = errors.New("session not found")
)

// User is an account record. OAuth identifiers are optional links to
// external identities.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	GoogleID     *string
	GitHubID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken is a stored session record. Only the hash of the opaque
// token is persisted.
type RefreshToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository captures account persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID string) (*User, error)
}

// TokenRepository stores refresh-token sessions.
type TokenRepository interface {
	Store(ctx context.Context, token RefreshToken) error
	Find(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// UserService handles registration and session lifecycle.
type UserService struct {
	users      UserRepository
	tokens     TokenRepository
	bcryptCost int
	refreshTTL time.Duration
	now        func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users UserRepository, tokens TokenRepository, bcryptCost int, refreshTTL time.Duration) *UserService {
	return &UserService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput captures the signup payload.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	GoogleID    *string
	GitHubID    *string
}

// Register creates an account and opens a session.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if existing, err := s.users.GetByEmail(ctx, email); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		GoogleID:     input.GoogleID,
		GitHubID:     input.GitHubID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	refresh, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, refresh, nil
}

// Login verifies credentials and opens a session.
func (s *UserService) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	refresh, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, refresh, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// one issued, so a stolen token can be used at most once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*User, string, error) {
	record, err := s.tokens.Find(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		return nil, "", err
	}
	if record == nil || record.ExpiresAt.Before(s.now()) {
		return nil, "", ErrSessionNotFound
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrSessionNotFound
	}

	if err := s.tokens.Revoke(ctx, record.TokenHash); err != nil {
		return nil, "", err
	}
	refresh, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, refresh, nil
}

// Logout revokes the presented refresh token. Unknown tokens are a no-op.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, auth.HashRefreshToken(refreshToken))
}

// GetUser fetches an account by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

func (s *UserService) openSession(ctx context.Context, userID string) (string, error) {
	token, tokenHash, err := auth.NewRefreshToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	record := RefreshToken{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Store(ctx, record); err != nil {
		return "", err
	}
	return token, nil
}
