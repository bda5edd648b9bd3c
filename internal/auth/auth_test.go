package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "taskflow.identity"}
	now := time.Now().UTC()

	token, err := Issue(cfg, "user-1", DefaultScopes, 15*time.Minute, now)
	require.NoError(t, err)

	claims, err := Parse(token, cfg)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.True(t, claims.HasScope(ScopeTaskflowRead))
	require.True(t, claims.HasScope(ScopeTaskflowWrite))
	require.False(t, claims.HasScope("taskflow:admin"))
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "taskflow.identity"}
	token, err := Issue(cfg, "user-1", DefaultScopes, 15*time.Minute, time.Now().UTC())
	require.NoError(t, err)

	_, err = Parse(token, Config{Secret: "other-secret", Issuer: "taskflow.identity"})
	require.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := Issue(Config{Secret: "s", Issuer: "someone-else"}, "user-1", DefaultScopes, 15*time.Minute, time.Now().UTC())
	require.NoError(t, err)

	_, err = Parse(token, Config{Secret: "s", Issuer: "taskflow.identity"})
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := Config{Secret: "s", Issuer: "taskflow.identity"}
	issued := time.Now().UTC().Add(-time.Hour)
	token, err := Issue(cfg, "user-1", DefaultScopes, time.Minute, issued)
	require.NoError(t, err)

	_, err = Parse(token, cfg)
	require.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", 4)
	require.NoError(t, err)
	require.True(t, CheckPassword(hash, "correct horse battery staple"))
	require.False(t, CheckPassword(hash, "wrong"))
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	token, tokenHash, err := NewRefreshToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, tokenHash, HashRefreshToken(token))
	require.NotEqual(t, token, tokenHash)
}
