package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager("test-secret", 15*time.Minute, 72*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()

	token, err := m.GenerateAccessToken("member-123", "a@example.com", "member")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "member-123", claims.MemberID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "member", claims.Role)
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	m := testManager()

	token, err := m.GenerateRefreshToken("member-123")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "member-123", claims.MemberID)
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := testManager().GenerateAccessToken("member-123", "a@example.com", "member")
	require.NoError(t, err)

	other := NewManager("different-secret", 15*time.Minute, 72*time.Hour)
	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, 72*time.Hour)

	token, err := m.GenerateAccessToken("member-123", "a@example.com", "member")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}
