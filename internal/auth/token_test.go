package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/amendment-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	collaborator := &domain.Collaborator{
		ID:       "c-1",
		Username: "maria",
		Role:     domain.RoleAdmin,
	}

	token, expiresAt, err := tm.GenerateToken(collaborator)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "c-1", claims.CollaboratorID)
	assert.Equal(t, "maria", claims.Username)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	token, _, err := tm.GenerateToken(&domain.Collaborator{ID: "c-1", Username: "maria"})
	require.NoError(t, err)

	_, err = NewTokenManager("other-secret", 30).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := &TokenManager{secret: []byte("secret"), ttl: -1}
	token, _, err := tm.GenerateToken(&domain.Collaborator{ID: "c-1", Username: "maria"})
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct-horse"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
