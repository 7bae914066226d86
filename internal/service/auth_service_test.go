package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/amendment-service/internal/auth"
	"github.com/spec-kit/amendment-service/internal/domain"
)

func newAuthEnv() (*fakeStore, *AuthService) {
	store := newFakeStore()
	svc := NewAuthService(AuthDependencies{
		Store:      store,
		Tokens:     auth.NewTokenManager("test-secret", 60),
		BcryptCost: bcrypt.MinCost,
		Logger:     zap.NewNop(),
	})
	return store, svc
}

func TestRegisterAndLogin(t *testing.T) {
	store, svc := newAuthEnv()
	ctx := context.Background()

	email := "maria@example.com"
	collaborator, err := svc.Register(ctx, RegisterInput{
		Name:     "Maria Ionescu",
		Username: "maria",
		Email:    &email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, collaborator.Role)
	assert.True(t, collaborator.Active)
	require.NotNil(t, collaborator.PasswordHash)
	assert.NotEqual(t, "correct-horse", *collaborator.PasswordHash)

	result, err := svc.Login(ctx, "maria", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, collaborator.ID, result.Collaborator.ID)
	require.NotNil(t, store.db.collaborators[collaborator.ID].LastLogin)

	claims, err := auth.NewTokenManager("test-secret", 60).ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, collaborator.ID, claims.CollaboratorID)
	assert.Equal(t, "maria", claims.Username)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	_, svc := newAuthEnv()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Name: "Maria", Username: "maria", Password: "correct-horse",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "maria", "wrong-password")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	_, err = svc.Login(ctx, "no-such-user", "whatever")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}

func TestLoginRefusedAfterDeactivation(t *testing.T) {
	_, svc := newAuthEnv()
	ctx := context.Background()

	collaborator, err := svc.Register(ctx, RegisterInput{
		Name: "Maria", Username: "maria", Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, collaborator.ID))

	_, err = svc.Login(ctx, "maria", "correct-horse")
	assert.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	active, err := svc.ListCollaborators(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRegisterValidation(t *testing.T) {
	_, svc := newAuthEnv()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Maria", Username: " ", Password: "correct-horse"})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.Register(ctx, RegisterInput{Name: "Maria", Username: "maria", Password: "short"})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.Register(ctx, RegisterInput{Name: "Maria", Username: "maria", Password: "correct-horse"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Username: "maria", Password: "correct-horse"})
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestDeactivatedCollaboratorSkippedByMentionResolution(t *testing.T) {
	store, svc := newAuthEnv()
	ctx := context.Background()

	collaborator, err := svc.Register(ctx, RegisterInput{
		Name: "Jon", Username: "jon", Password: "correct-horse",
	})
	require.NoError(t, err)

	resolved, err := store.View().Collaborators.ResolveMention(ctx, "jon")
	require.NoError(t, err)
	assert.Equal(t, collaborator.ID, resolved.ID)

	require.NoError(t, svc.Deactivate(ctx, collaborator.ID))
	_, err = store.View().Collaborators.ResolveMention(ctx, "jon")
	assert.Error(t, err)
}
