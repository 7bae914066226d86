package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/amendment-service/internal/auth"
	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/repository"
	apperrors "github.com/spec-kit/amendment-service/pkg/util"
)

// AuthService handles collaborator login and account management.
type AuthService struct {
	store      repository.TxManager
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	Store      repository.TxManager
	Tokens     *auth.TokenManager
	BcryptCost int
	Logger     *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		bcryptCost: deps.BcryptCost,
		logger:     deps.Logger,
	}
}

// LoginResult carries the issued token and its subject.
type LoginResult struct {
	Token        string
	ExpiresAt    time.Time
	Collaborator *domain.Collaborator
}

// Login verifies credentials and issues a JWT. Failures are reported
// uniformly so callers cannot probe for valid usernames.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	invalid := apperrors.NewUnauthorized("invalid credentials")

	collaborator, err := s.store.View().Collaborators.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperrors.MapError(err)
	}
	if !collaborator.Active || collaborator.PasswordHash == nil {
		return nil, invalid
	}
	if err := auth.ComparePassword(*collaborator.PasswordHash, password); err != nil {
		return nil, invalid
	}

	token, expiresAt, err := s.tokens.GenerateToken(collaborator)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := time.Now().UTC()
	collaborator.LastLogin = &now
	if err := s.store.View().Collaborators.Update(ctx, collaborator); err != nil {
		s.logger.Warn("last login update failed",
			zap.String("collaborator_id", collaborator.ID), zap.Error(err))
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Collaborator: collaborator}, nil
}

// RegisterInput describes collaborator creation payload.
type RegisterInput struct {
	Name     string
	Username string
	Email    *string
	Password string
	Role     domain.CollaboratorRole
}

// Register creates a collaborator account. Usernames are unique.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Collaborator, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperrors.NewValidationError("username is required", nil)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if len(in.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := time.Now().UTC()
	collaborator := &domain.Collaborator{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Username:     username,
		Email:        in.Email,
		Role:         role,
		PasswordHash: &hash,
		Active:       true,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	err = s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		if _, err := r.Collaborators.GetByUsername(ctx, username); err == nil {
			return apperrors.NewConflict("username already taken", map[string]any{"username": username})
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return r.Collaborators.Create(ctx, collaborator)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return collaborator, nil
}

// GetCollaborator loads a collaborator by id.
func (s *AuthService) GetCollaborator(ctx context.Context, id string) (*domain.Collaborator, error) {
	collaborator, err := s.store.View().Collaborators.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("collaborator", map[string]any{"collaborator_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return collaborator, nil
}

// ListCollaborators returns collaborators, optionally active only.
func (s *AuthService) ListCollaborators(ctx context.Context, activeOnly bool) ([]domain.Collaborator, error) {
	collaborators, err := s.store.View().Collaborators.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return collaborators, nil
}

// Deactivate disables an account. Deactivated collaborators cannot log in
// and are skipped by mention resolution.
func (s *AuthService) Deactivate(ctx context.Context, id string) error {
	collaborator, err := s.GetCollaborator(ctx, id)
	if err != nil {
		return err
	}
	collaborator.Active = false
	collaborator.ModifiedAt = time.Now().UTC()
	if err := s.store.View().Collaborators.Update(ctx, collaborator); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
