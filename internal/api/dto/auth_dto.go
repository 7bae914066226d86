package dto

import (
	"time"

	"github.com/spec-kit/amendment-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token        string               `json:"token"`
	ExpiresAt    time.Time            `json:"expires_at"`
	Collaborator CollaboratorResponse `json:"collaborator"`
}

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string                  `json:"name"`
	Username string                  `json:"username"`
	Email    *string                 `json:"email"`
	Password string                  `json:"password"`
	Role     domain.CollaboratorRole `json:"role"`
}

// CollaboratorResponse one collaborator account.
type CollaboratorResponse struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Username  string                  `json:"username"`
	Email     *string                 `json:"email"`
	Role      domain.CollaboratorRole `json:"role"`
	Active    bool                    `json:"is_active"`
	LastLogin *time.Time              `json:"last_login"`
	CreatedAt time.Time               `json:"created_at"`
}
