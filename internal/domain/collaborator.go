package domain

import "time"

// CollaboratorRole controls administrative access.
type CollaboratorRole string

const (
	RoleAdmin CollaboratorRole = "Admin"
	RoleUser  CollaboratorRole = "User"
)

// Collaborator is a tester, developer or admin participating in QA.
type Collaborator struct {
	ID           string
	Name         string
	Username     string
	Email        *string
	Role         CollaboratorRole
	PasswordHash *string
	Active       bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	ModifiedAt   time.Time
}
