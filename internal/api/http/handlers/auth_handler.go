package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/amendment-service/internal/api/dto"
	"github.com/spec-kit/amendment-service/internal/service"
	apperrors "github.com/spec-kit/amendment-service/pkg/util"
)

// AuthHandler manages login and collaborator account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	result, err := h.auth.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:        result.Token,
		ExpiresAt:    result.ExpiresAt,
		Collaborator: collaboratorResponse(result.Collaborator),
	}})
}

// Register POST /auth/register. Admin only.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	collaborator, err := h.auth.Register(c.Context(), service.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": collaboratorResponse(collaborator)})
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": collaboratorResponse(p.Collaborator)})
}

// ListCollaborators GET /collaborators.
func (h *AuthHandler) ListCollaborators(c *fiber.Ctx) error {
	activeOnly := true
	if raw := c.Query("active_only"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			activeOnly = parsed
		}
	}
	collaborators, err := h.auth.ListCollaborators(c.Context(), activeOnly)
	if err != nil {
		return err
	}
	items := make([]dto.CollaboratorResponse, 0, len(collaborators))
	for i := range collaborators {
		items = append(items, collaboratorResponse(&collaborators[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Deactivate POST /collaborators/:id/deactivate. Admin only.
func (h *AuthHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.auth.Deactivate(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
