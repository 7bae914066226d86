package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/amendment-service/internal/api/dto"
	"github.com/spec-kit/amendment-service/internal/auth"
	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/service"
	apperrors "github.com/spec-kit/amendment-service/pkg/util"
)

// CommentsHandler manages comment, reaction and watcher endpoints.
type CommentsHandler struct {
	comments *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: commentService}
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

// Create POST /amendments/:id/comments.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, mentioned, err := h.comments.CreateComment(c.Context(), service.CreateCommentInput{
		AmendmentID: c.Params("id"),
		AuthorID:    p.Collaborator.ID,
		ParentID:    req.ParentID,
		Text:        req.Text,
		Type:        req.Type,
	})
	if err != nil {
		return err
	}

	mentionedOut := make([]dto.CollaboratorResponse, 0, len(mentioned))
	for i := range mentioned {
		mentionedOut = append(mentionedOut, collaboratorResponse(&mentioned[i]))
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreateCommentResponse{
		Comment:   commentResponse(comment),
		Mentioned: mentionedOut,
	}})
}

// List GET /amendments/:id/comments.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	threads, err := h.comments.ListThreads(c.Context(), c.Params("id"),
		parseIntQuery(c, "limit", 100), parseIntQuery(c, "offset", 0))
	if err != nil {
		return err
	}

	items := make([]dto.CommentThreadResponse, 0, len(threads))
	for i := range threads {
		thread := dto.CommentThreadResponse{
			CommentResponse: commentResponse(&threads[i].Comment),
			Replies:         make([]dto.CommentResponse, 0, len(threads[i].Replies)),
		}
		for j := range threads[i].Replies {
			thread.Replies = append(thread.Replies, commentResponse(&threads[i].Replies[j]))
		}
		items = append(items, thread)
	}
	return c.JSON(fiber.Map{"data": items})
}

// Edit PATCH /comments/:commentID.
func (h *CommentsHandler) Edit(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.EditCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.comments.EditComment(c.Context(), c.Params("commentID"), p.Collaborator.ID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": commentResponse(comment)})
}

// Delete DELETE /comments/:commentID.
func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.comments.DeleteComment(c.Context(), c.Params("commentID"),
		p.Collaborator.ID, p.Role == domain.RoleAdmin); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ToggleReaction POST /comments/:commentID/reactions.
func (h *CommentsHandler) ToggleReaction(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ToggleReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	added, summary, err := h.comments.ToggleReaction(c.Context(), c.Params("commentID"),
		p.Collaborator.ID, req.Emoji)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReactionSummaryResponse{Added: added, Summary: summary}})
}

// Reactions GET /comments/:commentID/reactions.
func (h *CommentsHandler) Reactions(c *fiber.Ctx) error {
	summary, err := h.comments.ReactionSummary(c.Context(), c.Params("commentID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// AddWatcher POST /amendments/:id/watchers.
func (h *CommentsHandler) AddWatcher(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AddWatcherRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	collaboratorID := req.CollaboratorID
	if collaboratorID == "" {
		collaboratorID = p.Collaborator.ID
	}

	watcher, err := h.comments.AddWatcher(c.Context(), c.Params("id"), collaboratorID, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": watcherResponse(watcher)})
}

// RemoveWatcher DELETE /amendments/:id/watchers/:collaboratorID.
func (h *CommentsHandler) RemoveWatcher(c *fiber.Ctx) error {
	if err := h.comments.RemoveWatcher(c.Context(), c.Params("id"), c.Params("collaboratorID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListWatchers GET /amendments/:id/watchers.
func (h *CommentsHandler) ListWatchers(c *fiber.Ctx) error {
	watchers, err := h.comments.ListWatchers(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.WatcherResponse, 0, len(watchers))
	for i := range watchers {
		items = append(items, watcherResponse(&watchers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateWatcherPreferences PATCH /amendments/:id/watchers/:collaboratorID.
func (h *CommentsHandler) UpdateWatcherPreferences(c *fiber.Ctx) error {
	var req dto.WatcherPreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	watcher, err := h.comments.UpdateWatcherPreferences(c.Context(), c.Params("id"),
		c.Params("collaboratorID"), service.WatcherPreferences{
			NotifyComments:      req.NotifyComments,
			NotifyStatusChanges: req.NotifyStatusChanges,
			NotifyMentions:      req.NotifyMentions,
		})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": watcherResponse(watcher)})
}
