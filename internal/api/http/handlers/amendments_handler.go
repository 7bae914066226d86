package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/amendment-service/internal/api/dto"
	"github.com/spec-kit/amendment-service/internal/auth"
	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/repository"
	"github.com/spec-kit/amendment-service/internal/service"
	"github.com/spec-kit/amendment-service/internal/workflow"
	apperrors "github.com/spec-kit/amendment-service/pkg/util"
)

// AmendmentsHandler manages amendment and QA workflow endpoints.
type AmendmentsHandler struct {
	qa *service.QAService
}

// NewAmendmentsHandler constructs handler.
func NewAmendmentsHandler(qaService *service.QAService) *AmendmentsHandler {
	return &AmendmentsHandler{qa: qaService}
}

func actorID(c *fiber.Ctx) *string {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil
	}
	return &principal.Collaborator.ID
}

// Create POST /amendments.
func (h *AmendmentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAmendmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	amendment, err := h.qa.CreateAmendment(c.Context(), service.CreateAmendmentInput{
		Reference:   req.Reference,
		Description: req.Description,
		Priority:    req.Priority,
		Application: req.Application,
		Version:     req.Version,
		SLAHours:    req.SLAHours,
		CreatedBy:   actorID(c),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": amendmentResponse(amendment)})
}

// List GET /amendments.
func (h *AmendmentsHandler) List(c *fiber.Ctx) error {
	filter := repository.AmendmentFilter{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if statuses := c.Query("qa_status"); statuses != "" {
		for _, raw := range strings.Split(statuses, ",") {
			status := domain.QAStatus(strings.TrimSpace(raw))
			if !status.Valid() {
				return apperrors.NewValidationError("unknown qa_status: "+raw, nil)
			}
			filter.QAStatuses = append(filter.QAStatuses, status)
		}
	}
	if tester := c.Query("tester_id"); tester != "" {
		filter.TesterID = &tester
	}
	if version := c.Query("version"); version != "" {
		filter.Version = &version
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}

	amendments, err := h.qa.ListAmendments(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AmendmentResponse, 0, len(amendments))
	for i := range amendments {
		items = append(items, amendmentResponse(&amendments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /amendments/:id.
func (h *AmendmentsHandler) Get(c *fiber.Ctx) error {
	amendment, err := h.qa.GetAmendment(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": amendmentResponse(amendment)})
}

// Delete DELETE /amendments/:id.
func (h *AmendmentsHandler) Delete(c *fiber.Ctx) error {
	if err := h.qa.DeleteAmendment(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdateQA PATCH /amendments/:id/qa.
func (h *AmendmentsHandler) UpdateQA(c *fiber.Ctx) error {
	var req dto.UpdateQARequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	amendment, err := h.qa.UpdateQAFields(c.Context(), c.Params("id"), service.UpdateQAInput{
		QANotes:       req.QANotes,
		BlockedReason: req.BlockedReason,
		SLAHours:      req.SLAHours,
		Priority:      req.Priority,
		Description:   req.Description,
	}, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": amendmentResponse(amendment)})
}

// Transition POST /amendments/:id/qa/status.
func (h *AmendmentsHandler) Transition(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	amendment, err := h.qa.ApplyTransition(c.Context(), c.Params("id"), req.Status, req.Comment, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": amendmentResponse(amendment)})
}

// ValidateTransition POST /amendments/:id/qa/status/validate.
func (h *AmendmentsHandler) ValidateTransition(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.qa.ValidateTransition(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ValidationResponse{Valid: result.OK, Reason: result.Reason}})
}

// AllowedStatuses GET /amendments/:id/qa/allowed-statuses.
func (h *AmendmentsHandler) AllowedStatuses(c *fiber.Ctx) error {
	current, allowed, err := h.qa.AllowedStatuses(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AllowedStatusesResponse{
		CurrentStatus:   current,
		AllowedStatuses: allowed,
	}})
}

// CanComplete GET /amendments/:id/qa/can-complete.
func (h *AmendmentsHandler) CanComplete(c *fiber.Ctx) error {
	ok, blockers, err := h.qa.CanComplete(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if blockers == nil {
		blockers = []string{}
	}
	return c.JSON(fiber.Map{"data": dto.CompletionResponse{CanComplete: ok, Blockers: blockers}})
}

// AssignTester PUT /amendments/:id/qa/tester.
func (h *AmendmentsHandler) AssignTester(c *fiber.Ctx) error {
	var req dto.AssignTesterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	amendment, err := h.qa.AssignTester(c.Context(), c.Params("id"), req.TesterID, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": amendmentResponse(amendment)})
}

// UpdateChecklist PATCH /amendments/:id/qa/checklist.
func (h *AmendmentsHandler) UpdateChecklist(c *fiber.Ctx) error {
	var req dto.ChecklistRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	amendment, err := h.qa.UpdateChecklist(c.Context(), c.Params("id"), req.Field, req.Value, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": amendmentResponse(amendment)})
}

// History GET /amendments/:id/qa/history.
func (h *AmendmentsHandler) History(c *fiber.Ctx) error {
	entries, err := h.qa.History(c.Context(), c.Params("id"), parseIntQuery(c, "limit", 100))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, historyResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// WorkflowHelp GET /qa/workflow/help. Static description of the state
// machine, its requirements and transitions.
func (h *AmendmentsHandler) WorkflowHelp(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": workflow.WorkflowHelp()})
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	val := c.Query(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
