package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/amendment-service/internal/api/dto"
	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/repository"
	"github.com/spec-kit/amendment-service/internal/service"
	apperrors "github.com/spec-kit/amendment-service/pkg/util"
)

// DefectsHandler manages defect and test execution endpoints.
type DefectsHandler struct {
	defects *service.DefectService
}

// NewDefectsHandler constructs handler.
func NewDefectsHandler(defectService *service.DefectService) *DefectsHandler {
	return &DefectsHandler{defects: defectService}
}

// Create POST /defects.
func (h *DefectsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDefectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AmendmentID == "" {
		return apperrors.NewValidationError("amendment_id is required", nil)
	}

	defect, err := h.defects.CreateDefect(c.Context(), service.CreateDefectInput{
		AmendmentID:  req.AmendmentID,
		Title:        req.Title,
		Description:  req.Description,
		Severity:     req.Severity,
		ReportedByID: actorID(c),
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": defectResponse(defect)})
}

// Get GET /defects/:id.
func (h *DefectsHandler) Get(c *fiber.Ctx) error {
	defect, err := h.defects.GetDefect(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": defectResponse(defect)})
}

// Update PATCH /defects/:id.
func (h *DefectsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateDefectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	defect, err := h.defects.UpdateDefect(c.Context(), c.Params("id"), service.UpdateDefectInput{
		Status:       req.Status,
		Severity:     req.Severity,
		AssignedToID: req.AssignedToID,
		Resolution:   req.Resolution,
	}, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": defectResponse(defect)})
}

// List GET /defects.
func (h *DefectsHandler) List(c *fiber.Ctx) error {
	filter := repository.DefectFilter{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if amendmentID := c.Query("amendment_id"); amendmentID != "" {
		filter.AmendmentID = &amendmentID
	}
	if status := c.Query("status"); status != "" {
		s := domain.DefectStatus(status)
		filter.Status = &s
	}
	if severity := c.Query("severity"); severity != "" {
		s := domain.DefectSeverity(severity)
		filter.Severity = &s
	}
	if assigned := c.Query("assigned_to_id"); assigned != "" {
		filter.AssignedToID = &assigned
	}

	defects, err := h.defects.ListDefects(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.DefectResponse, 0, len(defects))
	for i := range defects {
		items = append(items, defectResponse(&defects[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RecordExecution POST /amendments/:id/test-executions.
func (h *DefectsHandler) RecordExecution(c *fiber.Ctx) error {
	var req dto.RecordExecutionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	execution, err := h.defects.RecordTestExecution(c.Context(), service.RecordExecutionInput{
		AmendmentID:   c.Params("id"),
		TestCaseLabel: req.TestCaseLabel,
		Status:        req.Status,
		ActualResults: req.ActualResults,
		Notes:         req.Notes,
		ExecutedByID:  actorID(c),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": executionResponse(execution)})
}

// ListExecutions GET /amendments/:id/test-executions.
func (h *DefectsHandler) ListExecutions(c *fiber.Ctx) error {
	executions, err := h.defects.ListExecutions(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ExecutionResponse, 0, len(executions))
	for i := range executions {
		items = append(items, executionResponse(&executions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
