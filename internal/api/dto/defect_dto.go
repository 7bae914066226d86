package dto

import (
	"time"

	"github.com/spec-kit/amendment-service/internal/domain"
)

// CreateDefectRequest payload.
type CreateDefectRequest struct {
	AmendmentID  string                `json:"amendment_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Severity     domain.DefectSeverity `json:"severity"`
	AssignedToID *string               `json:"assigned_to_id"`
}

// UpdateDefectRequest carries optional defect edits. assigned_to_id is
// applied only when present in the JSON body; an explicit null clears it.
type UpdateDefectRequest struct {
	Status       *domain.DefectStatus   `json:"status"`
	Severity     *domain.DefectSeverity `json:"severity"`
	AssignedToID **string               `json:"assigned_to_id"`
	Resolution   *string                `json:"resolution"`
}

// DefectResponse one defect.
type DefectResponse struct {
	ID           string                `json:"id"`
	Number       string                `json:"defect_number"`
	AmendmentID  string                `json:"amendment_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Severity     domain.DefectSeverity `json:"severity"`
	Status       domain.DefectStatus   `json:"status"`
	ReportedByID *string               `json:"reported_by_id"`
	AssignedToID *string               `json:"assigned_to_id"`
	AssignedAt   *time.Time            `json:"assigned_at"`
	ResolvedAt   *time.Time            `json:"resolved_at"`
	ClosedAt     *time.Time            `json:"closed_at"`
	Resolution   *string               `json:"resolution"`
	CreatedAt    time.Time             `json:"created_at"`
	ModifiedAt   time.Time             `json:"modified_at"`
}

// RecordExecutionRequest payload.
type RecordExecutionRequest struct {
	TestCaseLabel string                 `json:"test_case_label"`
	Status        domain.ExecutionStatus `json:"status"`
	ActualResults *string                `json:"actual_results"`
	Notes         *string                `json:"notes"`
}

// ExecutionResponse one test run.
type ExecutionResponse struct {
	ID            string                 `json:"id"`
	AmendmentID   string                 `json:"amendment_id"`
	TestCaseLabel string                 `json:"test_case_label"`
	Status        domain.ExecutionStatus `json:"status"`
	ActualResults *string                `json:"actual_results"`
	Notes         *string                `json:"notes"`
	ExecutedByID  *string                `json:"executed_by_id"`
	ExecutedAt    *time.Time             `json:"executed_at"`
	CreatedAt     time.Time              `json:"created_at"`
}
