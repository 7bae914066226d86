package dto

import (
	"time"

	"github.com/spec-kit/amendment-service/internal/domain"
)

// CreateAmendmentRequest payload.
type CreateAmendmentRequest struct {
	Reference   string                   `json:"reference"`
	Description string                   `json:"description"`
	Priority    domain.AmendmentPriority `json:"priority"`
	Application *string                  `json:"application"`
	Version     *string                  `json:"version"`
	SLAHours    int                      `json:"sla_hours"`
}

// UpdateQARequest carries optional QA metadata edits.
type UpdateQARequest struct {
	QANotes       *string                   `json:"qa_notes"`
	BlockedReason *string                   `json:"blocked_reason"`
	SLAHours      *int                      `json:"sla_hours"`
	Priority      *domain.AmendmentPriority `json:"priority"`
	Description   *string                   `json:"description"`
}

// TransitionRequest requests a QA status change.
type TransitionRequest struct {
	Status  domain.QAStatus `json:"status"`
	Comment string          `json:"comment"`
}

// AssignTesterRequest sets or clears the QA tester. A null tester_id
// unassigns.
type AssignTesterRequest struct {
	TesterID *string `json:"tester_id"`
}

// ChecklistRequest flips one checklist flag.
type ChecklistRequest struct {
	Field string `json:"field"`
	Value bool   `json:"value"`
}

// AmendmentResponse full amendment representation.
type AmendmentResponse struct {
	ID                  string                   `json:"id"`
	Reference           string                   `json:"reference"`
	Description         string                   `json:"description"`
	Priority            domain.AmendmentPriority `json:"priority"`
	Application         *string                  `json:"application"`
	Version             *string                  `json:"version"`
	QAStatus            domain.QAStatus          `json:"qa_status"`
	TesterID            *string                  `json:"qa_tester_id"`
	AssignedAt          *time.Time               `json:"qa_assigned_at"`
	StartedAt           *time.Time               `json:"qa_started_at"`
	CompletedAt         *time.Time               `json:"qa_completed_at"`
	Completed           bool                     `json:"qa_completed"`
	TestPlanChecked     bool                     `json:"test_plan_checked"`
	ReleaseNotesChecked bool                     `json:"release_notes_checked"`
	QANotes             string                   `json:"qa_notes"`
	BlockedReason       string                   `json:"blocked_reason"`
	SLAHours            int                      `json:"sla_hours"`
	DueAt               *time.Time               `json:"qa_due_at"`
	Overdue             bool                     `json:"overdue"`
	CreatedBy           *string                  `json:"created_by"`
	CreatedAt           time.Time                `json:"created_at"`
	ModifiedAt          time.Time                `json:"modified_at"`
}

// ValidationResponse reports a transition judgment.
type ValidationResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// AllowedStatusesResponse lists reachable statuses.
type AllowedStatusesResponse struct {
	CurrentStatus   domain.QAStatus   `json:"current_status"`
	AllowedStatuses []domain.QAStatus `json:"allowed_statuses"`
}

// CompletionResponse reports readiness to mark Passed.
type CompletionResponse struct {
	CanComplete bool     `json:"can_complete"`
	Blockers    []string `json:"blockers"`
}

// HistoryEntryResponse one audit record.
type HistoryEntryResponse struct {
	ID          string    `json:"id"`
	AmendmentID string    `json:"amendment_id"`
	Action      string    `json:"action"`
	FieldName   *string   `json:"field_name"`
	OldValue    *string   `json:"old_value"`
	NewValue    *string   `json:"new_value"`
	Comment     *string   `json:"comment"`
	ActorID     *string   `json:"changed_by"`
	CreatedAt   time.Time `json:"created_at"`
}
