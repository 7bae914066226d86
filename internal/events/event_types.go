package events

import (
	"time"

	"github.com/spec-kit/amendment-service/internal/domain"
)

// EventType enumerates domain events published after a unit of work commits.
type EventType string

const (
	EventQAAssigned      EventType = "qa_assigned"
	EventQAStatusChanged EventType = "qa_status_changed"
	EventCommentAdded    EventType = "comment_added"
	EventDefectCreated   EventType = "defect_created"
	EventTestExecuted    EventType = "test_executed"
	EventQAOverdue       EventType = "qa_overdue"
	EventSLABreach       EventType = "sla_breach"
)

// Event is emitted by services once the enclosing transaction has committed.
// Notifications carries the in-app records created during the transaction so
// subscribers (email delivery, audit logging) can act on them without
// re-querying.
type Event struct {
	ID            string                `json:"id"`
	Type          EventType             `json:"type"`
	AmendmentID   string                `json:"amendment_id"`
	ActorID       *string               `json:"actor_id,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
	Payload       interface{}           `json:"payload"`
	Notifications []domain.Notification `json:"-"`
}

// QAAssignedPayload payload.
type QAAssignedPayload struct {
	TesterID   *string `json:"tester_id,omitempty"`
	AssignedBy *string `json:"assigned_by,omitempty"`
}

// QAStatusChangedPayload payload.
type QAStatusChangedPayload struct {
	OldStatus domain.QAStatus `json:"old_status"`
	NewStatus domain.QAStatus `json:"new_status"`
	Comment   string          `json:"comment,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string   `json:"comment_id"`
	AuthorID    string   `json:"author_id"`
	ParentID    *string  `json:"parent_id,omitempty"`
	Mentioned   []string `json:"mentioned,omitempty"`
	TextPreview string   `json:"text_preview"`
}

// DefectCreatedPayload payload.
type DefectCreatedPayload struct {
	DefectID     string                `json:"defect_id"`
	DefectNumber string                `json:"defect_number"`
	Severity     domain.DefectSeverity `json:"severity"`
	AssignedToID *string               `json:"assigned_to_id,omitempty"`
}

// TestExecutedPayload payload.
type TestExecutedPayload struct {
	ExecutionID   string                 `json:"execution_id"`
	TestCaseLabel string                 `json:"test_case_label"`
	Status        domain.ExecutionStatus `json:"status"`
}

// QAOverduePayload payload.
type QAOverduePayload struct {
	Reference string     `json:"reference"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	TesterID  *string    `json:"tester_id,omitempty"`
}
