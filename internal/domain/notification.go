package domain

import "time"

// NotificationCategory enumerates supported notification kinds.
type NotificationCategory string

const (
	NotificationQAAssigned    NotificationCategory = "QA Assigned"
	NotificationStatusChanged NotificationCategory = "Status Changed"
	NotificationTestFailed    NotificationCategory = "Test Failed"
	NotificationDefectCreated NotificationCategory = "Defect Created"
	NotificationOverdue       NotificationCategory = "Overdue"
	NotificationSLABreach     NotificationCategory = "SLA Breach"
	NotificationComment       NotificationCategory = "comment"
	NotificationMention       NotificationCategory = "mention"
)

// Notification is an in-app message for a single recipient. Mutated only to
// flip the read and email-sent flags.
type Notification struct {
	ID          string
	RecipientID string
	Category    NotificationCategory
	Title       string
	Message     string
	AmendmentID *string
	DefectID    *string
	Read        bool
	ReadAt      *time.Time
	EmailSent   bool
	CreatedAt   time.Time
}
