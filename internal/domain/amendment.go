package domain

import "time"

// QAStatus enumerates quality-assurance lifecycle states for amendments.
type QAStatus string

const (
	QAStatusNotStarted QAStatus = "Not Started"
	QAStatusAssigned   QAStatus = "Assigned"
	QAStatusInTesting  QAStatus = "In Testing"
	QAStatusBlocked    QAStatus = "Blocked"
	QAStatusPassed     QAStatus = "Passed"
	QAStatusFailed     QAStatus = "Failed"
)

// QAStatuses lists every defined status. Order follows the workflow.
var QAStatuses = []QAStatus{
	QAStatusNotStarted,
	QAStatusAssigned,
	QAStatusInTesting,
	QAStatusBlocked,
	QAStatusPassed,
	QAStatusFailed,
}

// Valid reports whether the value is one of the six defined statuses.
func (s QAStatus) Valid() bool {
	switch s {
	case QAStatusNotStarted, QAStatusAssigned, QAStatusInTesting,
		QAStatusBlocked, QAStatusPassed, QAStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status ends the QA cycle.
func (s QAStatus) Terminal() bool {
	return s == QAStatusPassed || s == QAStatusFailed
}

// AmendmentPriority enumerates urgency.
type AmendmentPriority string

const (
	PriorityLow    AmendmentPriority = "Low"
	PriorityMedium AmendmentPriority = "Medium"
	PriorityHigh   AmendmentPriority = "High"
	PriorityUrgent AmendmentPriority = "Urgent"
)

// Amendment is the aggregate for tracked change requests.
type Amendment struct {
	ID          string
	Reference   string
	Description string
	Priority    AmendmentPriority
	Application *string
	Version     *string

	QAStatus            QAStatus
	TesterID            *string
	AssignedAt          *time.Time
	StartedAt           *time.Time
	CompletedAt         *time.Time
	Completed           bool
	TestPlanChecked     bool
	ReleaseNotesChecked bool
	QANotes             string
	BlockedReason       string
	SLAHours            int
	DueAt               *time.Time

	CreatedBy  *string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// DefaultSLAHours is applied when an amendment carries no explicit SLA.
const DefaultSLAHours = 48

// Overdue reports whether the QA due date has passed without the amendment
// reaching a terminal status.
func (a *Amendment) Overdue(now time.Time) bool {
	if a.DueAt == nil || a.QAStatus.Terminal() {
		return false
	}
	return now.After(*a.DueAt)
}
