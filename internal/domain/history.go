package domain

import "time"

// History actions recorded by the service layer.
const (
	ActionStatusChanged       = "Status Changed"
	ActionFieldUpdated        = "Field Updated"
	ActionTesterAssigned      = "Tester Assigned"
	ActionTesterUnassigned    = "Tester Unassigned"
	ActionDefectCreated       = "Defect Created"
	ActionDefectStatusChanged = "Defect Status Changed"
	ActionTestExecuted        = "Test Executed"
)

// HistoryEntry is an immutable audit record of a tracked change on an
// amendment. Append-only; removed only by amendment deletion cascade.
type HistoryEntry struct {
	ID          string
	AmendmentID string
	Action      string
	FieldName   *string
	OldValue    *string
	NewValue    *string
	Comment     *string
	ActorID     *string
	CreatedAt   time.Time
}
