package domain

import "time"

// DefectStatus enumerates defect lifecycle states.
type DefectStatus string

const (
	DefectStatusNew        DefectStatus = "New"
	DefectStatusAssigned   DefectStatus = "Assigned"
	DefectStatusInProgress DefectStatus = "In Progress"
	DefectStatusResolved   DefectStatus = "Resolved"
	DefectStatusVerified   DefectStatus = "Verified"
	DefectStatusClosed     DefectStatus = "Closed"
	DefectStatusReopened   DefectStatus = "Reopened"
)

// DefectSeverity enumerates impact levels.
type DefectSeverity string

const (
	SeverityCritical DefectSeverity = "Critical"
	SeverityHigh     DefectSeverity = "High"
	SeverityMedium   DefectSeverity = "Medium"
	SeverityLow      DefectSeverity = "Low"
)

// Defect records an issue found during QA of an amendment.
type Defect struct {
	ID           string
	Number       string
	AmendmentID  string
	Title        string
	Description  string
	Severity     DefectSeverity
	Status       DefectStatus
	ReportedByID *string
	AssignedToID *string
	AssignedAt   *time.Time
	ResolvedAt   *time.Time
	ClosedAt     *time.Time
	Resolution   *string
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// ExecutionStatus enumerates test run outcomes.
type ExecutionStatus string

const (
	ExecutionNotRun  ExecutionStatus = "Not Run"
	ExecutionPassed  ExecutionStatus = "Passed"
	ExecutionFailed  ExecutionStatus = "Failed"
	ExecutionBlocked ExecutionStatus = "Blocked"
)

// TestExecution records the result of running a test against an amendment.
type TestExecution struct {
	ID            string
	AmendmentID   string
	TestCaseLabel string
	Status        ExecutionStatus
	ActualResults *string
	Notes         *string
	ExecutedByID  *string
	ExecutedAt    *time.Time
	CreatedAt     time.Time
}
