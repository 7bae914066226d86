// Package workflow holds the QA status machine. It only judges legality of
// transitions; persisting the change, writing history and fanning out
// notifications are the caller's concern.
package workflow

import "github.com/spec-kit/amendment-service/internal/domain"

// workflowPath names the only legal path through the machine, used in
// rejection messages so callers can render guidance.
const workflowPath = "Not Started → Assigned → In Testing → Passed/Failed/Blocked"

var allowedTransitions = map[domain.QAStatus][]domain.QAStatus{
	domain.QAStatusNotStarted: {domain.QAStatusAssigned},
	domain.QAStatusAssigned:   {domain.QAStatusInTesting},
	domain.QAStatusInTesting:  {domain.QAStatusBlocked, domain.QAStatusPassed, domain.QAStatusFailed},
	domain.QAStatusBlocked:    {domain.QAStatusInTesting, domain.QAStatusFailed},
	// Re-testing is allowed out of both terminal states.
	domain.QAStatusPassed: {domain.QAStatusInTesting},
	domain.QAStatusFailed: {domain.QAStatusInTesting},
}

// CanTransition reports whether the edge (from, to) exists in the transition
// table. Staying in the same status is always permitted.
func CanTransition(from, to domain.QAStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses reachable from the current one.
func AllowedNext(from domain.QAStatus) []domain.QAStatus {
	if !from.Valid() {
		return nil
	}
	next := make([]domain.QAStatus, len(allowedTransitions[from]))
	copy(next, allowedTransitions[from])
	return next
}

// Help describes the workflow for UI consumption.
type Help struct {
	Workflow           string                             `json:"workflow"`
	StatusDescriptions map[domain.QAStatus]string         `json:"status_descriptions"`
	Requirements       map[domain.QAStatus][]string       `json:"requirements"`
	AllowedTransitions map[domain.QAStatus][]domain.QAStatus `json:"allowed_transitions"`
}

// WorkflowHelp returns human-readable workflow documentation.
func WorkflowHelp() Help {
	transitions := make(map[domain.QAStatus][]domain.QAStatus, len(allowedTransitions))
	for status := range allowedTransitions {
		transitions[status] = AllowedNext(status)
	}
	return Help{
		Workflow: workflowPath,
		StatusDescriptions: map[domain.QAStatus]string{
			domain.QAStatusNotStarted: "QA has not been initiated",
			domain.QAStatusAssigned:   "QA tester has been assigned",
			domain.QAStatusInTesting:  "QA testing is actively in progress",
			domain.QAStatusBlocked:    "QA is blocked and cannot proceed",
			domain.QAStatusPassed:     "QA testing completed successfully",
			domain.QAStatusFailed:     "QA testing found issues, changes needed",
		},
		Requirements: map[domain.QAStatus][]string{
			domain.QAStatusAssigned:  {"A QA tester must be assigned"},
			domain.QAStatusInTesting: {"A QA tester must be assigned", "Assignment date must be set"},
			domain.QAStatusPassed: {
				"Test plan must be checked",
				"Release notes must be checked",
				"QA testing must be started",
				"QA notes must be provided",
			},
			domain.QAStatusBlocked: {"A blocking reason must be provided"},
		},
		AllowedTransitions: transitions,
	}
}
