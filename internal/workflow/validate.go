package workflow

import (
	"fmt"
	"strings"

	"github.com/spec-kit/amendment-service/internal/domain"
)

// Result is the judgment on a requested change. Rejections carry a
// human-readable reason for display; they are values, never panics.
type Result struct {
	OK     bool
	Reason string
}

func ok() Result {
	return Result{OK: true}
}

func rejected(reason string) Result {
	return Result{OK: false, Reason: reason}
}

// ValidateTransition checks table membership first, then the extra gates the
// target status carries. The amendment itself is never mutated.
func ValidateTransition(amendment *domain.Amendment, to domain.QAStatus) Result {
	from := amendment.QAStatus
	if !CanTransition(from, to) {
		return rejected(fmt.Sprintf(
			"invalid status transition: %s → %s. Follow the workflow: %s", from, to, workflowPath))
	}

	switch to {
	case domain.QAStatusAssigned:
		if amendment.TesterID == nil {
			return rejected("cannot assign QA: no QA tester assigned. Assign a QA tester first")
		}
	case domain.QAStatusInTesting:
		if amendment.TesterID == nil {
			return rejected("cannot start testing: no QA tester assigned")
		}
		if amendment.AssignedAt == nil {
			return rejected("cannot start testing: QA assignment date not set")
		}
	case domain.QAStatusPassed:
		if blockers := CompletionBlockers(amendment); len(blockers) > 0 {
			return rejected("cannot mark as Passed, the following requirements must be met: " +
				strings.Join(blockers, "; "))
		}
	case domain.QAStatusBlocked:
		if strings.TrimSpace(amendment.BlockedReason) == "" {
			return rejected("cannot mark as Blocked: provide a reason for blocking")
		}
	}
	return ok()
}

// CompletionBlockers returns every unmet requirement for marking the
// amendment Passed. All blockers are reported at once so UIs can show the
// full list, not just the first failure.
func CompletionBlockers(amendment *domain.Amendment) []string {
	var blockers []string
	if !amendment.TestPlanChecked {
		blockers = append(blockers, "test plan must be checked")
	}
	if !amendment.ReleaseNotesChecked {
		blockers = append(blockers, "release notes must be checked")
	}
	if amendment.StartedAt == nil {
		blockers = append(blockers, "QA testing must be started before marking as Passed")
	}
	if strings.TrimSpace(amendment.QANotes) == "" {
		blockers = append(blockers, "QA notes are required (document what was tested and results)")
	}
	return blockers
}

// CanComplete reports whether QA can be marked Passed, with the blocker list.
func CanComplete(amendment *domain.Amendment) (bool, []string) {
	blockers := CompletionBlockers(amendment)
	return len(blockers) == 0, blockers
}

// ValidateAssignment judges changing the assigned tester. Unassigning is
// refused while testing is in progress or already passed.
func ValidateAssignment(amendment *domain.Amendment, testerID *string) Result {
	if testerID == nil {
		if amendment.QAStatus == domain.QAStatusInTesting || amendment.QAStatus == domain.QAStatusPassed {
			return rejected(fmt.Sprintf("cannot unassign QA: amendment is in %q status", amendment.QAStatus))
		}
	}
	return ok()
}

// ValidateChecklistUpdate judges a checklist flag edit. A set flag may not
// be unset once QA has passed; re-submitting the current value is always
// accepted.
func ValidateChecklistUpdate(amendment *domain.Amendment, fieldName string, current, newValue bool) Result {
	if amendment.QAStatus == domain.QAStatusPassed && current && !newValue {
		return rejected(fmt.Sprintf("cannot uncheck %s: QA has already passed", fieldName))
	}
	return ok()
}
