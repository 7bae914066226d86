package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/amendment-service/internal/domain"
)

func TestCanTransitionTable(t *testing.T) {
	legal := map[domain.QAStatus][]domain.QAStatus{
		domain.QAStatusNotStarted: {domain.QAStatusAssigned},
		domain.QAStatusAssigned:   {domain.QAStatusInTesting},
		domain.QAStatusInTesting:  {domain.QAStatusBlocked, domain.QAStatusPassed, domain.QAStatusFailed},
		domain.QAStatusBlocked:    {domain.QAStatusInTesting, domain.QAStatusFailed},
		domain.QAStatusPassed:     {domain.QAStatusInTesting},
		domain.QAStatusFailed:     {domain.QAStatusInTesting},
	}

	for _, from := range domain.QAStatuses {
		for _, to := range domain.QAStatuses {
			want := from == to
			for _, candidate := range legal[from] {
				if candidate == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionSelf(t *testing.T) {
	for _, status := range domain.QAStatuses {
		assert.True(t, CanTransition(status, status), "self transition for %s", status)
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition("Bogus", domain.QAStatusAssigned))
	assert.False(t, CanTransition(domain.QAStatusAssigned, "Bogus"))
	assert.False(t, CanTransition("", ""))
}

func TestAllowedNext(t *testing.T) {
	assert.Equal(t, []domain.QAStatus{domain.QAStatusAssigned}, AllowedNext(domain.QAStatusNotStarted))
	assert.ElementsMatch(t,
		[]domain.QAStatus{domain.QAStatusBlocked, domain.QAStatusPassed, domain.QAStatusFailed},
		AllowedNext(domain.QAStatusInTesting))
	assert.Nil(t, AllowedNext("Bogus"))
}

func TestAllowedNextReturnsCopy(t *testing.T) {
	next := AllowedNext(domain.QAStatusInTesting)
	require.NotEmpty(t, next)
	next[0] = domain.QAStatusNotStarted
	assert.NotContains(t, AllowedNext(domain.QAStatusInTesting), domain.QAStatusNotStarted)
}

func TestWorkflowHelpCoversEveryStatus(t *testing.T) {
	help := WorkflowHelp()
	assert.NotEmpty(t, help.Workflow)
	for _, status := range domain.QAStatuses {
		assert.Contains(t, help.StatusDescriptions, status)
	}
	assert.Equal(t, AllowedNext(domain.QAStatusBlocked), help.AllowedTransitions[domain.QAStatusBlocked])
	assert.Len(t, help.Requirements[domain.QAStatusPassed], 4)
}
