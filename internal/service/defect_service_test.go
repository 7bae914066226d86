package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/events"
	"github.com/spec-kit/amendment-service/internal/mail"
)

type defectEnv struct {
	store   *fakeStore
	defects *DefectService
}

func newDefectEnv() *defectEnv {
	store := newFakeStore()
	notifier := NewNotificationService(NotificationDependencies{
		Store:  store,
		Mailer: mail.NopSender{},
		Logger: zap.NewNop(),
	})
	defects := NewDefectService(DefectDependencies{
		Store:      store,
		Dispatcher: events.NewInMemoryDispatcher(),
		Notifier:   notifier,
		Logger:     zap.NewNop(),
	})
	return &defectEnv{store: store, defects: defects}
}

func TestCreateDefectAssignsSequentialNumbers(t *testing.T) {
	env := newDefectEnv()
	ctx := context.Background()
	reporter := seedCollaborator(env.store.db, "maria", true)
	id := seedAmendment(env.store.db, domain.Amendment{
		Reference: "AMD-1", Description: "x", QAStatus: domain.QAStatusInTesting,
	})

	first, err := env.defects.CreateDefect(ctx, CreateDefectInput{
		AmendmentID:  id,
		Title:        "Totals off by one cent",
		ReportedByID: &reporter,
	})
	require.NoError(t, err)
	second, err := env.defects.CreateDefect(ctx, CreateDefectInput{
		AmendmentID: id,
		Title:       "Export times out",
		Severity:    domain.SeverityCritical,
	})
	require.NoError(t, err)

	assert.Equal(t, "DEF-001", first.Number)
	assert.Equal(t, "DEF-002", second.Number)
	assert.Equal(t, domain.DefectStatusNew, first.Status)
	assert.Equal(t, domain.SeverityMedium, first.Severity)
	assert.Equal(t, domain.SeverityCritical, second.Severity)

	var actions []string
	for _, entry := range env.store.db.history {
		actions = append(actions, entry.Action)
	}
	assert.Equal(t, []string{domain.ActionDefectCreated, domain.ActionDefectCreated}, actions)
}

func TestCreateDefectWithAssigneeNotifies(t *testing.T) {
	env := newDefectEnv()
	ctx := context.Background()
	reporter := seedCollaborator(env.store.db, "maria", true)
	developer := seedCollaborator(env.store.db, "jon", true)
	id := seedAmendment(env.store.db, domain.Amendment{
		Reference: "AMD-2", Description: "x", QAStatus: domain.QAStatusInTesting,
	})

	defect, err := env.defects.CreateDefect(ctx, CreateDefectInput{
		AmendmentID:  id,
		Title:        "Null pointer on save",
		Severity:     domain.SeverityHigh,
		ReportedByID: &reporter,
		AssignedToID: &developer,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DefectStatusAssigned, defect.Status)
	assert.NotNil(t, defect.AssignedAt)

	created := notificationsByCategory(env.store.db, domain.NotificationDefectCreated)
	require.Len(t, created, 1)
	assert.Equal(t, developer, created[0].RecipientID)
	require.NotNil(t, created[0].DefectID)
	assert.Equal(t, defect.ID, *created[0].DefectID)
}

func TestCreateDefectValidation(t *testing.T) {
	env := newDefectEnv()
	ctx := context.Background()

	_, err := env.defects.CreateDefect(ctx, CreateDefectInput{AmendmentID: "missing", Title: "x"})
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))

	id := seedAmendment(env.store.db, domain.Amendment{
		Reference: "AMD-3", Description: "x", QAStatus: domain.QAStatusInTesting,
	})
	_, err = env.defects.CreateDefect(ctx, CreateDefectInput{AmendmentID: id, Title: "   "})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestUpdateDefectResolutionLifecycle(t *testing.T) {
	env := newDefectEnv()
	ctx := context.Background()
	id := seedAmendment(env.store.db, domain.Amendment{
		Reference: "AMD-4", Description: "x", QAStatus: domain.QAStatusInTesting,
	})
	defect, err := env.defects.CreateDefect(ctx, CreateDefectInput{
		AmendmentID: id, Title: "Rounding error",
	})
	require.NoError(t, err)

	resolved := domain.DefectStatusResolved
	resolution := "clamped to two decimals"
	updated, err := env.defects.UpdateDefect(ctx, defect.ID, UpdateDefectInput{
		Status:     &resolved,
		Resolution: &resolution,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefectStatusResolved, updated.Status)
	assert.NotNil(t, updated.ResolvedAt)
	require.NotNil(t, updated.Resolution)
	assert.Equal(t, resolution, *updated.Resolution)

	reopened := domain.DefectStatusReopened
	updated, err = env.defects.UpdateDefect(ctx, defect.ID, UpdateDefectInput{Status: &reopened}, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.ResolvedAt)
	assert.Nil(t, updated.ClosedAt)

	var statusEntries int
	for _, entry := range env.store.db.history {
		if entry.Action == domain.ActionDefectStatusChanged {
			statusEntries++
		}
	}
	assert.Equal(t, 2, statusEntries)
}

func TestUpdateDefectAssignmentSemantics(t *testing.T) {
	env := newDefectEnv()
	ctx := context.Background()
	developer := seedCollaborator(env.store.db, "jon", true)
	id := seedAmendment(env.store.db, domain.Amendment{
		Reference: "AMD-5", Description: "x", QAStatus: domain.QAStatusInTesting,
	})
	defect, err := env.defects.CreateDefect(ctx, CreateDefectInput{
		AmendmentID: id, Title: "Broken link",
	})
	require.NoError(t, err)

	// Assigning a New defect moves it to Assigned.
	assignee := &developer
	updated, err := env.defects.UpdateDefect(ctx, defect.ID, UpdateDefectInput{AssignedToID: &assignee}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefectStatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedToID)
	assert.Equal(t, developer, *updated.AssignedToID)

	// Clearing the assignee leaves the status alone.
	var cleared *string
	updated, err = env.defects.UpdateDefect(ctx, defect.ID, UpdateDefectInput{AssignedToID: &cleared}, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedToID)
	assert.Equal(t, domain.DefectStatusAssigned, updated.Status)
}

func TestRecordTestExecutionFailureNotifiesTester(t *testing.T) {
	env := newDefectEnv()
	ctx := context.Background()
	tester := seedCollaborator(env.store.db, "jon", true)
	executor := seedCollaborator(env.store.db, "maria", true)
	now := time.Now().UTC()
	id := seedAmendment(env.store.db, domain.Amendment{
		Reference: "AMD-6", Description: "x", QAStatus: domain.QAStatusInTesting,
		TesterID: &tester, AssignedAt: &now, StartedAt: &now,
	})

	execution, err := env.defects.RecordTestExecution(ctx, RecordExecutionInput{
		AmendmentID:   id,
		TestCaseLabel: "TC-12 batch export",
		Status:        domain.ExecutionFailed,
		ExecutedByID:  &executor,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionFailed, execution.Status)
	assert.NotNil(t, execution.ExecutedAt)

	failed := notificationsByCategory(env.store.db, domain.NotificationTestFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, tester, failed[0].RecipientID)

	runs, err := env.defects.ListExecutions(ctx, id)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordTestExecutionDefaultsStatus(t *testing.T) {
	env := newDefectEnv()
	ctx := context.Background()
	id := seedAmendment(env.store.db, domain.Amendment{
		Reference: "AMD-7", Description: "x", QAStatus: domain.QAStatusInTesting,
	})

	execution, err := env.defects.RecordTestExecution(ctx, RecordExecutionInput{
		AmendmentID:   id,
		TestCaseLabel: "TC-1 smoke",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionNotRun, execution.Status)
	assert.Empty(t, env.store.db.notifications)

	_, err = env.defects.RecordTestExecution(ctx, RecordExecutionInput{AmendmentID: id})
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}
