package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/events"
	"github.com/spec-kit/amendment-service/internal/repository"
	apperrors "github.com/spec-kit/amendment-service/pkg/util"
)

// DefectService manages defects raised during QA and test execution records.
type DefectService struct {
	store      repository.TxManager
	dispatcher events.Dispatcher
	notifier   *NotificationService
	logger     *zap.Logger
}

// DefectDependencies bundles collaborators for the defect service.
type DefectDependencies struct {
	Store      repository.TxManager
	Dispatcher events.Dispatcher
	Notifier   *NotificationService
	Logger     *zap.Logger
}

// NewDefectService constructs the service.
func NewDefectService(deps DefectDependencies) *DefectService {
	return &DefectService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// CreateDefectInput describes defect creation payload.
type CreateDefectInput struct {
	AmendmentID  string
	Title        string
	Description  string
	Severity     domain.DefectSeverity
	ReportedByID *string
	AssignedToID *string
}

// CreateDefect records a defect with the next sequential defect number,
// appends a history entry on the amendment and notifies the assigned
// developer.
func (s *DefectService) CreateDefect(ctx context.Context, in CreateDefectInput) (*domain.Defect, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.NewValidationError("defect title is required", nil)
	}
	severity := in.Severity
	if severity == "" {
		severity = domain.SeverityMedium
	}

	var (
		defect  *domain.Defect
		created []domain.Notification
	)

	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		amendment, err := r.Amendments.GetByID(ctx, in.AmendmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("amendment", map[string]any{"amendment_id": in.AmendmentID})
			}
			return err
		}

		number, err := r.Defects.NextNumber(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		defect = &domain.Defect{
			ID:           uuid.NewString(),
			Number:       number,
			AmendmentID:  in.AmendmentID,
			Title:        in.Title,
			Description:  in.Description,
			Severity:     severity,
			Status:       domain.DefectStatusNew,
			ReportedByID: in.ReportedByID,
			AssignedToID: in.AssignedToID,
			CreatedAt:    now,
			ModifiedAt:   now,
		}
		if in.AssignedToID != nil {
			defect.Status = domain.DefectStatusAssigned
			defect.AssignedAt = &now
		}
		if err := r.Defects.Create(ctx, defect); err != nil {
			return err
		}

		entry := &domain.HistoryEntry{
			ID:          uuid.NewString(),
			AmendmentID: in.AmendmentID,
			Action:      domain.ActionDefectCreated,
			FieldName:   strPtr("defect"),
			NewValue:    strPtr(number),
			Comment:     strPtr(in.Title),
			ActorID:     in.ReportedByID,
			CreatedAt:   now,
		}
		if err := r.History.Create(ctx, entry); err != nil {
			return err
		}

		if in.AssignedToID != nil {
			created, err = s.notifier.FanOut(ctx, r, FanOutInput{
				Amendment:        amendment,
				Category:         domain.NotificationDefectCreated,
				Title:            fmt.Sprintf("New Defect: %s", number),
				Message:          fmt.Sprintf("%s (%s) on %s", in.Title, severity, amendment.Reference),
				ActorID:          in.ReportedByID,
				DirectRecipients: []string{*in.AssignedToID},
				DefectID:         &defect.ID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventDefectCreated,
		AmendmentID: defect.AmendmentID,
		ActorID:     in.ReportedByID,
		Timestamp:   time.Now().UTC(),
		Payload: events.DefectCreatedPayload{
			DefectID:     defect.ID,
			DefectNumber: defect.Number,
			Severity:     defect.Severity,
			AssignedToID: defect.AssignedToID,
		},
		Notifications: created,
	}); err != nil {
		s.logger.Warn("event publish failed", zap.Error(err))
	}
	return defect, nil
}

// UpdateDefectInput carries optional defect edits. A double pointer on
// AssignedToID distinguishes "leave alone" from "clear".
type UpdateDefectInput struct {
	Status       *domain.DefectStatus
	Severity     *domain.DefectSeverity
	AssignedToID **string
	Resolution   *string
}

// UpdateDefect applies edits, maintaining resolution and closure timestamps
// and recording status changes in the amendment's history.
func (s *DefectService) UpdateDefect(ctx context.Context, defectID string, in UpdateDefectInput, actorID *string) (*domain.Defect, error) {
	var defect *domain.Defect
	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		defect, err = r.Defects.GetByID(ctx, defectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("defect", map[string]any{"defect_id": defectID})
			}
			return err
		}

		now := time.Now().UTC()
		oldStatus := defect.Status

		if in.Severity != nil {
			defect.Severity = *in.Severity
		}
		if in.Resolution != nil {
			defect.Resolution = in.Resolution
		}
		if in.AssignedToID != nil {
			defect.AssignedToID = *in.AssignedToID
			if *in.AssignedToID != nil {
				defect.AssignedAt = &now
				if defect.Status == domain.DefectStatusNew {
					defect.Status = domain.DefectStatusAssigned
				}
			}
		}
		if in.Status != nil {
			defect.Status = *in.Status
		}

		if defect.Status != oldStatus {
			switch defect.Status {
			case domain.DefectStatusResolved:
				defect.ResolvedAt = &now
			case domain.DefectStatusClosed:
				defect.ClosedAt = &now
			case domain.DefectStatusReopened:
				defect.ResolvedAt = nil
				defect.ClosedAt = nil
			}
		}

		defect.ModifiedAt = now
		if err := r.Defects.Update(ctx, defect); err != nil {
			return err
		}

		if defect.Status != oldStatus {
			entry := &domain.HistoryEntry{
				ID:          uuid.NewString(),
				AmendmentID: defect.AmendmentID,
				Action:      domain.ActionDefectStatusChanged,
				FieldName:   strPtr("defect_status"),
				OldValue:    strPtr(string(oldStatus)),
				NewValue:    strPtr(string(defect.Status)),
				Comment:     strPtr(defect.Number),
				ActorID:     actorID,
				CreatedAt:   now,
			}
			if err := r.History.Create(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return defect, nil
}

// GetDefect loads a defect by id.
func (s *DefectService) GetDefect(ctx context.Context, defectID string) (*domain.Defect, error) {
	defect, err := s.store.View().Defects.GetByID(ctx, defectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("defect", map[string]any{"defect_id": defectID})
		}
		return nil, apperrors.MapError(err)
	}
	return defect, nil
}

// ListDefects returns defects matching the filter.
func (s *DefectService) ListDefects(ctx context.Context, filter repository.DefectFilter) ([]domain.Defect, error) {
	defects, err := s.store.View().Defects.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return defects, nil
}

// RecordExecutionInput describes a test run result.
type RecordExecutionInput struct {
	AmendmentID   string
	TestCaseLabel string
	Status        domain.ExecutionStatus
	ActualResults *string
	Notes         *string
	ExecutedByID  *string
}

// RecordTestExecution stores a test run against an amendment and records it
// in the history. A failed run notifies the amendment's tester.
func (s *DefectService) RecordTestExecution(ctx context.Context, in RecordExecutionInput) (*domain.TestExecution, error) {
	if strings.TrimSpace(in.TestCaseLabel) == "" {
		return nil, apperrors.NewValidationError("test case label is required", nil)
	}
	status := in.Status
	if status == "" {
		status = domain.ExecutionNotRun
	}

	var (
		execution *domain.TestExecution
		created   []domain.Notification
	)

	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		amendment, err := r.Amendments.GetByID(ctx, in.AmendmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("amendment", map[string]any{"amendment_id": in.AmendmentID})
			}
			return err
		}

		now := time.Now().UTC()
		execution = &domain.TestExecution{
			ID:            uuid.NewString(),
			AmendmentID:   in.AmendmentID,
			TestCaseLabel: in.TestCaseLabel,
			Status:        status,
			ActualResults: in.ActualResults,
			Notes:         in.Notes,
			ExecutedByID:  in.ExecutedByID,
			ExecutedAt:    &now,
			CreatedAt:     now,
		}
		if err := r.Executions.Create(ctx, execution); err != nil {
			return err
		}

		entry := &domain.HistoryEntry{
			ID:          uuid.NewString(),
			AmendmentID: in.AmendmentID,
			Action:      domain.ActionTestExecuted,
			FieldName:   strPtr("test_execution"),
			NewValue:    strPtr(string(status)),
			Comment:     strPtr(in.TestCaseLabel),
			ActorID:     in.ExecutedByID,
			CreatedAt:   now,
		}
		if err := r.History.Create(ctx, entry); err != nil {
			return err
		}

		if status == domain.ExecutionFailed && amendment.TesterID != nil {
			created, err = s.notifier.FanOut(ctx, r, FanOutInput{
				Amendment:        amendment,
				Category:         domain.NotificationTestFailed,
				Title:            fmt.Sprintf("Test Failed: %s", amendment.Reference),
				Message:          fmt.Sprintf("%q failed on %s", in.TestCaseLabel, amendment.Reference),
				ActorID:          in.ExecutedByID,
				DirectRecipients: []string{*amendment.TesterID},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventTestExecuted,
		AmendmentID: execution.AmendmentID,
		ActorID:     in.ExecutedByID,
		Timestamp:   time.Now().UTC(),
		Payload: events.TestExecutedPayload{
			ExecutionID:   execution.ID,
			TestCaseLabel: execution.TestCaseLabel,
			Status:        execution.Status,
		},
		Notifications: created,
	}); err != nil {
		s.logger.Warn("event publish failed", zap.Error(err))
	}
	return execution, nil
}

// ListExecutions returns the amendment's test runs, newest first.
func (s *DefectService) ListExecutions(ctx context.Context, amendmentID string) ([]domain.TestExecution, error) {
	executions, err := s.store.View().Executions.ListByAmendment(ctx, amendmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return executions, nil
}
