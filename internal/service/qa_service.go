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
	"github.com/spec-kit/amendment-service/internal/workflow"
	apperrors "github.com/spec-kit/amendment-service/pkg/util"
)

// QAService coordinates the amendment QA lifecycle: creation, tester
// assignment, status transitions, checklist edits and the audit trail behind
// them. Every mutation runs in one transaction so the amendment, its history
// entry and its notifications land together.
type QAService struct {
	store           repository.TxManager
	dispatcher      events.Dispatcher
	notifier        *NotificationService
	defaultSLAHours int
	logger          *zap.Logger
}

// QADependencies bundles collaborators for the QA service.
type QADependencies struct {
	Store           repository.TxManager
	Dispatcher      events.Dispatcher
	Notifier        *NotificationService
	DefaultSLAHours int
	Logger          *zap.Logger
}

// NewQAService constructs the service.
func NewQAService(deps QADependencies) *QAService {
	sla := deps.DefaultSLAHours
	if sla <= 0 {
		sla = domain.DefaultSLAHours
	}
	return &QAService{
		store:           deps.Store,
		dispatcher:      deps.Dispatcher,
		notifier:        deps.Notifier,
		defaultSLAHours: sla,
		logger:          deps.Logger,
	}
}

// CreateAmendmentInput describes amendment creation payload.
type CreateAmendmentInput struct {
	Reference   string
	Description string
	Priority    domain.AmendmentPriority
	Application *string
	Version     *string
	SLAHours    int
	CreatedBy   *string
}

// CreateAmendment registers a new amendment in the Not Started state. The
// creator automatically watches it.
func (s *QAService) CreateAmendment(ctx context.Context, in CreateAmendmentInput) (*domain.Amendment, error) {
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		return nil, apperrors.NewValidationError("reference is required", nil)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	slaHours := in.SLAHours
	if slaHours <= 0 {
		slaHours = s.defaultSLAHours
	}

	now := time.Now().UTC()
	amendment := &domain.Amendment{
		ID:          uuid.NewString(),
		Reference:   reference,
		Description: in.Description,
		Priority:    priority,
		Application: in.Application,
		Version:     in.Version,
		QAStatus:    domain.QAStatusNotStarted,
		SLAHours:    slaHours,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		if _, err := r.Amendments.GetByReference(ctx, reference); err == nil {
			return apperrors.NewConflict("amendment reference already exists",
				map[string]any{"reference": reference})
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := r.Amendments.Create(ctx, amendment); err != nil {
			return err
		}
		if in.CreatedBy != nil {
			if _, err := r.Watchers.Upsert(ctx, amendment.ID, *in.CreatedBy, domain.WatchReasonCreated); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return amendment, nil
}

// GetAmendment loads an amendment by id.
func (s *QAService) GetAmendment(ctx context.Context, id string) (*domain.Amendment, error) {
	amendment, err := s.store.View().Amendments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("amendment", map[string]any{"amendment_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return amendment, nil
}

// GetAmendmentByReference loads an amendment by its reference number.
func (s *QAService) GetAmendmentByReference(ctx context.Context, reference string) (*domain.Amendment, error) {
	amendment, err := s.store.View().Amendments.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("amendment", map[string]any{"reference": reference})
		}
		return nil, apperrors.MapError(err)
	}
	return amendment, nil
}

// ListAmendments returns amendments matching the filter.
func (s *QAService) ListAmendments(ctx context.Context, filter repository.AmendmentFilter) ([]domain.Amendment, error) {
	amendments, err := s.store.View().Amendments.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return amendments, nil
}

// DeleteAmendment removes an amendment and, via cascade, its comments,
// watchers, notifications, history, defects and executions.
func (s *QAService) DeleteAmendment(ctx context.Context, id string) error {
	err := s.store.View().Amendments.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("amendment", map[string]any{"amendment_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ValidateTransition judges a proposed status change without applying it.
func (s *QAService) ValidateTransition(ctx context.Context, amendmentID string, to domain.QAStatus) (workflow.Result, error) {
	amendment, err := s.GetAmendment(ctx, amendmentID)
	if err != nil {
		return workflow.Result{}, err
	}
	if !to.Valid() {
		return workflow.Result{OK: false, Reason: fmt.Sprintf("unknown QA status: %q", to)}, nil
	}
	return workflow.ValidateTransition(amendment, to), nil
}

// ApplyTransition moves an amendment to a new QA status. The transition is
// validated against the workflow table and its gates; acceptance updates
// status timestamps, appends exactly one history entry and fans out
// notifications, all in one transaction. A rejected transition changes
// nothing.
func (s *QAService) ApplyTransition(ctx context.Context, amendmentID string, to domain.QAStatus, comment string, actorID *string) (*domain.Amendment, error) {
	if !to.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown QA status: %q", to), nil)
	}

	var (
		amendment *domain.Amendment
		created   []domain.Notification
		oldStatus domain.QAStatus
	)

	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		amendment, err = r.Amendments.GetByID(ctx, amendmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("amendment", map[string]any{"amendment_id": amendmentID})
			}
			return err
		}

		if verdict := workflow.ValidateTransition(amendment, to); !verdict.OK {
			return apperrors.NewValidationError(verdict.Reason, map[string]any{
				"current_status":   amendment.QAStatus,
				"requested_status": to,
			})
		}

		oldStatus = amendment.QAStatus
		if oldStatus == to {
			return nil
		}

		now := time.Now().UTC()
		s.applyStatusEffects(amendment, to, now)
		amendment.QAStatus = to
		amendment.ModifiedAt = now

		if err := r.Amendments.Update(ctx, amendment); err != nil {
			return err
		}

		entry := &domain.HistoryEntry{
			ID:          uuid.NewString(),
			AmendmentID: amendment.ID,
			Action:      domain.ActionStatusChanged,
			FieldName:   strPtr("qa_status"),
			OldValue:    strPtr(string(oldStatus)),
			NewValue:    strPtr(string(to)),
			ActorID:     actorID,
			CreatedAt:   now,
		}
		if strings.TrimSpace(comment) != "" {
			entry.Comment = strPtr(comment)
		}
		if err := r.History.Create(ctx, entry); err != nil {
			return err
		}

		var direct []string
		if amendment.TesterID != nil {
			direct = append(direct, *amendment.TesterID)
		}
		created, err = s.notifier.FanOut(ctx, r, FanOutInput{
			Amendment: amendment,
			Category:  domain.NotificationStatusChanged,
			Title:     fmt.Sprintf("QA Status Changed: %s", amendment.Reference),
			Message:   fmt.Sprintf("%s → %s", oldStatus, to),
			ActorID:   actorID,
			DirectRecipients: direct,
		})
		if err != nil {
			return err
		}

		if to == domain.QAStatusFailed && amendment.CreatedBy != nil {
			failed, err := s.notifier.FanOut(ctx, r, FanOutInput{
				Amendment: amendment,
				Category:  domain.NotificationTestFailed,
				Title:     fmt.Sprintf("QA Failed: %s", amendment.Reference),
				Message:   fmt.Sprintf("QA testing failed for %s", amendment.Reference),
				ActorID:   actorID,
				DirectRecipients: []string{*amendment.CreatedBy},
			})
			if err != nil {
				return err
			}
			created = append(created, failed...)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if oldStatus != to {
		s.publish(ctx, events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventQAStatusChanged,
			AmendmentID: amendment.ID,
			ActorID:     actorID,
			Timestamp:   time.Now().UTC(),
			Payload: events.QAStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: to,
				Comment:   comment,
			},
			Notifications: created,
		})
	}
	return amendment, nil
}

// applyStatusEffects sets the timestamps and flags a status entry implies.
// Leaving Passed clears the completion markers; checklist flags and QA notes
// survive so a re-test starts from the previous evidence.
func (s *QAService) applyStatusEffects(amendment *domain.Amendment, to domain.QAStatus, now time.Time) {
	if amendment.QAStatus == domain.QAStatusPassed && to != domain.QAStatusPassed {
		amendment.Completed = false
		amendment.CompletedAt = nil
	}

	switch to {
	case domain.QAStatusAssigned:
		if amendment.AssignedAt == nil {
			amendment.AssignedAt = &now
		}
		s.ensureDueDate(amendment, now)
	case domain.QAStatusInTesting:
		if amendment.StartedAt == nil {
			amendment.StartedAt = &now
		}
	case domain.QAStatusPassed:
		amendment.Completed = true
		amendment.CompletedAt = &now
	case domain.QAStatusFailed:
		amendment.Completed = false
		amendment.CompletedAt = nil
	}
}

func (s *QAService) ensureDueDate(amendment *domain.Amendment, now time.Time) {
	if amendment.DueAt != nil {
		return
	}
	hours := amendment.SLAHours
	if hours <= 0 {
		hours = s.defaultSLAHours
	}
	due := now.Add(time.Duration(hours) * time.Hour)
	amendment.DueAt = &due
}

// AssignTester sets or clears the QA tester. Assigning records the
// assignment date, derives the due date from the SLA, moves a Not Started
// amendment to Assigned, subscribes the tester as a watcher and notifies
// them. Unassigning is refused while testing is in progress or passed.
func (s *QAService) AssignTester(ctx context.Context, amendmentID string, testerID *string, actorID *string) (*domain.Amendment, error) {
	var (
		amendment *domain.Amendment
		created   []domain.Notification
	)

	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		amendment, err = r.Amendments.GetByID(ctx, amendmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("amendment", map[string]any{"amendment_id": amendmentID})
			}
			return err
		}

		if verdict := workflow.ValidateAssignment(amendment, testerID); !verdict.OK {
			return apperrors.NewValidationError(verdict.Reason, map[string]any{
				"current_status": amendment.QAStatus,
			})
		}

		now := time.Now().UTC()
		oldTester := amendment.TesterID

		if testerID != nil {
			tester, err := r.Collaborators.GetByID(ctx, *testerID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperrors.NewNotFound("collaborator", map[string]any{"collaborator_id": *testerID})
				}
				return err
			}
			if !tester.Active {
				return apperrors.NewValidationError("cannot assign an inactive collaborator as QA tester", nil)
			}

			amendment.TesterID = testerID
			amendment.AssignedAt = &now
			s.ensureDueDate(amendment, now)
			if amendment.QAStatus == domain.QAStatusNotStarted {
				amendment.QAStatus = domain.QAStatusAssigned
			}
		} else {
			amendment.TesterID = nil
			if amendment.QAStatus == domain.QAStatusAssigned {
				amendment.QAStatus = domain.QAStatusNotStarted
			}
		}
		amendment.ModifiedAt = now

		if err := r.Amendments.Update(ctx, amendment); err != nil {
			return err
		}

		action := domain.ActionTesterAssigned
		if testerID == nil {
			action = domain.ActionTesterUnassigned
		}
		entry := &domain.HistoryEntry{
			ID:          uuid.NewString(),
			AmendmentID: amendment.ID,
			Action:      action,
			FieldName:   strPtr("qa_tester"),
			OldValue:    oldTester,
			NewValue:    testerID,
			ActorID:     actorID,
			CreatedAt:   now,
		}
		if err := r.History.Create(ctx, entry); err != nil {
			return err
		}

		if testerID != nil {
			if _, err := r.Watchers.Upsert(ctx, amendment.ID, *testerID, domain.WatchReasonAssigned); err != nil {
				return err
			}
			created, err = s.notifier.FanOut(ctx, r, FanOutInput{
				Amendment: amendment,
				Category:  domain.NotificationQAAssigned,
				Title:     fmt.Sprintf("QA Assignment: %s", amendment.Reference),
				Message:   fmt.Sprintf("You have been assigned to test %s", amendment.Reference),
				ActorID:   actorID,
				DirectRecipients: []string{*testerID},
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

	if testerID != nil {
		s.publish(ctx, events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventQAAssigned,
			AmendmentID: amendment.ID,
			ActorID:     actorID,
			Timestamp:   time.Now().UTC(),
			Payload: events.QAAssignedPayload{
				TesterID:   testerID,
				AssignedBy: actorID,
			},
			Notifications: created,
		})
	}
	return amendment, nil
}

// ChecklistField names for UpdateChecklist.
const (
	ChecklistTestPlan     = "test_plan"
	ChecklistReleaseNotes = "release_notes"
)

// UpdateChecklist flips one checklist flag. Unchecking is refused once QA
// has passed.
func (s *QAService) UpdateChecklist(ctx context.Context, amendmentID, field string, value bool, actorID *string) (*domain.Amendment, error) {
	if field != ChecklistTestPlan && field != ChecklistReleaseNotes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown checklist field: %q", field), nil)
	}

	var amendment *domain.Amendment
	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		amendment, err = r.Amendments.GetByID(ctx, amendmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("amendment", map[string]any{"amendment_id": amendmentID})
			}
			return err
		}

		var old bool
		switch field {
		case ChecklistTestPlan:
			old = amendment.TestPlanChecked
		case ChecklistReleaseNotes:
			old = amendment.ReleaseNotesChecked
		}

		if verdict := workflow.ValidateChecklistUpdate(amendment, field, old, value); !verdict.OK {
			return apperrors.NewValidationError(verdict.Reason, nil)
		}
		if old == value {
			return nil
		}

		switch field {
		case ChecklistTestPlan:
			amendment.TestPlanChecked = value
		case ChecklistReleaseNotes:
			amendment.ReleaseNotesChecked = value
		}

		now := time.Now().UTC()
		amendment.ModifiedAt = now
		if err := r.Amendments.Update(ctx, amendment); err != nil {
			return err
		}
		entry := &domain.HistoryEntry{
			ID:          uuid.NewString(),
			AmendmentID: amendment.ID,
			Action:      domain.ActionFieldUpdated,
			FieldName:   strPtr(field),
			OldValue:    strPtr(fmt.Sprintf("%t", old)),
			NewValue:    strPtr(fmt.Sprintf("%t", value)),
			ActorID:     actorID,
			CreatedAt:   now,
		}
		return r.History.Create(ctx, entry)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return amendment, nil
}

// UpdateQAInput carries optional QA metadata edits. Nil fields are left
// untouched.
type UpdateQAInput struct {
	QANotes       *string
	BlockedReason *string
	SLAHours      *int
	Priority      *domain.AmendmentPriority
	Description   *string
}

// UpdateQAFields applies metadata edits, recording one history entry per
// changed field.
func (s *QAService) UpdateQAFields(ctx context.Context, amendmentID string, in UpdateQAInput, actorID *string) (*domain.Amendment, error) {
	var amendment *domain.Amendment
	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		amendment, err = r.Amendments.GetByID(ctx, amendmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("amendment", map[string]any{"amendment_id": amendmentID})
			}
			return err
		}

		now := time.Now().UTC()
		type change struct {
			field    string
			old, new string
		}
		var changes []change

		if in.QANotes != nil && *in.QANotes != amendment.QANotes {
			changes = append(changes, change{"qa_notes", amendment.QANotes, *in.QANotes})
			amendment.QANotes = *in.QANotes
		}
		if in.BlockedReason != nil && *in.BlockedReason != amendment.BlockedReason {
			changes = append(changes, change{"blocked_reason", amendment.BlockedReason, *in.BlockedReason})
			amendment.BlockedReason = *in.BlockedReason
		}
		if in.SLAHours != nil && *in.SLAHours != amendment.SLAHours {
			if *in.SLAHours <= 0 {
				return apperrors.NewValidationError("sla_hours must be positive", nil)
			}
			changes = append(changes, change{"sla_hours",
				fmt.Sprintf("%d", amendment.SLAHours), fmt.Sprintf("%d", *in.SLAHours)})
			amendment.SLAHours = *in.SLAHours
		}
		if in.Priority != nil && *in.Priority != amendment.Priority {
			changes = append(changes, change{"priority", string(amendment.Priority), string(*in.Priority)})
			amendment.Priority = *in.Priority
		}
		if in.Description != nil && *in.Description != amendment.Description {
			if strings.TrimSpace(*in.Description) == "" {
				return apperrors.NewValidationError("description cannot be blank", nil)
			}
			changes = append(changes, change{"description", amendment.Description, *in.Description})
			amendment.Description = *in.Description
		}

		if len(changes) == 0 {
			return nil
		}
		amendment.ModifiedAt = now
		if err := r.Amendments.Update(ctx, amendment); err != nil {
			return err
		}
		for _, ch := range changes {
			entry := &domain.HistoryEntry{
				ID:          uuid.NewString(),
				AmendmentID: amendment.ID,
				Action:      domain.ActionFieldUpdated,
				FieldName:   strPtr(ch.field),
				OldValue:    strPtr(ch.old),
				NewValue:    strPtr(ch.new),
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
	return amendment, nil
}

// CanComplete reports whether the amendment may be marked Passed, with every
// unmet requirement.
func (s *QAService) CanComplete(ctx context.Context, amendmentID string) (bool, []string, error) {
	amendment, err := s.GetAmendment(ctx, amendmentID)
	if err != nil {
		return false, nil, err
	}
	ok, blockers := workflow.CanComplete(amendment)
	return ok, blockers, nil
}

// AllowedStatuses returns the statuses reachable from the amendment's
// current status.
func (s *QAService) AllowedStatuses(ctx context.Context, amendmentID string) (domain.QAStatus, []domain.QAStatus, error) {
	amendment, err := s.GetAmendment(ctx, amendmentID)
	if err != nil {
		return "", nil, err
	}
	return amendment.QAStatus, workflow.AllowedNext(amendment.QAStatus), nil
}

// History returns the amendment's audit trail, newest first.
func (s *QAService) History(ctx context.Context, amendmentID string, limit int) ([]domain.HistoryEntry, error) {
	if _, err := s.GetAmendment(ctx, amendmentID); err != nil {
		return nil, err
	}
	entries, err := s.store.View().History.ListByAmendment(ctx, amendmentID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *QAService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func strPtr(s string) *string {
	return &s
}
