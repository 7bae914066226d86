package handlers

import (
	"time"

	"github.com/spec-kit/amendment-service/internal/api/dto"
	"github.com/spec-kit/amendment-service/internal/domain"
)

func amendmentResponse(a *domain.Amendment) dto.AmendmentResponse {
	return dto.AmendmentResponse{
		ID:                  a.ID,
		Reference:           a.Reference,
		Description:         a.Description,
		Priority:            a.Priority,
		Application:         a.Application,
		Version:             a.Version,
		QAStatus:            a.QAStatus,
		TesterID:            a.TesterID,
		AssignedAt:          a.AssignedAt,
		StartedAt:           a.StartedAt,
		CompletedAt:         a.CompletedAt,
		Completed:           a.Completed,
		TestPlanChecked:     a.TestPlanChecked,
		ReleaseNotesChecked: a.ReleaseNotesChecked,
		QANotes:             a.QANotes,
		BlockedReason:       a.BlockedReason,
		SLAHours:            a.SLAHours,
		DueAt:               a.DueAt,
		Overdue:             a.Overdue(time.Now().UTC()),
		CreatedBy:           a.CreatedBy,
		CreatedAt:           a.CreatedAt,
		ModifiedAt:          a.ModifiedAt,
	}
}

func commentResponse(c *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:          c.ID,
		AmendmentID: c.AmendmentID,
		AuthorID:    c.AuthorID,
		ParentID:    c.ParentID,
		Text:        c.Text,
		Type:        c.Type,
		Edited:      c.Edited,
		CreatedAt:   c.CreatedAt,
		ModifiedAt:  c.ModifiedAt,
	}
}

func watcherResponse(w *domain.Watcher) dto.WatcherResponse {
	return dto.WatcherResponse{
		ID:                  w.ID,
		AmendmentID:         w.AmendmentID,
		CollaboratorID:      w.CollaboratorID,
		Reason:              w.Reason,
		Watching:            w.Watching,
		NotifyComments:      w.NotifyComments,
		NotifyStatusChanges: w.NotifyStatusChanges,
		NotifyMentions:      w.NotifyMentions,
		CreatedAt:           w.CreatedAt,
	}
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:          n.ID,
		Category:    n.Category,
		Title:       n.Title,
		Message:     n.Message,
		AmendmentID: n.AmendmentID,
		DefectID:    n.DefectID,
		Read:        n.Read,
		ReadAt:      n.ReadAt,
		EmailSent:   n.EmailSent,
		CreatedAt:   n.CreatedAt,
	}
}

func defectResponse(d *domain.Defect) dto.DefectResponse {
	return dto.DefectResponse{
		ID:           d.ID,
		Number:       d.Number,
		AmendmentID:  d.AmendmentID,
		Title:        d.Title,
		Description:  d.Description,
		Severity:     d.Severity,
		Status:       d.Status,
		ReportedByID: d.ReportedByID,
		AssignedToID: d.AssignedToID,
		AssignedAt:   d.AssignedAt,
		ResolvedAt:   d.ResolvedAt,
		ClosedAt:     d.ClosedAt,
		Resolution:   d.Resolution,
		CreatedAt:    d.CreatedAt,
		ModifiedAt:   d.ModifiedAt,
	}
}

func executionResponse(e *domain.TestExecution) dto.ExecutionResponse {
	return dto.ExecutionResponse{
		ID:            e.ID,
		AmendmentID:   e.AmendmentID,
		TestCaseLabel: e.TestCaseLabel,
		Status:        e.Status,
		ActualResults: e.ActualResults,
		Notes:         e.Notes,
		ExecutedByID:  e.ExecutedByID,
		ExecutedAt:    e.ExecutedAt,
		CreatedAt:     e.CreatedAt,
	}
}

func collaboratorResponse(c *domain.Collaborator) dto.CollaboratorResponse {
	return dto.CollaboratorResponse{
		ID:        c.ID,
		Name:      c.Name,
		Username:  c.Username,
		Email:     c.Email,
		Role:      c.Role,
		Active:    c.Active,
		LastLogin: c.LastLogin,
		CreatedAt: c.CreatedAt,
	}
}

func historyResponse(e *domain.HistoryEntry) dto.HistoryEntryResponse {
	return dto.HistoryEntryResponse{
		ID:          e.ID,
		AmendmentID: e.AmendmentID,
		Action:      e.Action,
		FieldName:   e.FieldName,
		OldValue:    e.OldValue,
		NewValue:    e.NewValue,
		Comment:     e.Comment,
		ActorID:     e.ActorID,
		CreatedAt:   e.CreatedAt,
	}
}
