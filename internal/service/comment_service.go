package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/events"
	"github.com/spec-kit/amendment-service/internal/mention"
	"github.com/spec-kit/amendment-service/internal/repository"
	apperrors "github.com/spec-kit/amendment-service/pkg/util"
)

const commentPreviewLen = 120

// CommentService manages discussion on amendments: comments and replies,
// @-mentions, emoji reactions and watcher subscriptions.
type CommentService struct {
	store      repository.TxManager
	dispatcher events.Dispatcher
	notifier   *NotificationService
	logger     *zap.Logger
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	Store      repository.TxManager
	Dispatcher events.Dispatcher
	Notifier   *NotificationService
	Logger     *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// CreateCommentInput describes comment creation payload.
type CreateCommentInput struct {
	AmendmentID string
	AuthorID    string
	ParentID    *string
	Text        string
	Type        domain.CommentType
}

// CreateComment posts a comment. Mention tokens in the text are resolved
// against active collaborators; unresolvable tokens are dropped silently.
// The author starts watching the amendment, every mentioned collaborator is
// subscribed too, and watchers plus mentioned collaborators are notified
// per their preference flags, all in the same transaction as the comment
// row.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*domain.Comment, []domain.Collaborator, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, nil, apperrors.NewValidationError("comment text is required", nil)
	}
	commentType := in.Type
	if commentType == "" {
		commentType = domain.CommentTypeGeneral
	}

	var (
		comment   *domain.Comment
		mentioned []domain.Collaborator
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

		if in.ParentID != nil {
			parent, err := r.Comments.GetByID(ctx, *in.ParentID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperrors.NewNotFound("parent comment", map[string]any{"comment_id": *in.ParentID})
				}
				return err
			}
			if parent.AmendmentID != in.AmendmentID {
				return apperrors.NewValidationError("parent comment belongs to a different amendment", nil)
			}
		}

		now := time.Now().UTC()
		comment = &domain.Comment{
			ID:          uuid.NewString(),
			AmendmentID: in.AmendmentID,
			AuthorID:    in.AuthorID,
			ParentID:    in.ParentID,
			Text:        in.Text,
			Type:        commentType,
			CreatedAt:   now,
			ModifiedAt:  now,
		}
		if err := r.Comments.Create(ctx, comment); err != nil {
			return err
		}

		mentioned, err = s.resolveMentions(ctx, r, comment, in.AuthorID)
		if err != nil {
			return err
		}

		if _, err := r.Watchers.Upsert(ctx, in.AmendmentID, in.AuthorID, domain.WatchReasonParticipated); err != nil {
			return err
		}
		// mention notifications honor the watcher's notify_mentions flag,
		// which the upsert preserves for pre-existing subscriptions
		mentionRecipients := make([]string, 0, len(mentioned))
		for i := range mentioned {
			watcher, err := r.Watchers.Upsert(ctx, in.AmendmentID, mentioned[i].ID, domain.WatchReasonMentioned)
			if err != nil {
				return err
			}
			if watcher.NotifyMentions {
				mentionRecipients = append(mentionRecipients, mentioned[i].ID)
			}
		}

		created, err = s.notifier.FanOut(ctx, r, FanOutInput{
			Amendment: amendment,
			Category:  domain.NotificationComment,
			Title:     fmt.Sprintf("New comment on %s", amendment.Reference),
			Message:   preview(in.Text),
			ActorID:   &in.AuthorID,
		})
		if err != nil {
			return err
		}

		if len(mentionRecipients) > 0 {
			mentionNotifs, err := s.notifier.FanOut(ctx, r, FanOutInput{
				Amendment:        amendment,
				Category:         domain.NotificationMention,
				Title:            fmt.Sprintf("You were mentioned on %s", amendment.Reference),
				Message:          preview(in.Text),
				ActorID:          &in.AuthorID,
				DirectRecipients: mentionRecipients,
			})
			if err != nil {
				return err
			}
			created = append(created, mentionNotifs...)
		}
		return nil
	})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	mentionedIDs := make([]string, 0, len(mentioned))
	for i := range mentioned {
		mentionedIDs = append(mentionedIDs, mentioned[i].ID)
	}
	if err := s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventCommentAdded,
		AmendmentID: comment.AmendmentID,
		ActorID:     &in.AuthorID,
		Timestamp:   time.Now().UTC(),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			ParentID:    comment.ParentID,
			Mentioned:   mentionedIDs,
			TextPreview: preview(comment.Text),
		},
		Notifications: created,
	}); err != nil {
		s.logger.Warn("event publish failed", zap.Error(err))
	}
	return comment, mentioned, nil
}

// resolveMentions extracts mention tokens, resolves each against active
// collaborators and records a mention row per distinct resolved
// collaborator. Self-mentions are ignored.
func (s *CommentService) resolveMentions(ctx context.Context, r *repository.Repos, comment *domain.Comment, authorID string) ([]domain.Collaborator, error) {
	var resolved []domain.Collaborator
	seen := make(map[string]struct{})

	for _, token := range mention.Tokens(comment.Text) {
		collaborator, err := r.Collaborators.ResolveMention(ctx, token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if collaborator.ID == authorID {
			continue
		}
		if _, dup := seen[collaborator.ID]; dup {
			continue
		}
		seen[collaborator.ID] = struct{}{}

		record := &domain.Mention{
			ID:             uuid.NewString(),
			CommentID:      comment.ID,
			CollaboratorID: collaborator.ID,
			MentionedByID:  authorID,
			CreatedAt:      time.Now().UTC(),
		}
		if err := r.Mentions.Create(ctx, record); err != nil {
			return nil, err
		}
		resolved = append(resolved, *collaborator)
	}
	return resolved, nil
}

// EditComment replaces a comment's text. Only the author may edit; the
// edited flag is set permanently.
func (s *CommentService) EditComment(ctx context.Context, commentID, authorID, text string) (*domain.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("comment text is required", nil)
	}

	var comment *domain.Comment
	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		comment, err = r.Comments.GetByID(ctx, commentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("comment", map[string]any{"comment_id": commentID})
			}
			return err
		}
		if comment.AuthorID != authorID {
			return apperrors.NewForbidden("only the author can edit a comment")
		}

		comment.Text = text
		comment.Edited = true
		comment.ModifiedAt = time.Now().UTC()
		return r.Comments.Update(ctx, comment)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// DeleteComment removes a comment. The author or an admin may delete.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, actorID string, isAdmin bool) error {
	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		comment, err := r.Comments.GetByID(ctx, commentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("comment", map[string]any{"comment_id": commentID})
			}
			return err
		}
		if comment.AuthorID != actorID && !isAdmin {
			return apperrors.NewForbidden("only the author or an admin can delete a comment")
		}
		return r.Comments.Delete(ctx, commentID)
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListThreads returns top-level comments with their replies nested, both in
// chronological order.
func (s *CommentService) ListThreads(ctx context.Context, amendmentID string, limit, offset int) ([]domain.CommentThread, error) {
	comments, err := s.store.View().Comments.ListByAmendment(ctx, amendmentID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	threads := make([]domain.CommentThread, 0)
	index := make(map[string]int)
	for _, c := range comments {
		if c.ParentID == nil {
			index[c.ID] = len(threads)
			threads = append(threads, domain.CommentThread{Comment: c})
		}
	}
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}
	return threads, nil
}

// ToggleReaction adds the caller's emoji reaction if absent, removes it if
// present, and returns the new per-emoji counts.
func (s *CommentService) ToggleReaction(ctx context.Context, commentID, collaboratorID, emoji string) (bool, map[string]int, error) {
	if strings.TrimSpace(emoji) == "" {
		return false, nil, apperrors.NewValidationError("emoji is required", nil)
	}

	var (
		added   bool
		summary map[string]int
	)
	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		if _, err := r.Comments.GetByID(ctx, commentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("comment", map[string]any{"comment_id": commentID})
			}
			return err
		}
		var err error
		added, _, err = r.Reactions.Toggle(ctx, commentID, collaboratorID, emoji)
		if err != nil {
			return err
		}
		summary, err = r.Reactions.Summary(ctx, commentID)
		return err
	})
	if err != nil {
		return false, nil, apperrors.MapError(err)
	}
	return added, summary, nil
}

// ReactionSummary returns per-emoji reaction counts for a comment.
func (s *CommentService) ReactionSummary(ctx context.Context, commentID string) (map[string]int, error) {
	summary, err := s.store.View().Reactions.Summary(ctx, commentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return summary, nil
}

// AddWatcher subscribes a collaborator to an amendment. Adding an existing
// watcher reactivates the original row without disturbing its reason or
// preferences.
func (s *CommentService) AddWatcher(ctx context.Context, amendmentID, collaboratorID string, reason domain.WatchReason) (*domain.Watcher, error) {
	if reason == "" {
		reason = domain.WatchReasonManual
	}

	var watcher *domain.Watcher
	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		if _, err := r.Amendments.GetByID(ctx, amendmentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("amendment", map[string]any{"amendment_id": amendmentID})
			}
			return err
		}
		if _, err := r.Collaborators.GetByID(ctx, collaboratorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("collaborator", map[string]any{"collaborator_id": collaboratorID})
			}
			return err
		}
		var err error
		watcher, err = r.Watchers.Upsert(ctx, amendmentID, collaboratorID, reason)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return watcher, nil
}

// RemoveWatcher mutes a subscription. The row survives so a later re-add
// restores the original preferences.
func (s *CommentService) RemoveWatcher(ctx context.Context, amendmentID, collaboratorID string) error {
	err := s.store.View().Watchers.Mute(ctx, amendmentID, collaboratorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("watcher", map[string]any{
				"amendment_id":    amendmentID,
				"collaborator_id": collaboratorID,
			})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListWatchers returns the amendment's active watchers.
func (s *CommentService) ListWatchers(ctx context.Context, amendmentID string) ([]domain.Watcher, error) {
	watchers, err := s.store.View().Watchers.ListActive(ctx, amendmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return watchers, nil
}

// WatcherPreferences carries per-category notification toggles.
type WatcherPreferences struct {
	NotifyComments      *bool
	NotifyStatusChanges *bool
	NotifyMentions      *bool
}

// UpdateWatcherPreferences adjusts which categories a watcher receives.
func (s *CommentService) UpdateWatcherPreferences(ctx context.Context, amendmentID, collaboratorID string, prefs WatcherPreferences) (*domain.Watcher, error) {
	var watcher *domain.Watcher
	err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		watcher, err = r.Watchers.Get(ctx, amendmentID, collaboratorID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("watcher", map[string]any{
					"amendment_id":    amendmentID,
					"collaborator_id": collaboratorID,
				})
			}
			return err
		}
		if prefs.NotifyComments != nil {
			watcher.NotifyComments = *prefs.NotifyComments
		}
		if prefs.NotifyStatusChanges != nil {
			watcher.NotifyStatusChanges = *prefs.NotifyStatusChanges
		}
		if prefs.NotifyMentions != nil {
			watcher.NotifyMentions = *prefs.NotifyMentions
		}
		return r.Watchers.UpdatePreferences(ctx, watcher)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return watcher, nil
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= commentPreviewLen {
		return text
	}
	// truncate on a rune boundary so the preview stays valid UTF-8
	cut := commentPreviewLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}
