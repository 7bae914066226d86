package dto

import (
	"time"

	"github.com/spec-kit/amendment-service/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text     string             `json:"text"`
	Type     domain.CommentType `json:"comment_type"`
	ParentID *string            `json:"parent_comment_id"`
}

// EditCommentRequest payload.
type EditCommentRequest struct {
	Text string `json:"text"`
}

// CommentResponse one comment.
type CommentResponse struct {
	ID          string             `json:"id"`
	AmendmentID string             `json:"amendment_id"`
	AuthorID    string             `json:"author_id"`
	ParentID    *string            `json:"parent_comment_id"`
	Text        string             `json:"text"`
	Type        domain.CommentType `json:"comment_type"`
	Edited      bool               `json:"is_edited"`
	CreatedAt   time.Time          `json:"created_at"`
	ModifiedAt  time.Time          `json:"modified_at"`
}

// CommentThreadResponse a top-level comment with replies.
type CommentThreadResponse struct {
	CommentResponse
	Replies []CommentResponse `json:"replies"`
}

// CreateCommentResponse includes the mentioned collaborators resolved from
// the text.
type CreateCommentResponse struct {
	Comment   CommentResponse        `json:"comment"`
	Mentioned []CollaboratorResponse `json:"mentioned"`
}

// ToggleReactionRequest payload.
type ToggleReactionRequest struct {
	Emoji string `json:"emoji"`
}

// ReactionSummaryResponse per-emoji counts after a toggle.
type ReactionSummaryResponse struct {
	Added   bool           `json:"added"`
	Summary map[string]int `json:"summary"`
}

// AddWatcherRequest payload.
type AddWatcherRequest struct {
	CollaboratorID string             `json:"collaborator_id"`
	Reason         domain.WatchReason `json:"reason"`
}

// WatcherPreferencesRequest adjusts notification toggles.
type WatcherPreferencesRequest struct {
	NotifyComments      *bool `json:"notify_comments"`
	NotifyStatusChanges *bool `json:"notify_status_changes"`
	NotifyMentions      *bool `json:"notify_mentions"`
}

// WatcherResponse one subscription.
type WatcherResponse struct {
	ID                  string             `json:"id"`
	AmendmentID         string             `json:"amendment_id"`
	CollaboratorID      string             `json:"collaborator_id"`
	Reason              domain.WatchReason `json:"reason"`
	Watching            bool               `json:"is_watching"`
	NotifyComments      bool               `json:"notify_comments"`
	NotifyStatusChanges bool               `json:"notify_status_changes"`
	NotifyMentions      bool               `json:"notify_mentions"`
	CreatedAt           time.Time          `json:"created_at"`
}
