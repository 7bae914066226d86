package domain

import "time"

// CommentType classifies discussion entries.
type CommentType string

const (
	CommentTypeGeneral    CommentType = "General"
	CommentTypeIssue      CommentType = "Issue"
	CommentTypeResolution CommentType = "Resolution"
	CommentTypeQuestion   CommentType = "Question"
)

// Comment is a discussion entry on an amendment. ParentID forms a reply
// tree; replies are materialized through a separate children index, never
// through live back-references.
type Comment struct {
	ID          string
	AmendmentID string
	AuthorID    string
	ParentID    *string
	Text        string
	Type        CommentType
	Edited      bool
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// CommentThread groups a comment with its direct replies.
type CommentThread struct {
	Comment Comment
	Replies []Comment
}

// Mention records an @-reference to a collaborator inside a comment.
// Created only as a side effect of comment creation, never updated.
type Mention struct {
	ID             string
	CommentID      string
	CollaboratorID string
	MentionedByID  string
	CreatedAt      time.Time
}

// Reaction is an emoji annotation on a comment. At most one row exists per
// (comment, collaborator, emoji) triple; presence is the toggle state.
type Reaction struct {
	ID             string
	CommentID      string
	CollaboratorID string
	Emoji          string
	CreatedAt      time.Time
}
