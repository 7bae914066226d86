// Package repository defines persistence contracts for the QA tracking
// domain and their pgx implementations. Repositories run against a Querier,
// which both the shared pool and an open transaction satisfy, so the same
// implementation serves plain reads and transactional units of work.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/amendment-service/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("resource not found")

// Querier is the subset of pgx behavior repositories need. *pgxpool.Pool and
// pgx.Tx both implement it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AmendmentFilter captures listing parameters.
type AmendmentFilter struct {
	QAStatuses []domain.QAStatus
	TesterID   *string
	Version    *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// AmendmentRepository encapsulates amendment persistence.
type AmendmentRepository interface {
	Create(ctx context.Context, amendment *domain.Amendment) error
	Update(ctx context.Context, amendment *domain.Amendment) error
	GetByID(ctx context.Context, id string) (*domain.Amendment, error)
	GetByReference(ctx context.Context, reference string) (*domain.Amendment, error)
	List(ctx context.Context, filter AmendmentFilter) ([]domain.Amendment, error)
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Amendment, error)
	Delete(ctx context.Context, id string) error
}

// CollaboratorRepository encapsulates collaborator persistence and mention
// resolution.
type CollaboratorRepository interface {
	Create(ctx context.Context, collaborator *domain.Collaborator) error
	Update(ctx context.Context, collaborator *domain.Collaborator) error
	GetByID(ctx context.Context, id string) (*domain.Collaborator, error)
	GetByUsername(ctx context.Context, username string) (*domain.Collaborator, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Collaborator, error)
	// ResolveMention matches an @-token against active collaborators: an
	// exact username match wins, otherwise a case-insensitive substring
	// match on the display name, ordered by id so ambiguity is
	// deterministic. ErrNotFound when nothing matches.
	ResolveMention(ctx context.Context, token string) (*domain.Collaborator, error)
}

// CommentRepository encapsulates comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Update(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByAmendment(ctx context.Context, amendmentID string, limit, offset int) ([]domain.Comment, error)
	CountByAmendment(ctx context.Context, amendmentID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// MentionRepository stores mention records.
type MentionRepository interface {
	Create(ctx context.Context, mention *domain.Mention) error
	ListByComment(ctx context.Context, commentID string) ([]domain.Mention, error)
}

// WatcherRepository maintains per-amendment subscriptions. Upsert is guarded
// by the (amendment, collaborator) uniqueness constraint rather than
// read-then-write, so concurrent retries cannot duplicate rows.
type WatcherRepository interface {
	// Upsert inserts a watcher or reactivates the existing row, returning
	// it with its original identity, reason and preference flags intact.
	Upsert(ctx context.Context, amendmentID, collaboratorID string, reason domain.WatchReason) (*domain.Watcher, error)
	// Mute sets is-watching false. The row is never deleted.
	Mute(ctx context.Context, amendmentID, collaboratorID string) error
	Get(ctx context.Context, amendmentID, collaboratorID string) (*domain.Watcher, error)
	ListActive(ctx context.Context, amendmentID string) ([]domain.Watcher, error)
	IsWatching(ctx context.Context, amendmentID, collaboratorID string) (bool, error)
	UpdatePreferences(ctx context.Context, watcher *domain.Watcher) error
}

// ReactionRepository maintains emoji reactions with toggle-by-presence
// semantics.
type ReactionRepository interface {
	// Toggle removes the (comment, collaborator, emoji) row if present and
	// reports added=false; otherwise inserts it and reports added=true.
	Toggle(ctx context.Context, commentID, collaboratorID, emoji string) (bool, *domain.Reaction, error)
	ListByComment(ctx context.Context, commentID string) ([]domain.Reaction, error)
	Summary(ctx context.Context, commentID string) (map[string]int, error)
}

// NotificationFilter captures notification listing parameters.
type NotificationFilter struct {
	Read   *bool
	Limit  int
	Offset int
}

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	MarkEmailSent(ctx context.Context, id string) error
}

// HistoryRepository stores the append-only audit trail.
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.HistoryEntry) error
	ListByAmendment(ctx context.Context, amendmentID string, limit int) ([]domain.HistoryEntry, error)
}

// DefectFilter captures defect listing parameters.
type DefectFilter struct {
	AmendmentID  *string
	Status       *domain.DefectStatus
	Severity     *domain.DefectSeverity
	AssignedToID *string
	Limit        int
	Offset       int
}

// DefectRepository encapsulates defect persistence.
type DefectRepository interface {
	Create(ctx context.Context, defect *domain.Defect) error
	Update(ctx context.Context, defect *domain.Defect) error
	GetByID(ctx context.Context, id string) (*domain.Defect, error)
	List(ctx context.Context, filter DefectFilter) ([]domain.Defect, error)
	NextNumber(ctx context.Context) (string, error)
	CountOpenByAmendment(ctx context.Context, amendmentID string) (int, error)
}

// ExecutionRepository records test execution results.
type ExecutionRepository interface {
	Create(ctx context.Context, execution *domain.TestExecution) error
	GetByID(ctx context.Context, id string) (*domain.TestExecution, error)
	ListByAmendment(ctx context.Context, amendmentID string) ([]domain.TestExecution, error)
}
