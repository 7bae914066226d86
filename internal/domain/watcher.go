package domain

import "time"

// WatchReason records why a collaborator is subscribed to an amendment.
type WatchReason string

const (
	WatchReasonManual       WatchReason = "Manual"
	WatchReasonMentioned    WatchReason = "Mentioned"
	WatchReasonAssigned     WatchReason = "Assigned"
	WatchReasonCreated      WatchReason = "Created"
	WatchReasonParticipated WatchReason = "Participated"
)

// Watcher subscribes a collaborator to amendment updates. At most one row
// exists per (amendment, collaborator) pair; Watching false is a mute, not a
// delete, so preference flags survive re-subscription.
type Watcher struct {
	ID             string
	AmendmentID    string
	CollaboratorID string
	Reason         WatchReason
	Watching       bool

	NotifyComments      bool
	NotifyStatusChanges bool
	NotifyMentions      bool

	CreatedAt time.Time
}

// WantsCategory reports whether the watcher's preference flags admit the
// given notification category.
func (w *Watcher) WantsCategory(category NotificationCategory) bool {
	switch category {
	case NotificationComment:
		return w.NotifyComments
	case NotificationStatusChanged:
		return w.NotifyStatusChanges
	case NotificationMention:
		return w.NotifyMentions
	}
	return true
}
