package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/events"
	"github.com/spec-kit/amendment-service/internal/mail"
	"github.com/spec-kit/amendment-service/internal/repository"
)

// recordingMailer captures outbound messages for assertions.
type recordingMailer struct {
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) bool {
	m.sent = append(m.sent, msg)
	return true
}

func (m *recordingMailer) Enabled() bool { return true }

func newNotifierEnv(mailer mail.Sender) (*fakeStore, *NotificationService) {
	store := newFakeStore()
	notifier := NewNotificationService(NotificationDependencies{
		Store:     store,
		Mailer:    mailer,
		Templates: mail.Templates{BaseURL: "http://qa.local"},
		Logger:    zap.NewNop(),
	})
	return store, notifier
}

func TestFanOutBroadcastHonorsPreferencesAndExcludesActor(t *testing.T) {
	store, notifier := newNotifierEnv(mail.NopSender{})
	ctx := context.Background()
	actor := seedCollaborator(store.db, "maria", true)
	listener := seedCollaborator(store.db, "jon", true)
	muted := seedCollaborator(store.db, "petra", true)
	id := seedAmendment(store.db, domain.Amendment{
		Reference: "AMD-1", Description: "x", QAStatus: domain.QAStatusNotStarted,
	})
	seedWatcher(store.db, id, actor)
	seedWatcher(store.db, id, listener)
	seedWatcher(store.db, id, muted)
	w := store.db.watchers[watcherKey(id, muted)]
	w.NotifyComments = false
	store.db.watchers[watcherKey(id, muted)] = w

	amendment := store.db.amendments[id]
	created, err := notifier.FanOut(ctx, store.View(), FanOutInput{
		Amendment: &amendment,
		Category:  domain.NotificationComment,
		Title:     "New comment on AMD-1",
		Message:   "looks good",
		ActorID:   &actor,
	})
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, listener, created[0].RecipientID)
	require.NotNil(t, created[0].AmendmentID)
	assert.Equal(t, id, *created[0].AmendmentID)
}

func TestFanOutDedupesDirectAndBroadcastRecipients(t *testing.T) {
	store, notifier := newNotifierEnv(mail.NopSender{})
	ctx := context.Background()
	tester := seedCollaborator(store.db, "jon", true)
	id := seedAmendment(store.db, domain.Amendment{
		Reference: "AMD-2", Description: "x", QAStatus: domain.QAStatusInTesting,
	})
	seedWatcher(store.db, id, tester)

	amendment := store.db.amendments[id]
	created, err := notifier.FanOut(ctx, store.View(), FanOutInput{
		Amendment:        &amendment,
		Category:         domain.NotificationStatusChanged,
		Title:            "QA Status Changed: AMD-2",
		Message:          "Assigned → In Testing",
		DirectRecipients: []string{tester},
	})
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestFanOutDirectOnlyCategorySkipsWatchers(t *testing.T) {
	store, notifier := newNotifierEnv(mail.NopSender{})
	ctx := context.Background()
	watcher := seedCollaborator(store.db, "maria", true)
	tester := seedCollaborator(store.db, "jon", true)
	id := seedAmendment(store.db, domain.Amendment{
		Reference: "AMD-3", Description: "x", QAStatus: domain.QAStatusNotStarted,
	})
	seedWatcher(store.db, id, watcher)

	amendment := store.db.amendments[id]
	created, err := notifier.FanOut(ctx, store.View(), FanOutInput{
		Amendment:        &amendment,
		Category:         domain.NotificationQAAssigned,
		Title:            "QA Assignment: AMD-3",
		Message:          "You have been assigned to test AMD-3",
		DirectRecipients: []string{tester},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, tester, created[0].RecipientID)
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	store, notifier := newNotifierEnv(mail.NopSender{})
	ctx := context.Background()
	recipient := seedCollaborator(store.db, "jon", true)

	first := domain.Notification{
		ID: uuid.NewString(), RecipientID: recipient,
		Category: domain.NotificationComment, Title: "a", CreatedAt: time.Now().UTC(),
	}
	second := domain.Notification{
		ID: uuid.NewString(), RecipientID: recipient,
		Category: domain.NotificationOverdue, Title: "b", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.View().Notifications.Create(ctx, &first))
	require.NoError(t, store.View().Notifications.Create(ctx, &second))

	count, err := notifier.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, notifier.MarkRead(ctx, first.ID, recipient))
	count, err = notifier.UnreadCount(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = notifier.MarkRead(ctx, first.ID, recipient)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err), "already read")

	err = notifier.MarkRead(ctx, second.ID, "someone-else")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))

	marked, err := notifier.MarkAllRead(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	unread := false
	remaining, err := notifier.ListNotifications(ctx, recipient, notificationUnreadFilter(&unread))
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeliverEmailsRendersAndMarksSent(t *testing.T) {
	mailer := &recordingMailer{}
	store, notifier := newNotifierEnv(mailer)
	ctx := context.Background()
	tester := seedCollaborator(store.db, "jon", true)
	id := seedAmendment(store.db, domain.Amendment{
		Reference: "AMD-4", Description: "Payment export", QAStatus: domain.QAStatusAssigned,
	})

	notification := domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: tester,
		Category:    domain.NotificationQAAssigned,
		Title:       "QA Assignment: AMD-4",
		AmendmentID: &id,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.View().Notifications.Create(ctx, &notification))

	err := notifier.DeliverEmails(ctx, events.Event{
		ID:            uuid.NewString(),
		Type:          events.EventQAAssigned,
		AmendmentID:   id,
		Timestamp:     time.Now().UTC(),
		Payload:       events.QAAssignedPayload{TesterID: &tester},
		Notifications: []domain.Notification{notification},
	})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"jon@example.com"}, mailer.sent[0].Recipients)
	assert.Contains(t, mailer.sent[0].Subject, "AMD-4")
	assert.True(t, store.db.notifications[notification.ID].EmailSent)
}

func TestDeliverEmailsSkipsRecipientsWithoutEmail(t *testing.T) {
	mailer := &recordingMailer{}
	store, notifier := newNotifierEnv(mailer)
	ctx := context.Background()
	tester := seedCollaborator(store.db, "jon", true)
	c := store.db.collaborators[tester]
	c.Email = nil
	store.db.collaborators[tester] = c
	id := seedAmendment(store.db, domain.Amendment{
		Reference: "AMD-5", Description: "x", QAStatus: domain.QAStatusAssigned,
	})

	notification := domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: tester,
		Category:    domain.NotificationQAAssigned,
		AmendmentID: &id,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.View().Notifications.Create(ctx, &notification))

	err := notifier.DeliverEmails(ctx, events.Event{
		Type:          events.EventQAAssigned,
		AmendmentID:   id,
		Notifications: []domain.Notification{notification},
	})
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
	assert.False(t, store.db.notifications[notification.ID].EmailSent)
}

func TestDispatchOverdueSweepGroupsPerTester(t *testing.T) {
	mailer := &recordingMailer{}
	store, notifier := newNotifierEnv(mailer)
	ctx := context.Background()
	first := seedCollaborator(store.db, "jon", true)
	second := seedCollaborator(store.db, "petra", true)
	past := time.Now().UTC().Add(-3 * time.Hour)

	seedAmendment(store.db, domain.Amendment{
		Reference: "AMD-10", Description: "a", QAStatus: domain.QAStatusInTesting,
		TesterID: &first, DueAt: &past,
	})
	seedAmendment(store.db, domain.Amendment{
		Reference: "AMD-11", Description: "b", QAStatus: domain.QAStatusAssigned,
		TesterID: &first, DueAt: &past,
	})
	seedAmendment(store.db, domain.Amendment{
		Reference: "AMD-12", Description: "c", QAStatus: domain.QAStatusBlocked,
		TesterID: &second, DueAt: &past,
	})
	// Overdue but unassigned: swept over silently, nobody to notify.
	seedAmendment(store.db, domain.Amendment{
		Reference: "AMD-13", Description: "d", QAStatus: domain.QAStatusNotStarted,
		DueAt: &past,
	})

	swept, err := notifier.DispatchOverdueSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, swept)

	overdue := notificationsByCategory(store.db, domain.NotificationOverdue)
	require.Len(t, overdue, 3)
	counts := map[string]int{}
	for _, n := range overdue {
		counts[n.RecipientID]++
		assert.True(t, n.EmailSent)
	}
	assert.Equal(t, map[string]int{first: 2, second: 1}, counts)

	// One digest per tester, not one email per amendment.
	require.Len(t, mailer.sent, 2)
}

func notificationUnreadFilter(read *bool) (filter repository.NotificationFilter) {
	filter.Read = read
	return filter
}
