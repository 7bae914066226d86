package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/events"
	"github.com/spec-kit/amendment-service/internal/mail"
	"github.com/spec-kit/amendment-service/internal/persistence"
	"github.com/spec-kit/amendment-service/internal/repository"
	apperrors "github.com/spec-kit/amendment-service/pkg/util"
)

// broadcastCategories fan out to the amendment's active watchers in addition
// to any direct recipients. Every other category is delivered only to the
// recipients named by the caller.
var broadcastCategories = map[domain.NotificationCategory]bool{
	domain.NotificationComment:       true,
	domain.NotificationStatusChanged: true,
}

// NotificationService creates in-app notifications inside the caller's unit
// of work and delivers emails after commit.
type NotificationService struct {
	store     repository.TxManager
	redis     *persistence.Redis
	mailer    mail.Sender
	templates mail.Templates
	logger    *zap.Logger
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Store     repository.TxManager
	Redis     *persistence.Redis
	Mailer    mail.Sender
	Templates mail.Templates
	Logger    *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		store:     deps.Store,
		redis:     deps.Redis,
		mailer:    deps.Mailer,
		templates: deps.Templates,
		logger:    deps.Logger,
	}
}

// FanOutInput describes one notification fan-out.
type FanOutInput struct {
	Amendment        *domain.Amendment
	Category         domain.NotificationCategory
	Title            string
	Message          string
	ActorID          *string
	DirectRecipients []string
	DefectID         *string
}

// FanOut creates notification rows for every eligible recipient using the
// caller's transaction-scoped repositories. The actor never notifies
// themselves, watcher preference flags are honored, and each recipient gets
// at most one row per fan-out.
func (s *NotificationService) FanOut(ctx context.Context, r *repository.Repos, in FanOutInput) ([]domain.Notification, error) {
	seen := make(map[string]struct{})
	recipients := make([]string, 0, len(in.DirectRecipients))

	add := func(id string) {
		if id == "" {
			return
		}
		if in.ActorID != nil && id == *in.ActorID {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}

	for _, id := range in.DirectRecipients {
		add(id)
	}

	if broadcastCategories[in.Category] && in.Amendment != nil {
		watchers, err := r.Watchers.ListActive(ctx, in.Amendment.ID)
		if err != nil {
			return nil, err
		}
		for i := range watchers {
			if !watchers[i].WantsCategory(in.Category) {
				continue
			}
			add(watchers[i].CollaboratorID)
		}
	}

	notifications := make([]domain.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		n := domain.Notification{
			ID:          uuid.NewString(),
			RecipientID: recipientID,
			Category:    in.Category,
			Title:       in.Title,
			Message:     in.Message,
			DefectID:    in.DefectID,
			CreatedAt:   time.Now().UTC(),
		}
		if in.Amendment != nil {
			n.AmendmentID = &in.Amendment.ID
		}
		if err := r.Notifications.Create(ctx, &n); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	s.redis.InvalidateUnreadCount(ctx, recipients...)
	return notifications, nil
}

// ListNotifications returns a recipient's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, recipientID string, filter repository.NotificationFilter) ([]domain.Notification, error) {
	return s.store.View().Notifications.ListByRecipient(ctx, recipientID, filter)
}

// UnreadCount returns the number of unread notifications, served from the
// Redis cache when fresh.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	if count, hit := s.redis.GetUnreadCount(ctx, recipientID); hit {
		return count, nil
	}
	count, err := s.store.View().Notifications.UnreadCount(ctx, recipientID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.redis.SetUnreadCount(ctx, recipientID, count)
	return count, nil
}

// MarkRead marks one notification read for its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	err := s.store.View().Notifications.MarkRead(ctx, notificationID, recipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return apperrors.MapError(err)
	}
	s.redis.InvalidateUnreadCount(ctx, recipientID)
	return nil
}

// MarkAllRead marks every unread notification read and returns the count.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	count, err := s.store.View().Notifications.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.redis.InvalidateUnreadCount(ctx, recipientID)
	return count, nil
}

// RegisterHandlers subscribes email delivery to the events that carry
// notifications.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventQAAssigned,
		events.EventQAStatusChanged,
		events.EventDefectCreated,
		events.EventTestExecuted,
	} {
		dispatcher.Subscribe(eventType, s.DeliverEmails)
	}
}

// DeliverEmails sends one email per notification attached to the event.
// Delivery is best effort: failures are logged and the in-app notification
// stays unsent.
func (s *NotificationService) DeliverEmails(ctx context.Context, event events.Event) error {
	if !s.mailer.Enabled() || len(event.Notifications) == 0 {
		return nil
	}

	view := s.store.View()
	for i := range event.Notifications {
		n := &event.Notifications[i]
		msg, ok := s.renderEmail(ctx, view, event, n)
		if !ok {
			continue
		}
		if !s.mailer.Send(ctx, msg) {
			continue
		}
		if err := view.Notifications.MarkEmailSent(ctx, n.ID); err != nil {
			s.logger.Warn("mark email sent failed", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *NotificationService) renderEmail(ctx context.Context, view *repository.Repos, event events.Event, n *domain.Notification) (mail.Message, bool) {
	recipient, err := view.Collaborators.GetByID(ctx, n.RecipientID)
	if err != nil || recipient.Email == nil || *recipient.Email == "" {
		return mail.Message{}, false
	}

	var amendment *domain.Amendment
	if n.AmendmentID != nil {
		amendment, err = view.Amendments.GetByID(ctx, *n.AmendmentID)
		if err != nil {
			return mail.Message{}, false
		}
	}

	var msg mail.Message
	switch n.Category {
	case domain.NotificationQAAssigned:
		if amendment == nil {
			return mail.Message{}, false
		}
		msg = s.templates.QAAssigned(recipient.Name, amendment.Reference, amendment.Description)
	case domain.NotificationStatusChanged, domain.NotificationTestFailed:
		payload, ok := event.Payload.(events.QAStatusChangedPayload)
		if !ok || amendment == nil {
			return mail.Message{}, false
		}
		msg = s.templates.StatusChanged(recipient.Name, amendment.Reference,
			string(payload.OldStatus), string(payload.NewStatus))
	case domain.NotificationDefectCreated:
		if n.DefectID == nil || amendment == nil {
			return mail.Message{}, false
		}
		defect, err := view.Defects.GetByID(ctx, *n.DefectID)
		if err != nil {
			return mail.Message{}, false
		}
		msg = s.templates.DefectCreated(recipient.Name, defect.Number, defect.Title,
			string(defect.Severity), amendment.Reference)
	default:
		return mail.Message{}, false
	}

	msg.Recipients = []string{*recipient.Email}
	return msg, true
}

// DispatchOverdueSweep finds every amendment past its QA due date in a
// non-terminal status, records one Overdue notification per amendment for
// its tester, and sends each tester a single digest email. Returns the
// number of overdue amendments swept.
func (s *NotificationService) DispatchOverdueSweep(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	overdue, err := s.store.View().Amendments.ListOverdue(ctx, now)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	byTester := make(map[string][]domain.Amendment)
	for _, amendment := range overdue {
		if amendment.TesterID == nil {
			continue
		}
		byTester[*amendment.TesterID] = append(byTester[*amendment.TesterID], amendment)
	}

	swept := 0
	for testerID, amendments := range byTester {
		var created []domain.Notification
		err := s.store.Do(ctx, func(ctx context.Context, r *repository.Repos) error {
			for i := range amendments {
				notifications, err := s.FanOut(ctx, r, FanOutInput{
					Amendment: &amendments[i],
					Category:  domain.NotificationOverdue,
					Title:     fmt.Sprintf("Overdue: %s", amendments[i].Reference),
					Message: fmt.Sprintf("QA for %s is past its due date (%s)",
						amendments[i].Reference, dueLabel(amendments[i].DueAt)),
					DirectRecipients: []string{testerID},
				})
				if err != nil {
					return err
				}
				created = append(created, notifications...)
			}
			return nil
		})
		if err != nil {
			s.logger.Error("overdue sweep failed for tester",
				zap.String("tester_id", testerID), zap.Error(err))
			continue
		}
		swept += len(amendments)
		s.sendOverdueDigest(ctx, testerID, amendments, created)
	}
	return swept, nil
}

func (s *NotificationService) sendOverdueDigest(ctx context.Context, testerID string, amendments []domain.Amendment, created []domain.Notification) {
	if !s.mailer.Enabled() {
		return
	}
	view := s.store.View()
	tester, err := view.Collaborators.GetByID(ctx, testerID)
	if err != nil || tester.Email == nil || *tester.Email == "" {
		return
	}

	items := make([]mail.OverdueItem, 0, len(amendments))
	for _, amendment := range amendments {
		item := mail.OverdueItem{
			Reference:   amendment.Reference,
			Description: amendment.Description,
		}
		if amendment.DueAt != nil {
			item.DueAt = *amendment.DueAt
		}
		items = append(items, item)
	}

	msg := s.templates.Overdue(tester.Name, items)
	msg.Recipients = []string{*tester.Email}
	if !s.mailer.Send(ctx, msg) {
		return
	}
	for i := range created {
		if err := view.Notifications.MarkEmailSent(ctx, created[i].ID); err != nil {
			s.logger.Warn("mark email sent failed", zap.String("notification_id", created[i].ID), zap.Error(err))
		}
	}
}

func dueLabel(due *time.Time) string {
	if due == nil {
		return "unknown"
	}
	return due.Format("2006-01-02 15:04")
}
