package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/amendment-service/internal/domain"
	"github.com/spec-kit/amendment-service/internal/repository"
)

// memDB is shared in-memory state behind the fake repositories. Values are
// stored by value and returned as copies so callers observe snapshot reads,
// the same way row scans behave.
type memDB struct {
	amendments    map[string]domain.Amendment
	collaborators map[string]domain.Collaborator
	comments      map[string]domain.Comment
	mentions      []domain.Mention
	watchers      map[string]domain.Watcher
	reactions     map[string]domain.Reaction
	notifications map[string]domain.Notification
	history       []domain.HistoryEntry
	defects       map[string]domain.Defect
	executions    map[string]domain.TestExecution
	defectSeq     int
}

func newMemDB() *memDB {
	return &memDB{
		amendments:    make(map[string]domain.Amendment),
		collaborators: make(map[string]domain.Collaborator),
		comments:      make(map[string]domain.Comment),
		watchers:      make(map[string]domain.Watcher),
		reactions:     make(map[string]domain.Reaction),
		notifications: make(map[string]domain.Notification),
		defects:       make(map[string]domain.Defect),
		executions:    make(map[string]domain.TestExecution),
	}
}

func (db *memDB) clone() *memDB {
	out := newMemDB()
	for k, v := range db.amendments {
		out.amendments[k] = v
	}
	for k, v := range db.collaborators {
		out.collaborators[k] = v
	}
	for k, v := range db.comments {
		out.comments[k] = v
	}
	out.mentions = append([]domain.Mention(nil), db.mentions...)
	for k, v := range db.watchers {
		out.watchers[k] = v
	}
	for k, v := range db.reactions {
		out.reactions[k] = v
	}
	for k, v := range db.notifications {
		out.notifications[k] = v
	}
	out.history = append([]domain.HistoryEntry(nil), db.history...)
	for k, v := range db.defects {
		out.defects[k] = v
	}
	for k, v := range db.executions {
		out.executions[k] = v
	}
	out.defectSeq = db.defectSeq
	return out
}

func (db *memDB) restore(from *memDB) {
	*db = *from
}

func watcherKey(amendmentID, collaboratorID string) string {
	return amendmentID + "|" + collaboratorID
}

func reactionKey(commentID, collaboratorID, emoji string) string {
	return commentID + "|" + collaboratorID + "|" + emoji
}

// fakeStore implements repository.TxManager over memDB. Do snapshots state
// and restores it when fn fails, mirroring transaction rollback.
type fakeStore struct {
	db    *memDB
	repos *repository.Repos
}

func newFakeStore() *fakeStore {
	db := newMemDB()
	return &fakeStore{db: db, repos: &repository.Repos{
		Amendments:    &fakeAmendmentRepo{db: db},
		Collaborators: &fakeCollaboratorRepo{db: db},
		Comments:      &fakeCommentRepo{db: db},
		Mentions:      &fakeMentionRepo{db: db},
		Watchers:      &fakeWatcherRepo{db: db},
		Reactions:     &fakeReactionRepo{db: db},
		Notifications: &fakeNotificationRepo{db: db},
		History:       &fakeHistoryRepo{db: db},
		Defects:       &fakeDefectRepo{db: db},
		Executions:    &fakeExecutionRepo{db: db},
	}}
}

func (s *fakeStore) View() *repository.Repos {
	return s.repos
}

func (s *fakeStore) Do(ctx context.Context, fn func(ctx context.Context, r *repository.Repos) error) error {
	snapshot := s.db.clone()
	if err := fn(ctx, s.repos); err != nil {
		s.db.restore(snapshot)
		return err
	}
	return nil
}

type fakeAmendmentRepo struct{ db *memDB }

func (r *fakeAmendmentRepo) Create(_ context.Context, a *domain.Amendment) error {
	r.db.amendments[a.ID] = *a
	return nil
}

func (r *fakeAmendmentRepo) Update(_ context.Context, a *domain.Amendment) error {
	if _, ok := r.db.amendments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	r.db.amendments[a.ID] = *a
	return nil
}

func (r *fakeAmendmentRepo) GetByID(_ context.Context, id string) (*domain.Amendment, error) {
	a, ok := r.db.amendments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *fakeAmendmentRepo) GetByReference(_ context.Context, reference string) (*domain.Amendment, error) {
	for _, a := range r.db.amendments {
		if a.Reference == reference {
			out := a
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAmendmentRepo) List(_ context.Context, filter repository.AmendmentFilter) ([]domain.Amendment, error) {
	var out []domain.Amendment
	for _, a := range r.db.amendments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

func (r *fakeAmendmentRepo) ListOverdue(_ context.Context, now time.Time) ([]domain.Amendment, error) {
	var out []domain.Amendment
	for _, a := range r.db.amendments {
		if a.Overdue(now) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

func (r *fakeAmendmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.db.amendments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.amendments, id)
	return nil
}

type fakeCollaboratorRepo struct{ db *memDB }

func (r *fakeCollaboratorRepo) Create(_ context.Context, c *domain.Collaborator) error {
	r.db.collaborators[c.ID] = *c
	return nil
}

func (r *fakeCollaboratorRepo) Update(_ context.Context, c *domain.Collaborator) error {
	if _, ok := r.db.collaborators[c.ID]; !ok {
		return repository.ErrNotFound
	}
	r.db.collaborators[c.ID] = *c
	return nil
}

func (r *fakeCollaboratorRepo) GetByID(_ context.Context, id string) (*domain.Collaborator, error) {
	c, ok := r.db.collaborators[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *fakeCollaboratorRepo) GetByUsername(_ context.Context, username string) (*domain.Collaborator, error) {
	for _, c := range r.db.collaborators {
		if c.Username == username {
			out := c
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCollaboratorRepo) List(_ context.Context, activeOnly bool) ([]domain.Collaborator, error) {
	var out []domain.Collaborator
	for _, c := range r.db.collaborators {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCollaboratorRepo) ResolveMention(_ context.Context, token string) (*domain.Collaborator, error) {
	var candidates []domain.Collaborator
	for _, c := range r.db.collaborators {
		if !c.Active {
			continue
		}
		if c.Username == token || strings.Contains(strings.ToLower(c.Name), strings.ToLower(token)) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		iExact := candidates[i].Username == token
		jExact := candidates[j].Username == token
		if iExact != jExact {
			return iExact
		}
		return candidates[i].ID < candidates[j].ID
	})
	out := candidates[0]
	return &out, nil
}

type fakeCommentRepo struct{ db *memDB }

func (r *fakeCommentRepo) Create(_ context.Context, c *domain.Comment) error {
	r.db.comments[c.ID] = *c
	return nil
}

func (r *fakeCommentRepo) Update(_ context.Context, c *domain.Comment) error {
	if _, ok := r.db.comments[c.ID]; !ok {
		return repository.ErrNotFound
	}
	r.db.comments[c.ID] = *c
	return nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	c, ok := r.db.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *fakeCommentRepo) ListByAmendment(_ context.Context, amendmentID string, limit, offset int) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range r.db.comments {
		if c.AmendmentID == amendmentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeCommentRepo) CountByAmendment(_ context.Context, amendmentID string) (int, error) {
	count := 0
	for _, c := range r.db.comments {
		if c.AmendmentID == amendmentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.db.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.comments, id)
	return nil
}

type fakeMentionRepo struct{ db *memDB }

func (r *fakeMentionRepo) Create(_ context.Context, m *domain.Mention) error {
	r.db.mentions = append(r.db.mentions, *m)
	return nil
}

func (r *fakeMentionRepo) ListByComment(_ context.Context, commentID string) ([]domain.Mention, error) {
	var out []domain.Mention
	for _, m := range r.db.mentions {
		if m.CommentID == commentID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeWatcherRepo struct{ db *memDB }

func (r *fakeWatcherRepo) Upsert(_ context.Context, amendmentID, collaboratorID string, reason domain.WatchReason) (*domain.Watcher, error) {
	key := watcherKey(amendmentID, collaboratorID)
	if existing, ok := r.db.watchers[key]; ok {
		existing.Watching = true
		r.db.watchers[key] = existing
		return &existing, nil
	}
	w := domain.Watcher{
		ID:                  uuid.NewString(),
		AmendmentID:         amendmentID,
		CollaboratorID:      collaboratorID,
		Reason:              reason,
		Watching:            true,
		NotifyComments:      true,
		NotifyStatusChanges: true,
		NotifyMentions:      true,
		CreatedAt:           time.Now().UTC(),
	}
	r.db.watchers[key] = w
	return &w, nil
}

func (r *fakeWatcherRepo) Mute(_ context.Context, amendmentID, collaboratorID string) error {
	key := watcherKey(amendmentID, collaboratorID)
	w, ok := r.db.watchers[key]
	if !ok || !w.Watching {
		return repository.ErrNotFound
	}
	w.Watching = false
	r.db.watchers[key] = w
	return nil
}

func (r *fakeWatcherRepo) Get(_ context.Context, amendmentID, collaboratorID string) (*domain.Watcher, error) {
	w, ok := r.db.watchers[watcherKey(amendmentID, collaboratorID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *fakeWatcherRepo) ListActive(_ context.Context, amendmentID string) ([]domain.Watcher, error) {
	var out []domain.Watcher
	for _, w := range r.db.watchers {
		if w.AmendmentID == amendmentID && w.Watching {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeWatcherRepo) IsWatching(_ context.Context, amendmentID, collaboratorID string) (bool, error) {
	w, ok := r.db.watchers[watcherKey(amendmentID, collaboratorID)]
	return ok && w.Watching, nil
}

func (r *fakeWatcherRepo) UpdatePreferences(_ context.Context, watcher *domain.Watcher) error {
	key := watcherKey(watcher.AmendmentID, watcher.CollaboratorID)
	if _, ok := r.db.watchers[key]; !ok {
		return repository.ErrNotFound
	}
	r.db.watchers[key] = *watcher
	return nil
}

type fakeReactionRepo struct{ db *memDB }

func (r *fakeReactionRepo) Toggle(_ context.Context, commentID, collaboratorID, emoji string) (bool, *domain.Reaction, error) {
	key := reactionKey(commentID, collaboratorID, emoji)
	if _, ok := r.db.reactions[key]; ok {
		delete(r.db.reactions, key)
		return false, nil, nil
	}
	reaction := domain.Reaction{
		ID:             uuid.NewString(),
		CommentID:      commentID,
		CollaboratorID: collaboratorID,
		Emoji:          emoji,
		CreatedAt:      time.Now().UTC(),
	}
	r.db.reactions[key] = reaction
	return true, &reaction, nil
}

func (r *fakeReactionRepo) ListByComment(_ context.Context, commentID string) ([]domain.Reaction, error) {
	var out []domain.Reaction
	for _, reaction := range r.db.reactions {
		if reaction.CommentID == commentID {
			out = append(out, reaction)
		}
	}
	return out, nil
}

func (r *fakeReactionRepo) Summary(_ context.Context, commentID string) (map[string]int, error) {
	summary := make(map[string]int)
	for _, reaction := range r.db.reactions {
		if reaction.CommentID == commentID {
			summary[reaction.Emoji]++
		}
	}
	return summary, nil
}

type fakeNotificationRepo struct{ db *memDB }

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.db.notifications[n.ID] = *n
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID string, filter repository.NotificationFilter) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.db.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if filter.Read != nil && n.Read != *filter.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeNotificationRepo) UnreadCount(_ context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range r.db.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, recipientID string) error {
	n, ok := r.db.notifications[id]
	if !ok || n.RecipientID != recipientID || n.Read {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	n.Read = true
	n.ReadAt = &now
	r.db.notifications[id] = n
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, recipientID string) (int, error) {
	now := time.Now().UTC()
	count := 0
	for id, n := range r.db.notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			n.ReadAt = &now
			r.db.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkEmailSent(_ context.Context, id string) error {
	n, ok := r.db.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.EmailSent = true
	r.db.notifications[id] = n
	return nil
}

type fakeHistoryRepo struct{ db *memDB }

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.HistoryEntry) error {
	r.db.history = append(r.db.history, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByAmendment(_ context.Context, amendmentID string, limit int) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	for _, entry := range r.db.history {
		if entry.AmendmentID == amendmentID {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeDefectRepo struct{ db *memDB }

func (r *fakeDefectRepo) Create(_ context.Context, d *domain.Defect) error {
	r.db.defects[d.ID] = *d
	return nil
}

func (r *fakeDefectRepo) Update(_ context.Context, d *domain.Defect) error {
	if _, ok := r.db.defects[d.ID]; !ok {
		return repository.ErrNotFound
	}
	r.db.defects[d.ID] = *d
	return nil
}

func (r *fakeDefectRepo) GetByID(_ context.Context, id string) (*domain.Defect, error) {
	d, ok := r.db.defects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *fakeDefectRepo) List(_ context.Context, filter repository.DefectFilter) ([]domain.Defect, error) {
	var out []domain.Defect
	for _, d := range r.db.defects {
		if filter.AmendmentID != nil && d.AmendmentID != *filter.AmendmentID {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeDefectRepo) NextNumber(_ context.Context) (string, error) {
	r.db.defectSeq++
	return fmt.Sprintf("DEF-%03d", r.db.defectSeq), nil
}

func (r *fakeDefectRepo) CountOpenByAmendment(_ context.Context, amendmentID string) (int, error) {
	count := 0
	for _, d := range r.db.defects {
		if d.AmendmentID != amendmentID {
			continue
		}
		switch d.Status {
		case domain.DefectStatusResolved, domain.DefectStatusVerified, domain.DefectStatusClosed:
		default:
			count++
		}
	}
	return count, nil
}

type fakeExecutionRepo struct{ db *memDB }

func (r *fakeExecutionRepo) Create(_ context.Context, e *domain.TestExecution) error {
	r.db.executions[e.ID] = *e
	return nil
}

func (r *fakeExecutionRepo) GetByID(_ context.Context, id string) (*domain.TestExecution, error) {
	e, ok := r.db.executions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *fakeExecutionRepo) ListByAmendment(_ context.Context, amendmentID string) ([]domain.TestExecution, error) {
	var out []domain.TestExecution
	for _, e := range r.db.executions {
		if e.AmendmentID == amendmentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
