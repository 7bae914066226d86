package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/amendment-service/internal/domain"
)

type watcherRepository struct {
	db Querier
}

const watcherColumns = `watcher_id, amendment_id, collaborator_id, watch_reason, is_watching,
       notify_comments, notify_status_changes, notify_mentions, created_at`

// Upsert relies on the (amendment_id, collaborator_id) unique constraint: a
// new pair inserts with the given reason, an existing pair only flips
// is_watching back on, retaining its original reason and preferences.
func (r *watcherRepository) Upsert(ctx context.Context, amendmentID, collaboratorID string, reason domain.WatchReason) (*domain.Watcher, error) {
	const query = `
        INSERT INTO amendment_watchers (amendment_id, collaborator_id, watch_reason)
        VALUES ($1,$2,$3)
        ON CONFLICT (amendment_id, collaborator_id)
            DO UPDATE SET is_watching = TRUE
        RETURNING ` + watcherColumns
	var watcher domain.Watcher
	if err := scanWatcher(r.db.QueryRow(ctx, query, amendmentID, collaboratorID, reason), &watcher); err != nil {
		return nil, err
	}
	return &watcher, nil
}

func (r *watcherRepository) Mute(ctx context.Context, amendmentID, collaboratorID string) error {
	const query = `
        UPDATE amendment_watchers SET is_watching = FALSE
        WHERE amendment_id=$1 AND collaborator_id=$2`
	cmd, err := r.db.Exec(ctx, query, amendmentID, collaboratorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *watcherRepository) Get(ctx context.Context, amendmentID, collaboratorID string) (*domain.Watcher, error) {
	query := `SELECT ` + watcherColumns + ` FROM amendment_watchers
        WHERE amendment_id=$1 AND collaborator_id=$2`
	var watcher domain.Watcher
	if err := scanWatcher(r.db.QueryRow(ctx, query, amendmentID, collaboratorID), &watcher); err != nil {
		return nil, mapNoRows(err)
	}
	return &watcher, nil
}

func (r *watcherRepository) ListActive(ctx context.Context, amendmentID string) ([]domain.Watcher, error) {
	query := `SELECT ` + watcherColumns + ` FROM amendment_watchers
        WHERE amendment_id=$1 AND is_watching ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, amendmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Watcher
	for rows.Next() {
		var watcher domain.Watcher
		if err := scanWatcher(rows, &watcher); err != nil {
			return nil, err
		}
		result = append(result, watcher)
	}
	return result, rows.Err()
}

func (r *watcherRepository) IsWatching(ctx context.Context, amendmentID, collaboratorID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM amendment_watchers
            WHERE amendment_id=$1 AND collaborator_id=$2 AND is_watching
        )`
	var watching bool
	err := r.db.QueryRow(ctx, query, amendmentID, collaboratorID).Scan(&watching)
	return watching, err
}

func (r *watcherRepository) UpdatePreferences(ctx context.Context, watcher *domain.Watcher) error {
	const query = `
        UPDATE amendment_watchers
        SET notify_comments=$1, notify_status_changes=$2, notify_mentions=$3
        WHERE watcher_id=$4`
	cmd, err := r.db.Exec(ctx, query,
		watcher.NotifyComments,
		watcher.NotifyStatusChanges,
		watcher.NotifyMentions,
		watcher.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWatcher(row pgx.Row, watcher *domain.Watcher) error {
	return row.Scan(
		&watcher.ID,
		&watcher.AmendmentID,
		&watcher.CollaboratorID,
		&watcher.Reason,
		&watcher.Watching,
		&watcher.NotifyComments,
		&watcher.NotifyStatusChanges,
		&watcher.NotifyMentions,
		&watcher.CreatedAt,
	)
}
