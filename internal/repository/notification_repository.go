package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/amendment-service/internal/domain"
)

type notificationRepository struct {
	db Querier
}

const notificationColumns = `notification_id, recipient_id, category, title, message,
       amendment_id, defect_id, is_read, read_at, is_email_sent, created_at`

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_id, category, title, message, amendment_id, defect_id, is_email_sent)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING notification_id, created_at`
	return r.db.QueryRow(ctx, query,
		notification.RecipientID,
		notification.Category,
		notification.Title,
		notification.Message,
		notification.AmendmentID,
		notification.DefectID,
		notification.EmailSent,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]domain.Notification, error) {
	clauses := []string{"recipient_id=$1"}
	args := []any{recipientID}
	if filter.Read != nil {
		args = append(args, *filter.Read)
		clauses = append(clauses, fmt.Sprintf("is_read=$%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		notificationColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.Category,
			&notification.Title,
			&notification.Message,
			&notification.AmendmentID,
			&notification.DefectID,
			&notification.Read,
			&notification.ReadAt,
			&notification.EmailSent,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND NOT is_read`,
		recipientID).Scan(&count)
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	const query = `
        UPDATE notifications SET is_read = TRUE, read_at = NOW()
        WHERE notification_id=$1 AND recipient_id=$2 AND NOT is_read`
	cmd, err := r.db.Exec(ctx, query, id, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	const query = `
        UPDATE notifications SET is_read = TRUE, read_at = NOW()
        WHERE recipient_id=$1 AND NOT is_read`
	cmd, err := r.db.Exec(ctx, query, recipientID)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *notificationRepository) MarkEmailSent(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_email_sent = TRUE WHERE notification_id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
