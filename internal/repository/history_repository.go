package repository

import (
	"context"

	"github.com/spec-kit/amendment-service/internal/domain"
)

type historyRepository struct {
	db Querier
}

func (r *historyRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	const query = `
        INSERT INTO qa_history (amendment_id, action, field_name, old_value, new_value, comment, actor_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING history_id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.AmendmentID,
		entry.Action,
		entry.FieldName,
		entry.OldValue,
		entry.NewValue,
		entry.Comment,
		entry.ActorID,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) ListByAmendment(ctx context.Context, amendmentID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT history_id, amendment_id, action, field_name, old_value, new_value, comment, actor_id, created_at
        FROM qa_history WHERE amendment_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, amendmentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.AmendmentID,
			&entry.Action,
			&entry.FieldName,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Comment,
			&entry.ActorID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
