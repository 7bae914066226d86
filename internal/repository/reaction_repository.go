package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/amendment-service/internal/domain"
)

type reactionRepository struct {
	db Querier
}

// Toggle deletes the row when it exists and inserts otherwise. Both sides
// are single statements guarded by the uniqueness constraint, so a retried
// toggle cannot duplicate rows.
func (r *reactionRepository) Toggle(ctx context.Context, commentID, collaboratorID, emoji string) (bool, *domain.Reaction, error) {
	const deleteQuery = `
        DELETE FROM comment_reactions
        WHERE comment_id=$1 AND collaborator_id=$2 AND emoji=$3`
	cmd, err := r.db.Exec(ctx, deleteQuery, commentID, collaboratorID, emoji)
	if err != nil {
		return false, nil, err
	}
	if cmd.RowsAffected() > 0 {
		return false, nil, nil
	}

	const insertQuery = `
        INSERT INTO comment_reactions (comment_id, collaborator_id, emoji)
        VALUES ($1,$2,$3)
        ON CONFLICT (comment_id, collaborator_id, emoji) DO NOTHING
        RETURNING reaction_id, created_at`
	reaction := &domain.Reaction{
		CommentID:      commentID,
		CollaboratorID: collaboratorID,
		Emoji:          emoji,
	}
	err = r.db.QueryRow(ctx, insertQuery, commentID, collaboratorID, emoji).
		Scan(&reaction.ID, &reaction.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a race against a concurrent identical toggle; the row is
		// present, so report it as already added.
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, reaction, nil
}

func (r *reactionRepository) ListByComment(ctx context.Context, commentID string) ([]domain.Reaction, error) {
	const query = `
        SELECT reaction_id, comment_id, collaborator_id, emoji, created_at
        FROM comment_reactions WHERE comment_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Reaction
	for rows.Next() {
		var reaction domain.Reaction
		if err := rows.Scan(
			&reaction.ID,
			&reaction.CommentID,
			&reaction.CollaboratorID,
			&reaction.Emoji,
			&reaction.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reaction)
	}
	return result, rows.Err()
}

func (r *reactionRepository) Summary(ctx context.Context, commentID string) (map[string]int, error) {
	const query = `
        SELECT emoji, COUNT(*) FROM comment_reactions
        WHERE comment_id=$1 GROUP BY emoji`
	rows, err := r.db.Query(ctx, query, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := make(map[string]int)
	for rows.Next() {
		var emoji string
		var count int
		if err := rows.Scan(&emoji, &count); err != nil {
			return nil, err
		}
		summary[emoji] = count
	}
	return summary, rows.Err()
}
