package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/amendment-service/internal/domain"
)

type commentRepository struct {
	db Querier
}

const commentColumns = `comment_id, amendment_id, author_id, parent_comment_id,
       comment_text, comment_type, is_edited, created_at, modified_at`

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (amendment_id, author_id, parent_comment_id, comment_text, comment_type)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING comment_id, is_edited, created_at, modified_at`
	return r.db.QueryRow(ctx, query,
		comment.AmendmentID,
		comment.AuthorID,
		comment.ParentID,
		comment.Text,
		comment.Type,
	).Scan(&comment.ID, &comment.Edited, &comment.CreatedAt, &comment.ModifiedAt)
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	const query = `
        UPDATE comments SET comment_text=$1, comment_type=$2, is_edited=$3, modified_at=NOW()
        WHERE comment_id=$4`
	cmd, err := r.db.Exec(ctx, query, comment.Text, comment.Type, comment.Edited, comment.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE comment_id=$1`
	var comment domain.Comment
	if err := scanComment(r.db.QueryRow(ctx, query, id), &comment); err != nil {
		return nil, mapNoRows(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByAmendment(ctx context.Context, amendmentID string, limit, offset int) ([]domain.Comment, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + commentColumns + ` FROM comments
        WHERE amendment_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, amendmentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := scanComment(rows, &comment); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) CountByAmendment(ctx context.Context, amendmentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE amendment_id=$1`, amendmentID).Scan(&count)
	return count, err
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM comments WHERE comment_id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanComment(row pgx.Row, comment *domain.Comment) error {
	return row.Scan(
		&comment.ID,
		&comment.AmendmentID,
		&comment.AuthorID,
		&comment.ParentID,
		&comment.Text,
		&comment.Type,
		&comment.Edited,
		&comment.CreatedAt,
		&comment.ModifiedAt,
	)
}

type mentionRepository struct {
	db Querier
}

func (r *mentionRepository) Create(ctx context.Context, mention *domain.Mention) error {
	const query = `
        INSERT INTO comment_mentions (comment_id, mentioned_id, mentioned_by_id)
        VALUES ($1,$2,$3)
        RETURNING mention_id, created_at`
	return r.db.QueryRow(ctx, query,
		mention.CommentID,
		mention.CollaboratorID,
		mention.MentionedByID,
	).Scan(&mention.ID, &mention.CreatedAt)
}

func (r *mentionRepository) ListByComment(ctx context.Context, commentID string) ([]domain.Mention, error) {
	const query = `
        SELECT mention_id, comment_id, mentioned_id, mentioned_by_id, created_at
        FROM comment_mentions WHERE comment_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, commentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Mention
	for rows.Next() {
		var mention domain.Mention
		if err := rows.Scan(
			&mention.ID,
			&mention.CommentID,
			&mention.CollaboratorID,
			&mention.MentionedByID,
			&mention.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, mention)
	}
	return result, rows.Err()
}
