package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/amendment-service/internal/domain"
)

type collaboratorRepository struct {
	db Querier
}

const collaboratorColumns = `collaborator_id, name, username, email, role, password_hash,
       is_active, last_login, created_at, modified_at`

func (r *collaboratorRepository) Create(ctx context.Context, collaborator *domain.Collaborator) error {
	const query = `
        INSERT INTO collaborators (name, username, email, role, password_hash, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING collaborator_id, created_at, modified_at`
	return r.db.QueryRow(ctx, query,
		collaborator.Name,
		collaborator.Username,
		collaborator.Email,
		collaborator.Role,
		collaborator.PasswordHash,
		collaborator.Active,
	).Scan(&collaborator.ID, &collaborator.CreatedAt, &collaborator.ModifiedAt)
}

func (r *collaboratorRepository) Update(ctx context.Context, collaborator *domain.Collaborator) error {
	const query = `
        UPDATE collaborators SET name=$1, username=$2, email=$3, role=$4,
            password_hash=$5, is_active=$6, last_login=$7, modified_at=NOW()
        WHERE collaborator_id=$8`
	cmd, err := r.db.Exec(ctx, query,
		collaborator.Name,
		collaborator.Username,
		collaborator.Email,
		collaborator.Role,
		collaborator.PasswordHash,
		collaborator.Active,
		collaborator.LastLogin,
		collaborator.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *collaboratorRepository) GetByID(ctx context.Context, id string) (*domain.Collaborator, error) {
	query := `SELECT ` + collaboratorColumns + ` FROM collaborators WHERE collaborator_id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *collaboratorRepository) GetByUsername(ctx context.Context, username string) (*domain.Collaborator, error) {
	query := `SELECT ` + collaboratorColumns + ` FROM collaborators WHERE username=$1`
	return r.fetchSingle(ctx, query, username)
}

func (r *collaboratorRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Collaborator, error) {
	var collaborator domain.Collaborator
	if err := scanCollaborator(r.db.QueryRow(ctx, query, arg), &collaborator); err != nil {
		return nil, mapNoRows(err)
	}
	return &collaborator, nil
}

func (r *collaboratorRepository) List(ctx context.Context, activeOnly bool) ([]domain.Collaborator, error) {
	query := `SELECT ` + collaboratorColumns + ` FROM collaborators`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Collaborator
	for rows.Next() {
		var collaborator domain.Collaborator
		if err := scanCollaborator(rows, &collaborator); err != nil {
			return nil, err
		}
		result = append(result, collaborator)
	}
	return result, rows.Err()
}

// ResolveMention prefers an exact username match, then falls back to a
// case-insensitive substring match against display names. Rows are ordered
// by exact-match priority and then by id, so an ambiguous token resolves the
// same way every time.
func (r *collaboratorRepository) ResolveMention(ctx context.Context, token string) (*domain.Collaborator, error) {
	query := `SELECT ` + collaboratorColumns + ` FROM collaborators
        WHERE is_active AND (username = $1 OR name ILIKE '%' || $1 || '%')
        ORDER BY (username = $1) DESC, collaborator_id ASC
        LIMIT 1`
	return r.fetchSingle(ctx, query, token)
}

func scanCollaborator(row pgx.Row, collaborator *domain.Collaborator) error {
	return row.Scan(
		&collaborator.ID,
		&collaborator.Name,
		&collaborator.Username,
		&collaborator.Email,
		&collaborator.Role,
		&collaborator.PasswordHash,
		&collaborator.Active,
		&collaborator.LastLogin,
		&collaborator.CreatedAt,
		&collaborator.ModifiedAt,
	)
}
