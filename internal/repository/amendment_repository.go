package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/amendment-service/internal/domain"
)

type amendmentRepository struct {
	db Querier
}

const amendmentColumns = `amendment_id, reference, description, priority, application, version,
       qa_status, qa_tester_id, qa_assigned_at, qa_started_at, qa_completed_at, qa_completed,
       qa_test_plan_checked, qa_release_notes_checked, qa_notes, qa_blocked_reason,
       qa_sla_hours, qa_due_at, created_by, created_at, modified_at`

func (r *amendmentRepository) Create(ctx context.Context, amendment *domain.Amendment) error {
	const query = `
        INSERT INTO amendments (reference, description, priority, application, version,
            qa_status, qa_tester_id, qa_sla_hours, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING amendment_id, created_at, modified_at`
	return r.db.QueryRow(ctx, query,
		amendment.Reference,
		amendment.Description,
		amendment.Priority,
		amendment.Application,
		amendment.Version,
		amendment.QAStatus,
		amendment.TesterID,
		amendment.SLAHours,
		amendment.CreatedBy,
	).Scan(&amendment.ID, &amendment.CreatedAt, &amendment.ModifiedAt)
}

func (r *amendmentRepository) Update(ctx context.Context, amendment *domain.Amendment) error {
	const query = `
        UPDATE amendments SET description=$1, priority=$2, application=$3, version=$4,
            qa_status=$5, qa_tester_id=$6, qa_assigned_at=$7, qa_started_at=$8,
            qa_completed_at=$9, qa_completed=$10, qa_test_plan_checked=$11,
            qa_release_notes_checked=$12, qa_notes=$13, qa_blocked_reason=$14,
            qa_sla_hours=$15, qa_due_at=$16, modified_at=NOW()
        WHERE amendment_id=$17`
	cmd, err := r.db.Exec(ctx, query,
		amendment.Description,
		amendment.Priority,
		amendment.Application,
		amendment.Version,
		amendment.QAStatus,
		amendment.TesterID,
		amendment.AssignedAt,
		amendment.StartedAt,
		amendment.CompletedAt,
		amendment.Completed,
		amendment.TestPlanChecked,
		amendment.ReleaseNotesChecked,
		amendment.QANotes,
		amendment.BlockedReason,
		amendment.SLAHours,
		amendment.DueAt,
		amendment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *amendmentRepository) GetByID(ctx context.Context, id string) (*domain.Amendment, error) {
	query := `SELECT ` + amendmentColumns + ` FROM amendments WHERE amendment_id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *amendmentRepository) GetByReference(ctx context.Context, reference string) (*domain.Amendment, error) {
	query := `SELECT ` + amendmentColumns + ` FROM amendments WHERE reference=$1`
	return r.fetchSingle(ctx, query, reference)
}

func (r *amendmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Amendment, error) {
	var amendment domain.Amendment
	if err := scanAmendment(r.db.QueryRow(ctx, query, arg), &amendment); err != nil {
		return nil, mapNoRows(err)
	}
	return &amendment, nil
}

func (r *amendmentRepository) List(ctx context.Context, filter AmendmentFilter) ([]domain.Amendment, error) {
	base := `SELECT ` + amendmentColumns + ` FROM amendments`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.QAStatuses) > 0 {
		placeholders := make([]string, len(filter.QAStatuses))
		for i, status := range filter.QAStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("qa_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.TesterID != nil {
		args = append(args, *filter.TesterID)
		clauses = append(clauses, fmt.Sprintf("qa_tester_id=$%d", len(args)))
	}
	if filter.Version != nil {
		args = append(args, *filter.Version)
		clauses = append(clauses, fmt.Sprintf("version=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(reference) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY modified_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAmendments(rows)
}

func (r *amendmentRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Amendment, error) {
	query := `SELECT ` + amendmentColumns + ` FROM amendments
        WHERE qa_due_at IS NOT NULL AND qa_due_at < $1
          AND qa_status IN ('Not Started','Assigned','In Testing','Blocked')
        ORDER BY qa_due_at ASC`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAmendments(rows)
}

func (r *amendmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM amendments WHERE amendment_id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAmendment(row pgx.Row, amendment *domain.Amendment) error {
	return row.Scan(
		&amendment.ID,
		&amendment.Reference,
		&amendment.Description,
		&amendment.Priority,
		&amendment.Application,
		&amendment.Version,
		&amendment.QAStatus,
		&amendment.TesterID,
		&amendment.AssignedAt,
		&amendment.StartedAt,
		&amendment.CompletedAt,
		&amendment.Completed,
		&amendment.TestPlanChecked,
		&amendment.ReleaseNotesChecked,
		&amendment.QANotes,
		&amendment.BlockedReason,
		&amendment.SLAHours,
		&amendment.DueAt,
		&amendment.CreatedBy,
		&amendment.CreatedAt,
		&amendment.ModifiedAt,
	)
}

func scanAmendments(rows pgx.Rows) ([]domain.Amendment, error) {
	var result []domain.Amendment
	for rows.Next() {
		var amendment domain.Amendment
		if err := scanAmendment(rows, &amendment); err != nil {
			return nil, err
		}
		result = append(result, amendment)
	}
	return result, rows.Err()
}
