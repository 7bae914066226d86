package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/amendment-service/internal/domain"
)

type defectRepository struct {
	db Querier
}

const defectColumns = `defect_id, defect_number, amendment_id, title, description, severity, status,
       reported_by_id, assigned_to_id, assigned_at, resolved_at, closed_at, resolution,
       created_at, modified_at`

func (r *defectRepository) Create(ctx context.Context, defect *domain.Defect) error {
	const query = `
        INSERT INTO defects (defect_number, amendment_id, title, description, severity, status,
            reported_by_id, assigned_to_id, assigned_at, resolution)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING defect_id, created_at, modified_at`
	return r.db.QueryRow(ctx, query,
		defect.Number,
		defect.AmendmentID,
		defect.Title,
		defect.Description,
		defect.Severity,
		defect.Status,
		defect.ReportedByID,
		defect.AssignedToID,
		defect.AssignedAt,
		defect.Resolution,
	).Scan(&defect.ID, &defect.CreatedAt, &defect.ModifiedAt)
}

func (r *defectRepository) Update(ctx context.Context, defect *domain.Defect) error {
	const query = `
        UPDATE defects SET title=$1, description=$2, severity=$3, status=$4,
            assigned_to_id=$5, assigned_at=$6, resolved_at=$7, closed_at=$8,
            resolution=$9, modified_at=NOW()
        WHERE defect_id=$10`
	cmd, err := r.db.Exec(ctx, query,
		defect.Title,
		defect.Description,
		defect.Severity,
		defect.Status,
		defect.AssignedToID,
		defect.AssignedAt,
		defect.ResolvedAt,
		defect.ClosedAt,
		defect.Resolution,
		defect.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *defectRepository) GetByID(ctx context.Context, id string) (*domain.Defect, error) {
	query := `SELECT ` + defectColumns + ` FROM defects WHERE defect_id=$1`
	var defect domain.Defect
	if err := scanDefect(r.db.QueryRow(ctx, query, id), &defect); err != nil {
		return nil, mapNoRows(err)
	}
	return &defect, nil
}

func (r *defectRepository) List(ctx context.Context, filter DefectFilter) ([]domain.Defect, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.AmendmentID != nil {
		args = append(args, *filter.AmendmentID)
		clauses = append(clauses, fmt.Sprintf("amendment_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		clauses = append(clauses, fmt.Sprintf("severity=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM defects WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		defectColumns, strings.Join(clauses, " AND "), limit, offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Defect
	for rows.Next() {
		var defect domain.Defect
		if err := scanDefect(rows, &defect); err != nil {
			return nil, err
		}
		result = append(result, defect)
	}
	return result, rows.Err()
}

// NextNumber produces DEF-001 style numbers from the highest existing one.
func (r *defectRepository) NextNumber(ctx context.Context) (string, error) {
	const query = `
        SELECT COALESCE(MAX(CAST(SUBSTRING(defect_number FROM 5) AS INTEGER)), 0)
        FROM defects`
	var highest int
	if err := r.db.QueryRow(ctx, query).Scan(&highest); err != nil {
		return "", err
	}
	return fmt.Sprintf("DEF-%03d", highest+1), nil
}

func (r *defectRepository) CountOpenByAmendment(ctx context.Context, amendmentID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM defects
        WHERE amendment_id=$1 AND status NOT IN ('Resolved','Verified','Closed')`
	var count int
	err := r.db.QueryRow(ctx, query, amendmentID).Scan(&count)
	return count, err
}

func scanDefect(row pgx.Row, defect *domain.Defect) error {
	return row.Scan(
		&defect.ID,
		&defect.Number,
		&defect.AmendmentID,
		&defect.Title,
		&defect.Description,
		&defect.Severity,
		&defect.Status,
		&defect.ReportedByID,
		&defect.AssignedToID,
		&defect.AssignedAt,
		&defect.ResolvedAt,
		&defect.ClosedAt,
		&defect.Resolution,
		&defect.CreatedAt,
		&defect.ModifiedAt,
	)
}

type executionRepository struct {
	db Querier
}

const executionColumns = `execution_id, amendment_id, test_case_label, status, actual_results,
       notes, executed_by_id, executed_at, created_at`

func (r *executionRepository) Create(ctx context.Context, execution *domain.TestExecution) error {
	const query = `
        INSERT INTO test_executions (amendment_id, test_case_label, status, actual_results, notes, executed_by_id, executed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING execution_id, created_at`
	return r.db.QueryRow(ctx, query,
		execution.AmendmentID,
		execution.TestCaseLabel,
		execution.Status,
		execution.ActualResults,
		execution.Notes,
		execution.ExecutedByID,
		execution.ExecutedAt,
	).Scan(&execution.ID, &execution.CreatedAt)
}

func (r *executionRepository) GetByID(ctx context.Context, id string) (*domain.TestExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM test_executions WHERE execution_id=$1`
	var execution domain.TestExecution
	if err := scanExecution(r.db.QueryRow(ctx, query, id), &execution); err != nil {
		return nil, mapNoRows(err)
	}
	return &execution, nil
}

func (r *executionRepository) ListByAmendment(ctx context.Context, amendmentID string) ([]domain.TestExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM test_executions
        WHERE amendment_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, amendmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TestExecution
	for rows.Next() {
		var execution domain.TestExecution
		if err := scanExecution(rows, &execution); err != nil {
			return nil, err
		}
		result = append(result, execution)
	}
	return result, rows.Err()
}

func scanExecution(row pgx.Row, execution *domain.TestExecution) error {
	return row.Scan(
		&execution.ID,
		&execution.AmendmentID,
		&execution.TestCaseLabel,
		&execution.Status,
		&execution.ActualResults,
		&execution.Notes,
		&execution.ExecutedByID,
		&execution.ExecutedAt,
		&execution.CreatedAt,
	)
}
