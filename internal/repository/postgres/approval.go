package postgres

import (
	"context"

	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/principal"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const approvalColumns = `id, project_id, approver_id, approver_role, status, comments, approved_at, decided_at, created_at`

type approvalRepo repos

func scanApproval(row pgx.Row) (*approval.Approval, error) {
	a := &approval.Approval{}
	err := row.Scan(
		&a.ID,
		&a.ProjectID,
		&a.ApproverID,
		&a.ApproverRole,
		&a.Status,
		&a.Comments,
		&a.ApprovedAt,
		&a.DecidedAt,
		&a.CreatedAt,
	)
	return a, err
}

func (r approvalRepo) GetCurrent(ctx context.Context, projectID uuid.UUID, role principal.Role) (*approval.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE project_id = $1 AND approver_role = $2`

	a, err := scanApproval(r.q.QueryRow(ctx, query, projectID, role))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errApprovalNotFound)
		}
		return nil, errFailedGetApproval(err)
	}
	return a, nil
}

// Upsert keeps one row per (project, role); a later decision overwrites the
// earlier one in place.
func (r approvalRepo) Upsert(ctx context.Context, input approval.UpsertInput) (*approval.Approval, error) {
	query := `
		INSERT INTO approvals (id, project_id, approver_id, approver_role, status, comments, approved_at, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
		ON CONFLICT (project_id, approver_role) DO UPDATE SET
			approver_id = EXCLUDED.approver_id,
			status = EXCLUDED.status,
			comments = EXCLUDED.comments,
			approved_at = EXCLUDED.approved_at,
			decided_at = EXCLUDED.decided_at
		RETURNING ` + approvalColumns

	var decidedAt any
	if !input.DecidedAt.IsZero() {
		decidedAt = input.DecidedAt
	}

	a, err := scanApproval(r.q.QueryRow(ctx, query,
		uuid.New(),
		input.ProjectID,
		input.ApproverID,
		input.ApproverRole,
		input.Status,
		input.Comments,
		input.ApprovedAt,
		decidedAt,
	))
	if err != nil {
		return nil, errFailedUpsertApproval(err)
	}
	return a, nil
}

// ListByProject returns the project's review history, most recent decision
// first, with the deciding principal's name.
func (r approvalRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*approval.ReviewEntry, error) {
	query := `
		SELECT a.id, a.project_id, a.approver_id, a.approver_role, a.status, a.comments,
		       a.approved_at, a.decided_at, a.created_at, COALESCE(p.full_name, '')
		FROM approvals a
		LEFT JOIN principals p ON p.id = a.approver_id
		WHERE a.project_id = $1
		ORDER BY a.decided_at DESC, a.created_at DESC
	`

	rows, err := r.q.Query(ctx, query, projectID)
	if err != nil {
		return nil, errFailedListApprovals(err)
	}
	defer rows.Close()

	entries := []*approval.ReviewEntry{}
	for rows.Next() {
		e := &approval.ReviewEntry{}
		if err := rows.Scan(
			&e.ID,
			&e.ProjectID,
			&e.ApproverID,
			&e.ApproverRole,
			&e.Status,
			&e.Comments,
			&e.ApprovedAt,
			&e.DecidedAt,
			&e.CreatedAt,
			&e.ApproverName,
		); err != nil {
			return nil, errFailedScanApproval(err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, errIterateApprovals(err)
	}

	return entries, nil
}
