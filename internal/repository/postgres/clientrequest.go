package postgres

import (
	"context"
	"fmt"

	"lab-service/internal/domain/clientrequest"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const clientRequestColumns = `id, client_id, request_type, title, description, detailed_requirements, priority,
	status, assigned_account_manager_id, submitted_at, updated_at`

type clientRequestRepo repos

func scanClientRequest(row pgx.Row) (*clientrequest.ClientRequest, error) {
	req := &clientrequest.ClientRequest{}
	err := row.Scan(
		&req.ID,
		&req.ClientID,
		&req.RequestType,
		&req.Title,
		&req.Description,
		&req.DetailedRequirements,
		&req.Priority,
		&req.Status,
		&req.AssignedAccountManagerID,
		&req.SubmittedAt,
		&req.UpdatedAt,
	)
	return req, err
}

func (r clientRequestRepo) Create(ctx context.Context, input clientrequest.CreateRequestInput) (*clientrequest.ClientRequest, error) {
	query := `
		INSERT INTO client_requests (
			id, client_id, request_type, title, description, detailed_requirements, priority, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + clientRequestColumns

	req, err := scanClientRequest(r.q.QueryRow(ctx, query,
		uuid.New(),
		input.ClientID,
		input.RequestType,
		input.Title,
		input.Description,
		input.DetailedRequirements,
		input.Priority,
		clientrequest.StatusNew,
	))
	if err != nil {
		return nil, errFailedCreateRequest(err)
	}
	return req, nil
}

func (r clientRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*clientrequest.ClientRequest, error) {
	return r.get(ctx, `SELECT `+clientRequestColumns+` FROM client_requests WHERE id = $1`, id)
}

func (r clientRequestRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*clientrequest.ClientRequest, error) {
	return r.get(ctx, `SELECT `+clientRequestColumns+` FROM client_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r clientRequestRepo) get(ctx context.Context, query string, id uuid.UUID) (*clientrequest.ClientRequest, error) {
	req, err := scanClientRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errClientRequestNotFound)
		}
		return nil, errFailedGetRequest(err)
	}
	return req, nil
}

func (r clientRequestRepo) List(ctx context.Context, filter clientrequest.ListFilter) ([]*clientrequest.ClientRequest, error) {
	query := `SELECT ` + clientRequestColumns + ` FROM client_requests WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.ClientID != nil {
		argCount++
		query += fmt.Sprintf(" AND client_id = $%d", argCount)
		args = append(args, *filter.ClientID)
	}

	if len(filter.Statuses) > 0 {
		argCount++
		query += fmt.Sprintf(" AND status = ANY($%d)", argCount)
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
	}

	query += " ORDER BY submitted_at DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, errFailedListRequests(err)
	}
	defer rows.Close()

	var requests []*clientrequest.ClientRequest
	for rows.Next() {
		req, err := scanClientRequest(rows)
		if err != nil {
			return nil, errFailedScanRequest(err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, errIterateRequests(err)
	}

	return requests, nil
}

func (r clientRequestRepo) UpdateStatus(ctx context.Context, input clientrequest.UpdateStatusInput) (*clientrequest.ClientRequest, error) {
	query := `
		UPDATE client_requests SET
			status = $3,
			assigned_account_manager_id = COALESCE($4, assigned_account_manager_id),
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + clientRequestColumns

	req, err := scanClientRequest(r.q.QueryRow(ctx, query, input.RequestID, input.From, input.To, input.AssignedAccountManagerID))
	if err == nil {
		return req, nil
	}
	if !isNoRows(err) {
		return nil, errFailedUpdateRequest(err)
	}

	var current clientrequest.Status
	if err := r.q.QueryRow(ctx, `SELECT status FROM client_requests WHERE id = $1`, input.RequestID).Scan(&current); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errClientRequestNotFound)
		}
		return nil, errFailedGetRequest(err)
	}
	return nil, apperrors.InvalidTransition(fmt.Sprintf(errRequestStatusChangedFmt, input.From), string(current))
}
