package postgres

import (
	"context"

	"lab-service/internal/domain/result"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const resultColumns = `id, project_id, uploaded_by, file_name, file_url, file_type, object_key, size_bytes, is_client_visible, uploaded_at`

type resultRepo repos

func scanResult(row pgx.Row) (*result.ProjectResult, error) {
	res := &result.ProjectResult{}
	err := row.Scan(
		&res.ID,
		&res.ProjectID,
		&res.UploadedBy,
		&res.FileName,
		&res.FileURL,
		&res.FileType,
		&res.ObjectKey,
		&res.SizeBytes,
		&res.IsClientVisible,
		&res.UploadedAt,
	)
	return res, err
}

func (r resultRepo) Create(ctx context.Context, input result.CreateResultInput) (*result.ProjectResult, error) {
	query := `
		INSERT INTO project_results (
			id, project_id, uploaded_by, file_name, file_url, file_type, object_key, size_bytes, is_client_visible
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + resultColumns

	res, err := scanResult(r.q.QueryRow(ctx, query,
		uuid.New(),
		input.ProjectID,
		input.UploadedBy,
		input.FileName,
		input.FileURL,
		input.FileType,
		input.ObjectKey,
		input.SizeBytes,
		input.IsClientVisible,
	))
	if err != nil {
		return nil, errFailedCreateResult(err)
	}
	return res, nil
}

func (r resultRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*result.ProjectResult, error) {
	query := `SELECT ` + resultColumns + ` FROM project_results WHERE project_id = $1 ORDER BY uploaded_at DESC`

	rows, err := r.q.Query(ctx, query, projectID)
	if err != nil {
		return nil, errFailedListResults(err)
	}
	defer rows.Close()

	var results []*result.ProjectResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, errFailedScanResult(err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, errIterateResults(err)
	}

	return results, nil
}
