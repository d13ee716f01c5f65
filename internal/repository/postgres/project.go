package postgres

import (
	"context"
	"fmt"

	"lab-service/internal/domain/project"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `id, engineer_id, title, description, objectives, equipment_needed, timeline_duration,
	safety_considerations, expected_outcomes, status, linked_client_request_id, created_at, updated_at, submitted_at`

type projectRepo repos

func scanProject(row pgx.Row) (*project.Project, error) {
	p := &project.Project{}
	err := row.Scan(
		&p.ID,
		&p.EngineerID,
		&p.Content.Title,
		&p.Content.Description,
		&p.Content.Objectives,
		&p.Content.EquipmentNeeded,
		&p.Content.TimelineDuration,
		&p.Content.SafetyConsiderations,
		&p.Content.ExpectedOutcomes,
		&p.Status,
		&p.LinkedClientRequestID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.SubmittedAt,
	)
	return p, err
}

func equipment(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func (r projectRepo) Create(ctx context.Context, input project.CreateProjectInput) (*project.Project, error) {
	query := `
		INSERT INTO projects (
			id, engineer_id, title, description, objectives, equipment_needed,
			timeline_duration, safety_considerations, expected_outcomes, status, linked_client_request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + projectColumns

	c := input.Content
	p, err := scanProject(r.q.QueryRow(ctx, query,
		uuid.New(),
		input.EngineerID,
		c.Title,
		c.Description,
		c.Objectives,
		equipment(c.EquipmentNeeded),
		c.TimelineDuration,
		c.SafetyConsiderations,
		c.ExpectedOutcomes,
		project.StatusDraft,
		input.LinkedClientRequestID,
	))
	if err != nil {
		return nil, errFailedCreateProject(err)
	}
	return p, nil
}

func (r projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	return r.get(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
}

// GetForUpdate takes a row lock held until the surrounding transaction ends.
func (r projectRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	return r.get(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id)
}

func (r projectRepo) get(ctx context.Context, query string, id uuid.UUID) (*project.Project, error) {
	p, err := scanProject(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errProjectNotFound)
		}
		return nil, errFailedGetProject(err)
	}
	return p, nil
}

func (r projectRepo) UpdateContent(ctx context.Context, id uuid.UUID, content project.Content) (*project.Project, error) {
	query := `
		UPDATE projects SET
			title = $2, description = $3, objectives = $4, equipment_needed = $5,
			timeline_duration = $6, safety_considerations = $7, expected_outcomes = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + projectColumns

	p, err := scanProject(r.q.QueryRow(ctx, query,
		id,
		content.Title,
		content.Description,
		content.Objectives,
		equipment(content.EquipmentNeeded),
		content.TimelineDuration,
		content.SafetyConsiderations,
		content.ExpectedOutcomes,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errProjectNotFound)
		}
		return nil, errFailedUpdateProject(err)
	}
	return p, nil
}

func (r projectRepo) TransitionStatus(ctx context.Context, input project.TransitionInput) (*project.Project, error) {
	query := `
		UPDATE projects SET
			status = $3,
			submitted_at = COALESCE($4, submitted_at),
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + projectColumns

	p, err := scanProject(r.q.QueryRow(ctx, query, input.ProjectID, input.From, input.To, input.SubmittedAt))
	if err == nil {
		return p, nil
	}
	if !isNoRows(err) {
		return nil, errFailedTransitionProject(err)
	}

	var current project.Status
	if err := r.q.QueryRow(ctx, `SELECT status FROM projects WHERE id = $1`, input.ProjectID).Scan(&current); err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errProjectNotFound)
		}
		return nil, errFailedGetProject(err)
	}
	return nil, apperrors.InvalidTransition(fmt.Sprintf(errProjectStatusChangedFmt, input.From), string(current))
}

func (r projectRepo) List(ctx context.Context, filter project.ListFilter) ([]*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.EngineerID != nil {
		argCount++
		query += fmt.Sprintf(" AND engineer_id = $%d", argCount)
		args = append(args, *filter.EngineerID)
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

	query += " ORDER BY created_at DESC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, errFailedListProjects(err)
	}
	defer rows.Close()

	var projects []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, errFailedScanProject(err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errIterateProjects(err)
	}

	return projects, nil
}
