package memory

import (
	"context"
	"fmt"
	"sort"

	"lab-service/internal/domain/project"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
)

const (
	errProjectNotFound         = "project not found"
	errProjectStatusChangedFmt = "project is no longer %s"
)

type projectRepo repos

func (r projectRepo) Create(ctx context.Context, input project.CreateProjectInput) (*project.Project, error) {
	st, release := r.acc.write()
	defer release()

	now := st.tick(r.acc.clock())
	p := project.Project{
		ID:                    uuid.New(),
		EngineerID:            input.EngineerID,
		Content:               input.Content,
		Status:                project.StatusDraft,
		LinkedClientRequestID: input.LinkedClientRequestID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	st.projects[p.ID] = cloneProject(p)
	out := cloneProject(p)
	return &out, nil
}

func (r projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	st, release := r.acc.read()
	defer release()

	p, ok := st.projects[id]
	if !ok {
		return nil, apperrors.NotFound(errProjectNotFound)
	}
	out := cloneProject(p)
	return &out, nil
}

// GetForUpdate needs no row lock here: transactions already hold the store's
// write lock.
func (r projectRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	return r.GetByID(ctx, id)
}

func (r projectRepo) UpdateContent(ctx context.Context, id uuid.UUID, content project.Content) (*project.Project, error) {
	st, release := r.acc.write()
	defer release()

	p, ok := st.projects[id]
	if !ok {
		return nil, apperrors.NotFound(errProjectNotFound)
	}
	p.Content = content
	p.UpdatedAt = st.tick(r.acc.clock())
	st.projects[id] = cloneProject(p)
	out := cloneProject(p)
	return &out, nil
}

func (r projectRepo) TransitionStatus(ctx context.Context, input project.TransitionInput) (*project.Project, error) {
	st, release := r.acc.write()
	defer release()

	p, ok := st.projects[input.ProjectID]
	if !ok {
		return nil, apperrors.NotFound(errProjectNotFound)
	}
	if p.Status != input.From {
		return nil, apperrors.InvalidTransition(fmt.Sprintf(errProjectStatusChangedFmt, string(input.From)), string(p.Status))
	}
	p.Status = input.To
	p.UpdatedAt = st.tick(r.acc.clock())
	if input.SubmittedAt != nil {
		t := *input.SubmittedAt
		p.SubmittedAt = &t
	}
	st.projects[p.ID] = cloneProject(p)
	out := cloneProject(p)
	return &out, nil
}

func (r projectRepo) List(ctx context.Context, filter project.ListFilter) ([]*project.Project, error) {
	st, release := r.acc.read()
	defer release()

	var out []*project.Project
	for _, p := range st.projects {
		if filter.EngineerID != nil && p.EngineerID != *filter.EngineerID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, p.Status) {
			continue
		}
		c := cloneProject(p)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func hasStatus(statuses []project.Status, s project.Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
