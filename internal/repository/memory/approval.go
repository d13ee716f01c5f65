package memory

import (
	"context"
	"sort"

	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/principal"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
)

const errApprovalNotFound = "approval not found"

type approvalRepo repos

func (r approvalRepo) GetCurrent(ctx context.Context, projectID uuid.UUID, role principal.Role) (*approval.Approval, error) {
	st, release := r.acc.read()
	defer release()

	row, ok := st.approvals[approvalKey{projectID: projectID, role: role}]
	if !ok {
		return nil, apperrors.NotFound(errApprovalNotFound)
	}
	a := row.Approval
	return &a, nil
}

func (r approvalRepo) Upsert(ctx context.Context, input approval.UpsertInput) (*approval.Approval, error) {
	st, release := r.acc.write()
	defer release()

	key := approvalKey{projectID: input.ProjectID, role: input.ApproverRole}
	now := st.tick(r.acc.clock())

	row, ok := st.approvals[key]
	if !ok {
		row.ID = uuid.New()
		row.ProjectID = input.ProjectID
		row.ApproverRole = input.ApproverRole
		row.CreatedAt = now
	}
	approverID := input.ApproverID
	row.ApproverID = &approverID
	row.Status = input.Status
	row.Comments = input.Comments
	row.ApprovedAt = input.ApprovedAt
	row.DecidedAt = input.DecidedAt
	if row.DecidedAt.IsZero() {
		row.DecidedAt = now
	}
	row.seq = st.seq
	st.approvals[key] = row

	a := row.Approval
	return &a, nil
}

func (r approvalRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*approval.ReviewEntry, error) {
	st, release := r.acc.read()
	defer release()

	var rows []approvalRow
	for key, row := range st.approvals {
		if key.projectID == projectID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].DecidedAt.Equal(rows[j].DecidedAt) {
			return rows[i].DecidedAt.After(rows[j].DecidedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]*approval.ReviewEntry, 0, len(rows))
	for _, row := range rows {
		entry := &approval.ReviewEntry{Approval: row.Approval}
		if row.ApproverID != nil {
			if p, ok := st.principals[*row.ApproverID]; ok {
				entry.ApproverName = p.FullName
			}
		}
		out = append(out, entry)
	}
	return out, nil
}
