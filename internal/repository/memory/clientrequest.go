package memory

import (
	"context"
	"fmt"
	"sort"

	"lab-service/internal/domain/clientrequest"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
)

const (
	errClientRequestNotFound   = "client request not found"
	errRequestStatusChangedFmt = "client request is no longer %s"
)

type clientRequestRepo repos

func (r clientRequestRepo) Create(ctx context.Context, input clientrequest.CreateRequestInput) (*clientrequest.ClientRequest, error) {
	st, release := r.acc.write()
	defer release()

	now := st.tick(r.acc.clock())
	req := clientrequest.ClientRequest{
		ID:                   uuid.New(),
		ClientID:             input.ClientID,
		RequestType:          input.RequestType,
		Title:                input.Title,
		Description:          input.Description,
		DetailedRequirements: input.DetailedRequirements,
		Priority:             input.Priority,
		Status:               clientrequest.StatusNew,
		SubmittedAt:          now,
		UpdatedAt:            now,
	}
	st.clientRequests[req.ID] = req
	return &req, nil
}

func (r clientRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*clientrequest.ClientRequest, error) {
	st, release := r.acc.read()
	defer release()

	req, ok := st.clientRequests[id]
	if !ok {
		return nil, apperrors.NotFound(errClientRequestNotFound)
	}
	return &req, nil
}

func (r clientRequestRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*clientrequest.ClientRequest, error) {
	return r.GetByID(ctx, id)
}

func (r clientRequestRepo) List(ctx context.Context, filter clientrequest.ListFilter) ([]*clientrequest.ClientRequest, error) {
	st, release := r.acc.read()
	defer release()

	var out []*clientrequest.ClientRequest
	for _, req := range st.clientRequests {
		if filter.ClientID != nil && req.ClientID != *filter.ClientID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasRequestStatus(filter.Statuses, req.Status) {
			continue
		}
		req := req
		out = append(out, &req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r clientRequestRepo) UpdateStatus(ctx context.Context, input clientrequest.UpdateStatusInput) (*clientrequest.ClientRequest, error) {
	st, release := r.acc.write()
	defer release()

	req, ok := st.clientRequests[input.RequestID]
	if !ok {
		return nil, apperrors.NotFound(errClientRequestNotFound)
	}
	if req.Status != input.From {
		return nil, apperrors.InvalidTransition(fmt.Sprintf(errRequestStatusChangedFmt, string(input.From)), string(req.Status))
	}
	req.Status = input.To
	if input.AssignedAccountManagerID != nil {
		id := *input.AssignedAccountManagerID
		req.AssignedAccountManagerID = &id
	}
	req.UpdatedAt = st.tick(r.acc.clock())
	st.clientRequests[req.ID] = req
	return &req, nil
}

func hasRequestStatus(statuses []clientrequest.Status, s clientrequest.Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
