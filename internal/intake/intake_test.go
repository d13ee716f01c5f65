package intake

import (
	"context"
	"errors"
	"testing"

	"lab-service/internal/domain/clientrequest"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/ledger"
	"lab-service/internal/lifecycle"
	"lab-service/internal/policy"
	"lab-service/internal/repository"
	"lab-service/internal/repository/memory"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	service *Service

	client   *principal.Principal
	other    *principal.Principal
	manager  *principal.Principal
	engineer *principal.Principal
	director *principal.Principal
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	pol := policy.Default()
	engine := lifecycle.NewEngine(store, pol, ledger.New(nil))

	h := &harness{t: t, ctx: context.Background(), store: store}
	h.service = NewService(store, pol, engine, nil, nil)
	h.client = h.newPrincipal(principal.RoleExternalClient, "client")
	h.other = h.newPrincipal(principal.RoleExternalClient, "other")
	h.manager = h.newPrincipal(principal.RoleAccountManager, "manager")
	h.engineer = h.newPrincipal(principal.RoleEngineer, "engineer")
	h.director = h.newPrincipal(principal.RoleLabDirector, "director")
	return h
}

func (h *harness) newPrincipal(role principal.Role, name string) *principal.Principal {
	h.t.Helper()
	p, err := h.store.Principals().Create(h.ctx, principal.CreatePrincipalInput{
		Email: name + "@lab.example", FullName: name, Role: role,
	})
	require.NoError(h.t, err)
	return p
}

func (h *harness) submit() *clientrequest.ClientRequest {
	h.t.Helper()
	req, err := h.service.SubmitRequest(h.ctx, h.client, SubmitInput{
		RequestType:          clientrequest.RequestTypeProblem,
		Title:                "Cracked housings",
		Description:          "Housings crack after thermal cycling",
		DetailedRequirements: "Reproduce failure at -20C to 80C",
	})
	require.NoError(h.t, err)
	return req
}

func (h *harness) move(req *clientrequest.ClientRequest, statuses ...clientrequest.Status) *clientrequest.ClientRequest {
	h.t.Helper()
	for _, s := range statuses {
		var err error
		req, err = h.service.UpdateRequestStatus(h.ctx, h.manager, req.ID, s)
		require.NoError(h.t, err)
	}
	return req
}

func TestCanMove(t *testing.T) {
	tests := []struct {
		from, to clientrequest.Status
		want     bool
	}{
		{clientrequest.StatusNew, clientrequest.StatusUnderReview, true},
		{clientrequest.StatusNew, clientrequest.StatusRejected, true},
		{clientrequest.StatusNew, clientrequest.StatusQuoted, false},
		{clientrequest.StatusUnderReview, clientrequest.StatusQuoted, true},
		{clientrequest.StatusQuoted, clientrequest.StatusAccepted, true},
		{clientrequest.StatusQuoted, clientrequest.StatusUnderReview, true},
		{clientrequest.StatusAccepted, clientrequest.StatusQuoted, false},
		{clientrequest.StatusRejected, clientrequest.StatusNew, false},
		{clientrequest.StatusUnderReview, clientrequest.StatusConvertedToProject, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanMove(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestSubmitRequest(t *testing.T) {
	h := newHarness(t)

	req := h.submit()
	assert.Equal(t, clientrequest.StatusNew, req.Status)
	assert.Equal(t, clientrequest.PriorityMedium, req.Priority)
	assert.Equal(t, h.client.ID, req.ClientID)

	_, err := h.service.SubmitRequest(h.ctx, h.client, SubmitInput{RequestType: "complaint", Title: "t", Description: "d"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = h.service.SubmitRequest(h.ctx, h.client, SubmitInput{RequestType: clientrequest.RequestTypeProposal, Title: " ", Description: "d"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = h.service.SubmitRequest(h.ctx, h.engineer, SubmitInput{RequestType: clientrequest.RequestTypeProposal, Title: "t", Description: "d"})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestListAndGetScoping(t *testing.T) {
	h := newHarness(t)
	req := h.submit()

	own, err := h.service.ListRequests(h.ctx, h.client)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	none, err := h.service.ListRequests(h.ctx, h.other)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := h.service.ListRequests(h.ctx, h.manager)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = h.service.GetRequest(h.ctx, h.other, req.ID)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = h.service.GetRequest(h.ctx, h.client, uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateRequestStatus(t *testing.T) {
	h := newHarness(t)
	req := h.submit()

	reviewed := h.move(req, clientrequest.StatusUnderReview)
	require.NotNil(t, reviewed.AssignedAccountManagerID)
	assert.Equal(t, h.manager.ID, *reviewed.AssignedAccountManagerID)

	_, err := h.service.UpdateRequestStatus(h.ctx, h.manager, req.ID, clientrequest.StatusAccepted)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	_, err = h.service.UpdateRequestStatus(h.ctx, h.client, req.ID, clientrequest.StatusQuoted)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = h.service.UpdateRequestStatus(h.ctx, h.manager, req.ID, "archived")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	accepted := h.move(reviewed, clientrequest.StatusQuoted, clientrequest.StatusAccepted)
	assert.Equal(t, clientrequest.StatusAccepted, accepted.Status)

	_, err = h.service.UpdateRequestStatus(h.ctx, h.director, req.ID, clientrequest.StatusRejected)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
}

func TestAssignAccountManager(t *testing.T) {
	h := newHarness(t)
	req := h.submit()
	second := h.newPrincipal(principal.RoleAccountManager, "second")

	_, err := h.service.AssignAccountManager(h.ctx, h.manager, req.ID, second.ID)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = h.service.AssignAccountManager(h.ctx, h.director, req.ID, h.engineer.ID)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	assigned, err := h.service.AssignAccountManager(h.ctx, h.director, req.ID, second.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedAccountManagerID)
	assert.Equal(t, second.ID, *assigned.AssignedAccountManagerID)
	assert.Equal(t, clientrequest.StatusNew, assigned.Status)

	self, err := h.service.AssignAccountManager(h.ctx, h.manager, req.ID, h.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, h.manager.ID, *self.AssignedAccountManagerID)
}

func TestConvertToProject(t *testing.T) {
	h := newHarness(t)
	req := h.submit()

	_, err := h.service.ConvertToProject(h.ctx, h.engineer, req.ID, project.Content{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	h.move(req, clientrequest.StatusUnderReview)

	_, err = h.service.ConvertToProject(h.ctx, h.manager, req.ID, project.Content{})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	out, err := h.service.ConvertToProject(h.ctx, h.engineer, req.ID, project.Content{})
	require.NoError(t, err)
	assert.Equal(t, project.StatusDraft, out.Project.Status)
	assert.Equal(t, h.engineer.ID, out.Project.EngineerID)
	assert.Equal(t, "Cracked housings", out.Project.Content.Title)
	assert.Equal(t, "Reproduce failure at -20C to 80C", out.Project.Content.Objectives)
	require.NotNil(t, out.Project.LinkedClientRequestID)
	assert.Equal(t, req.ID, *out.Project.LinkedClientRequestID)
	assert.Equal(t, clientrequest.StatusConvertedToProject, out.Request.Status)

	_, err = h.service.ConvertToProject(h.ctx, h.engineer, req.ID, project.Content{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	_, err = h.service.UpdateRequestStatus(h.ctx, h.manager, req.ID, clientrequest.StatusRejected)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
}

// failingStore makes the status write of a conversion fail so the draft
// created before it must not survive.
type failingStore struct {
	*memory.Store
}

func (s failingStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.InTx(ctx, func(tx repository.Tx) error {
		return fn(failingTx{Tx: tx})
	})
}

type failingTx struct {
	repository.Tx
}

func (t failingTx) ClientRequests() repository.ClientRequestRepository {
	return failingRequests{ClientRequestRepository: t.Tx.ClientRequests()}
}

type failingRequests struct {
	repository.ClientRequestRepository
}

func (failingRequests) UpdateStatus(context.Context, clientrequest.UpdateStatusInput) (*clientrequest.ClientRequest, error) {
	return nil, errors.New("deadlock detected")
}

func TestConvertToProject_Atomic(t *testing.T) {
	h := newHarness(t)
	req := h.move(h.submit(), clientrequest.StatusUnderReview)

	pol := policy.Default()
	store := failingStore{Store: h.store}
	svc := NewService(store, pol, lifecycle.NewEngine(store, pol, ledger.New(nil)), nil, nil)

	_, err := svc.ConvertToProject(h.ctx, h.engineer, req.ID, project.Content{})
	assert.True(t, errors.Is(err, apperrors.ErrDependencyFailure))

	projects, err := h.store.Projects().List(h.ctx, project.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, projects)

	current, err := h.store.ClientRequests().GetByID(h.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, clientrequest.StatusUnderReview, current.Status)
}
