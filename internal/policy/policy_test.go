package policy

import (
	"errors"
	"testing"

	"lab-service/internal/domain/clientrequest"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/rbac/presets"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPrincipal(role principal.Role) *principal.Principal {
	return &principal.Principal{ID: uuid.New(), Role: role, IsActive: true, FullName: string(role)}
}

func newProject(owner uuid.UUID, status project.Status) *project.Project {
	return &project.Project{ID: uuid.New(), EngineerID: owner, Status: status}
}

func TestPolicy_EngineerOwnership(t *testing.T) {
	pol := Default()
	owner := newPrincipal(principal.RoleEngineer)
	other := newPrincipal(principal.RoleEngineer)
	draft := newProject(owner.ID, project.StatusDraft)

	tests := []struct {
		name   string
		who    *principal.Principal
		action Action
		proj   *project.Project
		want   Verdict
	}{
		{"owner updates draft", owner, presets.ActionUpdate, draft, Allow},
		{"owner submits draft", owner, presets.ActionSubmit, draft, Allow},
		{"other cannot update", other, presets.ActionUpdate, draft, DenyOwnership},
		{"other cannot submit", other, presets.ActionSubmit, draft, DenyOwnership},
		{"other cannot read", other, presets.ActionRead, draft, DenyOwnership},
		{"owner cannot update pending", owner, presets.ActionUpdate, newProject(owner.ID, project.StatusPendingHSM), DenyState},
		{"owner cannot submit approved", owner, presets.ActionSubmit, newProject(owner.ID, project.StatusApproved), DenyState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pol.Evaluate(tt.who, tt.action, ProjectResource(tt.proj)))
		})
	}
}

func TestPolicy_Upload(t *testing.T) {
	pol := Default()
	owner := newPrincipal(principal.RoleEngineer)

	assert.True(t, pol.CanAct(owner, presets.ActionUpload, ResultResource(newProject(owner.ID, project.StatusApproved))))
	assert.False(t, pol.CanAct(owner, presets.ActionUpload, ResultResource(newProject(owner.ID, project.StatusDraft))))
	assert.False(t, pol.CanAct(owner, presets.ActionUpload, ResultResource(newProject(uuid.New(), project.StatusApproved))))

	err := pol.Authorize(owner, presets.ActionUpload, ResultResource(newProject(owner.ID, project.StatusDraft)))
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestPolicy_Decide(t *testing.T) {
	pol := Default()
	engineer := uuid.New()

	for _, stage := range project.ReviewStages {
		reviewer := newPrincipal(stage.Role)
		for _, status := range project.Statuses {
			v := pol.Evaluate(reviewer, presets.ActionDecide, ApprovalResource(newProject(engineer, status)))
			if status == stage.Pending {
				assert.Equal(t, Allow, v, "%s on %s", stage.Role, status)
			} else {
				assert.Equal(t, DenyState, v, "%s on %s", stage.Role, status)
			}
		}
	}
}

func TestPolicy_DecideWrongStageIsInvalidTransition(t *testing.T) {
	pol := Default()
	supervisor := newPrincipal(principal.RoleSupervisor)

	err := pol.Authorize(supervisor, presets.ActionDecide, ApprovalResource(newProject(uuid.New(), project.StatusPendingHSM)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, string(project.StatusPendingHSM), appErr.Meta[apperrors.MetaCurrentStatus])
}

func TestPolicy_NonReviewersCannotDecide(t *testing.T) {
	pol := Default()
	proj := newProject(uuid.New(), project.StatusPendingSupervisor)

	for _, role := range []principal.Role{
		principal.RoleLabDirector,
		principal.RoleEngineer,
		principal.RoleQualityManager,
		principal.RoleAccountManager,
		principal.RoleExternalClient,
	} {
		err := pol.Authorize(newPrincipal(role), presets.ActionDecide, ApprovalResource(proj))
		assert.True(t, errors.Is(err, apperrors.ErrForbidden), role)
	}
}

func TestPolicy_InactiveDeniedEverything(t *testing.T) {
	pol := Default()

	director := newPrincipal(principal.RoleLabDirector)
	director.IsActive = false
	assert.Equal(t, DenyRole, pol.Evaluate(director, presets.ActionRead, ProjectResource(newProject(uuid.New(), project.StatusDraft))))
	assert.False(t, pol.CanAct(director, presets.ActionList, Kind(presets.ResourcePrincipal)))

	engineer := newPrincipal(principal.RoleEngineer)
	engineer.IsActive = false
	assert.False(t, pol.CanAct(engineer, presets.ActionCreate, Kind(presets.ResourceProject)))

	assert.Equal(t, DenyRole, pol.Evaluate(nil, presets.ActionRead, Kind(presets.ResourceProject)))
}

func TestPolicy_ProjectReadScopes(t *testing.T) {
	pol := Default()
	owner := uuid.New()

	tests := []struct {
		role   principal.Role
		status project.Status
		want   bool
	}{
		{principal.RoleLabDirector, project.StatusDraft, true},
		{principal.RoleQualityManager, project.StatusDraft, false},
		{principal.RoleQualityManager, project.StatusPendingHSM, false},
		{principal.RoleQualityManager, project.StatusApproved, true},
		{principal.RoleQualityManager, project.StatusCompleted, true},
		{principal.RoleSupervisor, project.StatusDraft, false},
		{principal.RoleSupervisor, project.StatusPendingTechnician, true},
		{principal.RoleAccountManager, project.StatusApproved, false},
		{principal.RoleExternalClient, project.StatusApproved, false},
	}

	for _, tt := range tests {
		got := pol.CanAct(newPrincipal(tt.role), presets.ActionRead, ProjectResource(newProject(owner, tt.status)))
		assert.Equal(t, tt.want, got, "%s reading %s", tt.role, tt.status)
	}
}

func TestPolicy_OperationalTransitions(t *testing.T) {
	pol := Default()
	director := newPrincipal(principal.RoleLabDirector)

	assert.True(t, pol.CanAct(director, presets.ActionStart, ProjectResource(newProject(uuid.New(), project.StatusApproved))))
	assert.True(t, pol.CanAct(director, presets.ActionComplete, ProjectResource(newProject(uuid.New(), project.StatusInProgress))))

	err := pol.Authorize(director, presets.ActionComplete, ProjectResource(newProject(uuid.New(), project.StatusApproved)))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	engineer := newPrincipal(principal.RoleEngineer)
	assert.False(t, pol.CanAct(engineer, presets.ActionStart, ProjectResource(newProject(engineer.ID, project.StatusApproved))))
}

func TestPolicy_ClientRequests(t *testing.T) {
	pol := Default()
	client := newPrincipal(principal.RoleExternalClient)
	stranger := newPrincipal(principal.RoleExternalClient)
	req := &clientrequest.ClientRequest{ID: uuid.New(), ClientID: client.ID, Status: clientrequest.StatusNew}

	assert.True(t, pol.CanAct(client, presets.ActionRead, ClientRequestResource(req)))
	assert.False(t, pol.CanAct(stranger, presets.ActionRead, ClientRequestResource(req)))
	assert.True(t, pol.CanAct(newPrincipal(principal.RoleAccountManager), presets.ActionRead, ClientRequestResource(req)))
	assert.False(t, pol.CanAct(client, presets.ActionRespond, ClientRequestResource(req)))

	engineer := newPrincipal(principal.RoleEngineer)
	assert.Equal(t, DenyState, pol.Evaluate(engineer, presets.ActionConvert, ClientRequestResource(req)))

	req.Status = clientrequest.StatusQuoted
	assert.Equal(t, Allow, pol.Evaluate(engineer, presets.ActionConvert, ClientRequestResource(req)))
}

func TestPolicy_RolesWith(t *testing.T) {
	pol := Default()
	assert.ElementsMatch(t,
		[]principal.Role{principal.RoleSupervisor, principal.RoleHSM, principal.RoleLabTechnician},
		pol.RolesWith(presets.ResourceApproval, presets.ActionDecide))
}

func TestPolicy_ValidRole(t *testing.T) {
	pol := Default()
	for _, r := range principal.Roles {
		assert.NoError(t, pol.ValidRole(r), r)
	}

	err := pol.ValidRole("janitor")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "janitor")
}
