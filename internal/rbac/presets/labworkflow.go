package presets

import (
	"lab-service/internal/domain/principal"
	"lab-service/internal/rbac"
)

const (
	ResourceProject       rbac.Resource = "project"
	ResourceApproval      rbac.Resource = "approval"
	ResourceReviewQueue   rbac.Resource = "review_queue"
	ResourceResult        rbac.Resource = "result"
	ResourceClientRequest rbac.Resource = "client_request"
	ResourcePrincipal     rbac.Resource = "principal"
	ResourceNotification  rbac.Resource = "notification"

	ActionCreate   rbac.Action = "create"
	ActionRead     rbac.Action = "read"
	ActionList     rbac.Action = "list"
	ActionUpdate   rbac.Action = "update"
	ActionSubmit   rbac.Action = "submit"
	ActionDecide   rbac.Action = "decide"
	ActionUpload   rbac.Action = "upload"
	ActionStart    rbac.Action = "start"
	ActionComplete rbac.Action = "complete"
	ActionRespond  rbac.Action = "respond"
	ActionAssign   rbac.Action = "assign"
	ActionConvert  rbac.Action = "convert"
	ActionManage   rbac.Action = "manage"
)

func role(r principal.Role) rbac.Role { return rbac.Role(r) }

// LabWorkflow returns the capability table of the lab approval workflow.
// Ownership and project state are checked on top of it by the policy
// package.
func LabWorkflow() rbac.Config {
	roles := make([]rbac.Role, 0, len(principal.Roles))
	for _, r := range principal.Roles {
		roles = append(roles, role(r))
	}

	reviewer := map[rbac.Resource][]rbac.Action{
		ResourceProject:      {ActionRead, ActionList},
		ResourceApproval:     {ActionRead, ActionDecide},
		ResourceReviewQueue:  {ActionRead},
		ResourceResult:       {ActionRead},
		ResourceNotification: {ActionRead},
	}

	return rbac.Config{
		Roles: roles,
		Resources: []rbac.Resource{
			ResourceProject,
			ResourceApproval,
			ResourceReviewQueue,
			ResourceResult,
			ResourceClientRequest,
			ResourcePrincipal,
			ResourceNotification,
		},
		Actions: []rbac.Action{
			ActionCreate,
			ActionRead,
			ActionList,
			ActionUpdate,
			ActionSubmit,
			ActionDecide,
			ActionUpload,
			ActionStart,
			ActionComplete,
			ActionRespond,
			ActionAssign,
			ActionConvert,
			ActionManage,
		},
		Capabilities: map[rbac.Role]map[rbac.Resource][]rbac.Action{
			role(principal.RoleLabDirector): {
				ResourceProject:       {ActionRead, ActionList, ActionStart, ActionComplete},
				ResourceApproval:      {ActionRead},
				ResourceResult:        {ActionRead},
				ResourceClientRequest: {ActionRead, ActionList, ActionRespond, ActionAssign},
				ResourcePrincipal:     {ActionCreate, ActionRead, ActionList, ActionManage},
				ResourceNotification:  {ActionRead},
			},
			role(principal.RoleEngineer): {
				ResourceProject:       {ActionCreate, ActionRead, ActionList, ActionUpdate, ActionSubmit},
				ResourceApproval:      {ActionRead},
				ResourceResult:        {ActionRead, ActionUpload},
				ResourceClientRequest: {ActionRead, ActionList, ActionConvert},
				ResourceNotification:  {ActionRead},
			},
			role(principal.RoleSupervisor):    reviewer,
			role(principal.RoleHSM):           reviewer,
			role(principal.RoleLabTechnician): reviewer,
			role(principal.RoleQualityManager): {
				ResourceProject:      {ActionRead, ActionList},
				ResourceApproval:     {ActionRead},
				ResourceResult:       {ActionRead},
				ResourceNotification: {ActionRead},
			},
			role(principal.RoleAccountManager): {
				ResourceClientRequest: {ActionRead, ActionList, ActionRespond, ActionAssign},
				ResourceNotification:  {ActionRead},
			},
			role(principal.RoleExternalClient): {
				ResourceClientRequest: {ActionCreate, ActionRead, ActionList},
				ResourceNotification:  {ActionRead},
			},
		},
	}
}
