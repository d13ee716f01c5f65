// Package policy decides whether a principal may perform an action on a
// resource. Role capabilities come from the rbac table; ownership and
// project state are checked here.
package policy

import (
	"lab-service/internal/domain/clientrequest"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/rbac"
	"lab-service/internal/rbac/presets"
	apperrors "lab-service/pkg/errors"
)

type Action = rbac.Action

// Verdict is the outcome of evaluating a request.
type Verdict int

const (
	Allow Verdict = iota
	// DenyRole: the role lacks the capability, or the principal is inactive.
	DenyRole
	// DenyOwnership: the role has the capability but not over this resource.
	DenyOwnership
	// DenyState: the resource is not in a state that admits the action.
	DenyState
)

// Resource names the target of an action. Project, ClientRequest and
// Principal are set when the action concerns one specific object.
type Resource struct {
	Kind          rbac.Resource
	Project       *project.Project
	ClientRequest *clientrequest.ClientRequest
	Principal     *principal.Principal
}

func ProjectResource(p *project.Project) Resource {
	return Resource{Kind: presets.ResourceProject, Project: p}
}

func ApprovalResource(p *project.Project) Resource {
	return Resource{Kind: presets.ResourceApproval, Project: p}
}

func ResultResource(p *project.Project) Resource {
	return Resource{Kind: presets.ResourceResult, Project: p}
}

func ClientRequestResource(r *clientrequest.ClientRequest) Resource {
	return Resource{Kind: presets.ResourceClientRequest, ClientRequest: r}
}

func PrincipalResource(p *principal.Principal) Resource {
	return Resource{Kind: presets.ResourcePrincipal, Principal: p}
}

// Kind is a resource with no specific target, used for create and list.
func Kind(kind rbac.Resource) Resource {
	return Resource{Kind: kind}
}

// transitionActions are denied on state with InvalidTransition rather than
// Forbidden.
var transitionActions = map[Action]bool{
	presets.ActionSubmit:   true,
	presets.ActionDecide:   true,
	presets.ActionStart:    true,
	presets.ActionComplete: true,
	presets.ActionConvert:  true,
	presets.ActionRespond:  true,
}

// qualityVisible are the project statuses a quality manager may read.
var qualityVisible = map[project.Status]bool{
	project.StatusApproved:   true,
	project.StatusInProgress: true,
	project.StatusCompleted:  true,
}

type Policy struct {
	checker *rbac.Checker
}

func New(checker *rbac.Checker) *Policy {
	return &Policy{checker: checker}
}

// Default returns a Policy over the lab workflow capability table.
func Default() *Policy {
	return New(rbac.MustNew(presets.LabWorkflow()))
}

// Evaluate is a pure function of its arguments.
func (p *Policy) Evaluate(who *principal.Principal, action Action, res Resource) Verdict {
	if who == nil || !who.IsActive {
		return DenyRole
	}
	if !p.checker.IsAuthorized(rbac.Role(who.Role), res.Kind, action) {
		return DenyRole
	}

	switch res.Kind {
	case presets.ResourceProject, presets.ResourceApproval, presets.ResourceResult:
		if res.Project != nil {
			return evaluateProject(who, action, res.Project)
		}
	case presets.ResourceClientRequest:
		if res.ClientRequest != nil {
			return evaluateClientRequest(who, action, res.ClientRequest)
		}
	}
	return Allow
}

// CanAct reports whether the principal may perform the action.
func (p *Policy) CanAct(who *principal.Principal, action Action, res Resource) bool {
	return p.Evaluate(who, action, res) == Allow
}

// Authorize converts a denial into the error callers return: Forbidden in
// general, InvalidTransition carrying the current status when a transition
// is refused only because of the target's state.
func (p *Policy) Authorize(who *principal.Principal, action Action, res Resource) error {
	switch p.Evaluate(who, action, res) {
	case Allow:
		return nil
	case DenyState:
		if transitionActions[action] {
			return apperrors.InvalidTransition(errWrongState(action), currentStatus(res))
		}
		return apperrors.Forbidden(errStateForbidden(action))
	default:
		return apperrors.Forbidden(errForbidden(action, res.Kind))
	}
}

// ValidRole rejects roles the capability table does not know.
func (p *Policy) ValidRole(role principal.Role) error {
	if _, err := p.checker.ValidateRole(string(role)); err != nil {
		return apperrors.Validation(err.Error())
	}
	return nil
}

// RolesWith lists the roles whose capability table grants action on kind.
func (p *Policy) RolesWith(kind rbac.Resource, action Action) []principal.Role {
	roles := p.checker.RolesWith(kind, action)
	out := make([]principal.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, principal.Role(r))
	}
	return out
}

func evaluateProject(who *principal.Principal, action Action, proj *project.Project) Verdict {
	owner := proj.EngineerID == who.ID

	switch action {
	case presets.ActionRead:
		return evaluateProjectRead(who, proj)
	case presets.ActionUpdate:
		if !owner {
			return DenyOwnership
		}
		if proj.Status != project.StatusDraft {
			return DenyState
		}
	case presets.ActionSubmit:
		if !owner {
			return DenyOwnership
		}
		if proj.Status != project.StatusDraft {
			return DenyState
		}
	case presets.ActionUpload:
		if !owner {
			return DenyOwnership
		}
		if proj.Status != project.StatusApproved {
			return DenyState
		}
	case presets.ActionDecide:
		pending, ok := project.PendingStatusFor(who.Role)
		if !ok {
			return DenyRole
		}
		if proj.Status != pending {
			return DenyState
		}
	case presets.ActionStart:
		if proj.Status != project.StatusApproved {
			return DenyState
		}
	case presets.ActionComplete:
		if proj.Status != project.StatusInProgress {
			return DenyState
		}
	}
	return Allow
}

func evaluateProjectRead(who *principal.Principal, proj *project.Project) Verdict {
	switch {
	case who.Role == principal.RoleLabDirector:
		return Allow
	case who.Role == principal.RoleEngineer:
		if proj.EngineerID != who.ID {
			return DenyOwnership
		}
	case who.Role == principal.RoleQualityManager:
		if !qualityVisible[proj.Status] {
			return DenyState
		}
	case who.Role.IsReviewer():
		if proj.Status == project.StatusDraft {
			return DenyState
		}
	}
	return Allow
}

func evaluateClientRequest(who *principal.Principal, action Action, req *clientrequest.ClientRequest) Verdict {
	if who.Role == principal.RoleExternalClient && req.ClientID != who.ID {
		return DenyOwnership
	}

	switch action {
	case presets.ActionConvert:
		if !req.Status.Convertible() {
			return DenyState
		}
	case presets.ActionRespond:
		if req.Status == clientrequest.StatusConvertedToProject {
			return DenyState
		}
	}
	return Allow
}

func currentStatus(res Resource) string {
	switch {
	case res.Project != nil:
		return string(res.Project.Status)
	case res.ClientRequest != nil:
		return string(res.ClientRequest.Status)
	default:
		return ""
	}
}
