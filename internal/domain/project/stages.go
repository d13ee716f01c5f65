package project

import "lab-service/internal/domain/principal"

// Stage is one step of the review chain: the role that decides and the
// status a project holds while waiting on it.
type Stage struct {
	Role    principal.Role
	Pending Status
}

// ReviewStages is the review chain in the order a project passes through it.
var ReviewStages = []Stage{
	{Role: principal.RoleSupervisor, Pending: StatusPendingSupervisor},
	{Role: principal.RoleHSM, Pending: StatusPendingHSM},
	{Role: principal.RoleLabTechnician, Pending: StatusPendingTechnician},
}

// PendingStatusFor returns the status in which role is expected to decide.
func PendingStatusFor(role principal.Role) (Status, bool) {
	for _, s := range ReviewStages {
		if s.Role == role {
			return s.Pending, true
		}
	}
	return "", false
}

// StageIndex returns the position of the pending status in the chain, or -1.
func StageIndex(status Status) int {
	for i, s := range ReviewStages {
		if s.Pending == status {
			return i
		}
	}
	return -1
}
