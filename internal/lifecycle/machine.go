package lifecycle

import (
	"fmt"

	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	apperrors "lab-service/pkg/errors"
)

// Event is something that may move a project between statuses.
type Event string

const (
	EventSubmit         Event = "submit"
	EventApprove        Event = "approve"
	EventRequestChanges Event = "request_changes"
	EventStart          Event = "start"
	EventComplete       Event = "complete"
)

// EventForDecision maps a reviewer decision onto the event it triggers.
func EventForDecision(d approval.Decision) (Event, error) {
	switch d {
	case approval.StatusApproved:
		return EventApprove, nil
	case approval.StatusChangesRequested:
		return EventRequestChanges, nil
	default:
		return "", apperrors.Validation(fmt.Sprintf(errUnknownDecisionFmt, d))
	}
}

// Next returns the status a project in from moves to on ev. role is the
// acting reviewer role and only matters for approve and request_changes.
// Every other combination is an InvalidTransition carrying from.
func Next(from project.Status, ev Event, role principal.Role) (project.Status, error) {
	switch ev {
	case EventSubmit:
		if from == project.StatusDraft {
			return project.ReviewStages[0].Pending, nil
		}
	case EventApprove:
		if pending, ok := project.PendingStatusFor(role); ok && from == pending {
			i := project.StageIndex(from)
			if i+1 < len(project.ReviewStages) {
				return project.ReviewStages[i+1].Pending, nil
			}
			return project.StatusApproved, nil
		}
	case EventRequestChanges:
		if pending, ok := project.PendingStatusFor(role); ok && from == pending {
			return project.StatusDraft, nil
		}
	case EventStart:
		if from == project.StatusApproved {
			return project.StatusInProgress, nil
		}
	case EventComplete:
		if from == project.StatusInProgress {
			return project.StatusCompleted, nil
		}
	}
	return "", apperrors.InvalidTransition(fmt.Sprintf(errNoTransitionFmt, ev, from), string(from))
}

// IsTerminal reports whether no event leaves status.
func IsTerminal(status project.Status) bool {
	return status == project.StatusCompleted
}

// RequiredApprovals lists the reviewer roles whose current verdict must be
// approved for a project to hold status.
func RequiredApprovals(status project.Status) []principal.Role {
	var n int
	switch status {
	case project.StatusApproved, project.StatusInProgress, project.StatusCompleted:
		n = len(project.ReviewStages)
	default:
		n = project.StageIndex(status)
	}
	roles := make([]principal.Role, 0, len(project.ReviewStages))
	for i := 0; i < n; i++ {
		roles = append(roles, project.ReviewStages[i].Role)
	}
	return roles
}
