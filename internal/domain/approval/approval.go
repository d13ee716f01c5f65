package approval

import (
	"fmt"
	"time"

	"lab-service/internal/domain/principal"

	"github.com/google/uuid"
)

// Approval is the current verdict of one reviewer role on one project.
type Approval struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	ApproverID   *uuid.UUID
	ApproverRole principal.Role
	Status       Status
	Comments     string
	ApprovedAt   *time.Time
	DecidedAt    time.Time
	CreatedAt    time.Time
}

type Status string

const (
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusChangesRequested Status = "changes_requested"

	errInvalidDecisionFmt = "invalid decision: %s"
)

// Decision is the subset of statuses a reviewer may record.
type Decision = Status

func ValidateDecision(d Decision) error {
	switch d {
	case StatusApproved, StatusChangesRequested:
		return nil
	default:
		return fmt.Errorf(errInvalidDecisionFmt, d)
	}
}

// UpsertInput replaces the current row for (ProjectID, ApproverRole) or creates it.
type UpsertInput struct {
	ProjectID    uuid.UUID
	ApproverID   uuid.UUID
	ApproverRole principal.Role
	Status       Status
	Comments     string
	ApprovedAt   *time.Time
	DecidedAt    time.Time
}

// ReviewEntry is an approval annotated with the deciding principal's name.
type ReviewEntry struct {
	Approval
	ApproverName string
}
