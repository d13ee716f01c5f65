package project

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID                    uuid.UUID
	EngineerID            uuid.UUID
	Content               Content
	Status                Status
	LinkedClientRequestID *uuid.UUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
	SubmittedAt           *time.Time
}

// Content holds the engineer-editable text of a project.
type Content struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Objectives           string   `json:"objectives"`
	EquipmentNeeded      []string `json:"equipment_needed"`
	TimelineDuration     string   `json:"timeline_duration"`
	SafetyConsiderations string   `json:"safety_considerations"`
	ExpectedOutcomes     string   `json:"expected_outcomes"`
}

type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingSupervisor Status = "pending_supervisor"
	StatusPendingHSM        Status = "pending_hsm"
	StatusPendingTechnician Status = "pending_technician"
	StatusApproved          Status = "approved"
	StatusInProgress        Status = "in_progress"
	StatusCompleted         Status = "completed"

	errInvalidStatusFmt = "invalid project status: %s"
)

// Statuses lists the seven lifecycle states in lifecycle order.
var Statuses = []Status{
	StatusDraft,
	StatusPendingSupervisor,
	StatusPendingHSM,
	StatusPendingTechnician,
	StatusApproved,
	StatusInProgress,
	StatusCompleted,
}

func (s Status) Validate() error {
	for _, known := range Statuses {
		if s == known {
			return nil
		}
	}
	return fmt.Errorf(errInvalidStatusFmt, s)
}

// IsPending reports whether the project is waiting on a reviewer.
func (s Status) IsPending() bool {
	return s == StatusPendingSupervisor || s == StatusPendingHSM || s == StatusPendingTechnician
}

type CreateProjectInput struct {
	EngineerID            uuid.UUID
	Content               Content
	LinkedClientRequestID *uuid.UUID
}

type TransitionInput struct {
	ProjectID   uuid.UUID
	From        Status
	To          Status
	SubmittedAt *time.Time
}

type ListFilter struct {
	EngineerID *uuid.UUID
	Statuses   []Status
}
