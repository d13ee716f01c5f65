package clientrequest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ClientRequest struct {
	ID                       uuid.UUID
	ClientID                 uuid.UUID
	RequestType              RequestType
	Title                    string
	Description              string
	DetailedRequirements     string
	Priority                 Priority
	Status                   Status
	AssignedAccountManagerID *uuid.UUID
	SubmittedAt              time.Time
	UpdatedAt                time.Time
}

type Status string

const (
	StatusNew                Status = "new"
	StatusUnderReview        Status = "under_review"
	StatusQuoted             Status = "quoted"
	StatusAccepted           Status = "accepted"
	StatusRejected           Status = "rejected"
	StatusConvertedToProject Status = "converted_to_project"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type RequestType string

const (
	RequestTypeProblem  RequestType = "problem"
	RequestTypeProposal RequestType = "proposal"
)

const (
	errInvalidStatusFmt      = "invalid request status: %s"
	errInvalidPriorityFmt    = "invalid priority: %s"
	errInvalidRequestTypeFmt = "invalid request type: %s"
)

func (s Status) Validate() error {
	switch s {
	case StatusNew, StatusUnderReview, StatusQuoted, StatusAccepted, StatusRejected, StatusConvertedToProject:
		return nil
	default:
		return fmt.Errorf(errInvalidStatusFmt, s)
	}
}

func (p Priority) Validate() error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return nil
	default:
		return fmt.Errorf(errInvalidPriorityFmt, p)
	}
}

func (t RequestType) Validate() error {
	switch t {
	case RequestTypeProblem, RequestTypeProposal:
		return nil
	default:
		return fmt.Errorf(errInvalidRequestTypeFmt, t)
	}
}

// Convertible reports whether a project may still be seeded from the request.
func (s Status) Convertible() bool {
	return s == StatusUnderReview || s == StatusQuoted || s == StatusAccepted
}

type CreateRequestInput struct {
	ClientID             uuid.UUID
	RequestType          RequestType
	Title                string
	Description          string
	DetailedRequirements string
	Priority             Priority
}

type UpdateStatusInput struct {
	RequestID                uuid.UUID
	From                     Status
	To                       Status
	AssignedAccountManagerID *uuid.UUID
}

type ListFilter struct {
	ClientID *uuid.UUID
	Statuses []Status
}
