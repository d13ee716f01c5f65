package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeProjectSubmitted       Type = "project_submitted"
	TypeApprovalDecision       Type = "approval_decision"
	TypeReviewRequested        Type = "review_requested"
	TypeProjectApproved        Type = "project_approved"
	TypeProjectStatusChanged   Type = "project_status_changed"
	TypeClientRequestSubmitted Type = "client_request_submitted"
	TypeClientRequestUpdated   Type = "client_request_updated"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      Type
	Payload   map[string]string
	IsRead    bool
	CreatedAt time.Time
}

type CreateNotificationInput struct {
	UserID  uuid.UUID
	Type    Type
	Payload map[string]string
}
