package repository

import (
	"context"

	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/clientrequest"
	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/domain/result"

	"github.com/google/uuid"
)

// PrincipalRepository defines principal (user directory) data access operations
type PrincipalRepository interface {
	Create(ctx context.Context, input principal.CreatePrincipalInput) (*principal.Principal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*principal.Principal, error)
	GetByEmail(ctx context.Context, email string) (*principal.Principal, error)
	List(ctx context.Context) ([]*principal.Principal, error)
	ListActiveByRole(ctx context.Context, role principal.Role) ([]*principal.Principal, error)
	UpdateAccess(ctx context.Context, id uuid.UUID, input principal.UpdateAccessInput) (*principal.Principal, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CountByRole(ctx context.Context, role principal.Role) (int, error)
}

// ProjectRepository defines project data access operations
type ProjectRepository interface {
	Create(ctx context.Context, input project.CreateProjectInput) (*project.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error)
	// GetForUpdate reads the project and, inside a transaction, locks it
	// until commit.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*project.Project, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content project.Content) (*project.Project, error)
	// TransitionStatus moves the project from input.From to input.To and
	// fails with an InvalidTransition error when the stored status is not
	// input.From.
	TransitionStatus(ctx context.Context, input project.TransitionInput) (*project.Project, error)
	List(ctx context.Context, filter project.ListFilter) ([]*project.Project, error)
}

// ApprovalRepository defines approval ledger data access operations
type ApprovalRepository interface {
	GetCurrent(ctx context.Context, projectID uuid.UUID, role principal.Role) (*approval.Approval, error)
	Upsert(ctx context.Context, input approval.UpsertInput) (*approval.Approval, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*approval.ReviewEntry, error)
}

// ResultRepository defines project result metadata data access operations
type ResultRepository interface {
	Create(ctx context.Context, input result.CreateResultInput) (*result.ProjectResult, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*result.ProjectResult, error)
}

// ClientRequestRepository defines client request data access operations
type ClientRequestRepository interface {
	Create(ctx context.Context, input clientrequest.CreateRequestInput) (*clientrequest.ClientRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*clientrequest.ClientRequest, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*clientrequest.ClientRequest, error)
	List(ctx context.Context, filter clientrequest.ListFilter) ([]*clientrequest.ClientRequest, error)
	// UpdateStatus follows the same compare-and-set contract as
	// ProjectRepository.TransitionStatus.
	UpdateStatus(ctx context.Context, input clientrequest.UpdateStatusInput) (*clientrequest.ClientRequest, error)
}

// NotificationRepository defines notification data access operations
type NotificationRepository interface {
	Create(ctx context.Context, input notification.CreateNotificationInput) (*notification.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}
