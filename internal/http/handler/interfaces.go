package handler

import (
	"context"

	"lab-service/internal/directory"
	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/clientrequest"
	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/domain/result"
	"lab-service/internal/intake"
	"lab-service/internal/lifecycle"

	"github.com/google/uuid"
)

// Consumer-side interfaces defined by handlers
// Each interface contains only the methods needed by the specific handler

// AuthHandler and UserHandler
type Directory interface {
	Login(ctx context.Context, email, pass string) (*directory.Session, error)
	Me(ctx context.Context, who *principal.Principal) (*principal.Principal, error)
	ChangePassword(ctx context.Context, who *principal.Principal, current, next string) error
	ProvisionUser(ctx context.Context, who *principal.Principal, input directory.ProvisionInput) (*principal.Principal, error)
	ListUsers(ctx context.Context, who *principal.Principal) ([]*principal.Principal, error)
	UpdateAccess(ctx context.Context, who *principal.Principal, id uuid.UUID, input principal.UpdateAccessInput) (*principal.Principal, error)
}

// ProjectHandler
type Lifecycle interface {
	CreateProject(ctx context.Context, who *principal.Principal, content project.Content) (*project.Project, error)
	UpdateProject(ctx context.Context, who *principal.Principal, id uuid.UUID, content project.Content) (*project.Project, error)
	SubmitForApproval(ctx context.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error)
	Decide(ctx context.Context, who *principal.Principal, id uuid.UUID, decision approval.Decision, comments string) (*lifecycle.DecisionOutcome, error)
	StartWork(ctx context.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error)
	Complete(ctx context.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error)
	GetProject(ctx context.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error)
	ListProjects(ctx context.Context, who *principal.Principal) ([]*project.Project, error)
	ListReviewQueue(ctx context.Context, who *principal.Principal) ([]*project.Project, error)
	GetReviewHistory(ctx context.Context, who *principal.Principal, id uuid.UUID) ([]*approval.ReviewEntry, error)
	UploadResult(ctx context.Context, who *principal.Principal, id uuid.UUID, upload lifecycle.ResultUpload) (*result.ProjectResult, error)
	ListResults(ctx context.Context, who *principal.Principal, id uuid.UUID) ([]*result.ProjectResult, error)
}

// ClientRequestHandler
type Intake interface {
	SubmitRequest(ctx context.Context, who *principal.Principal, input intake.SubmitInput) (*clientrequest.ClientRequest, error)
	ListRequests(ctx context.Context, who *principal.Principal) ([]*clientrequest.ClientRequest, error)
	GetRequest(ctx context.Context, who *principal.Principal, id uuid.UUID) (*clientrequest.ClientRequest, error)
	UpdateRequestStatus(ctx context.Context, who *principal.Principal, id uuid.UUID, to clientrequest.Status) (*clientrequest.ClientRequest, error)
	AssignAccountManager(ctx context.Context, who *principal.Principal, id, managerID uuid.UUID) (*clientrequest.ClientRequest, error)
	ConvertToProject(ctx context.Context, who *principal.Principal, id uuid.UUID, content project.Content) (*intake.Conversion, error)
}

// NotificationHandler
type Inbox interface {
	List(ctx context.Context, who *principal.Principal, unreadOnly bool) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, who *principal.Principal, id uuid.UUID) error
}
