// Package intake handles client requests up to the point where an engineer
// turns one into a draft project.
package intake

import (
	"context"
	"strings"

	"lab-service/internal/domain/clientrequest"
	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/policy"
	"lab-service/internal/rbac/presets"
	"lab-service/internal/repository"
	apperrors "lab-service/pkg/errors"
	"lab-service/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DraftCreator creates a draft project inside a caller's transaction.
type DraftCreator interface {
	CreateDraftIn(ctx context.Context, tx repository.Tx, who *principal.Principal, content project.Content, link *uuid.UUID) (*project.Project, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind notification.Type, payload map[string]string)
	NotifyRole(ctx context.Context, role principal.Role, kind notification.Type, payload map[string]string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uuid.UUID, notification.Type, map[string]string) {}
func (nopNotifier) NotifyRole(context.Context, principal.Role, notification.Type, map[string]string) {
}

// manualTransitions lists the status changes staff may make by hand.
// converted_to_project is reached only through ConvertToProject.
var manualTransitions = map[clientrequest.Status][]clientrequest.Status{
	clientrequest.StatusNew:         {clientrequest.StatusUnderReview, clientrequest.StatusRejected},
	clientrequest.StatusUnderReview: {clientrequest.StatusQuoted, clientrequest.StatusRejected},
	clientrequest.StatusQuoted:      {clientrequest.StatusAccepted, clientrequest.StatusRejected, clientrequest.StatusUnderReview},
}

// CanMove reports whether staff may move a request from one status to another.
func CanMove(from, to clientrequest.Status) bool {
	for _, allowed := range manualTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type SubmitInput struct {
	RequestType          clientrequest.RequestType
	Title                string
	Description          string
	DetailedRequirements string
	Priority             clientrequest.Priority
}

// Conversion is the outcome of ConvertToProject.
type Conversion struct {
	Project *project.Project
	Request *clientrequest.ClientRequest
}

type Service struct {
	store    repository.Store
	policy   *policy.Policy
	drafts   DraftCreator
	notifier Notifier
	logger   *zap.Logger
}

func NewService(store repository.Store, pol *policy.Policy, drafts DraftCreator, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{store: store, policy: pol, drafts: drafts, notifier: notifier, logger: logger}
}

// SubmitRequest records a new request from an external client.
func (s *Service) SubmitRequest(ctx context.Context, who *principal.Principal, input SubmitInput) (*clientrequest.ClientRequest, error) {
	if err := s.policy.Authorize(who, presets.ActionCreate, policy.Kind(presets.ResourceClientRequest)); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Priority == "" {
		input.Priority = clientrequest.PriorityMedium
	}
	if err := validateSubmit(input); err != nil {
		return nil, err
	}

	req, err := s.store.ClientRequests().Create(ctx, clientrequest.CreateRequestInput{
		ClientID:             who.ID,
		RequestType:          input.RequestType,
		Title:                input.Title,
		Description:          input.Description,
		DetailedRequirements: strings.TrimSpace(input.DetailedRequirements),
		Priority:             input.Priority,
	})
	if err != nil {
		return nil, apperrors.AsDependency(errCreateRequest, err)
	}

	s.logger.Info("client request submitted",
		zap.String("request_id", req.ID.String()),
		zap.String("client_id", who.ID.String()),
		zap.String("priority", string(req.Priority)),
	)
	s.notifier.NotifyRole(ctx, principal.RoleAccountManager, notification.TypeClientRequestSubmitted, requestPayload(req))
	return req, nil
}

// ListRequests returns the client's own requests, or every request for staff.
func (s *Service) ListRequests(ctx context.Context, who *principal.Principal) ([]*clientrequest.ClientRequest, error) {
	if err := s.policy.Authorize(who, presets.ActionList, policy.Kind(presets.ResourceClientRequest)); err != nil {
		return nil, err
	}

	var filter clientrequest.ListFilter
	if who.Role == principal.RoleExternalClient {
		filter.ClientID = &who.ID
	}
	reqs, err := s.store.ClientRequests().List(ctx, filter)
	if err != nil {
		return nil, apperrors.AsDependency(errListRequests, err)
	}
	return reqs, nil
}

func (s *Service) GetRequest(ctx context.Context, who *principal.Principal, id uuid.UUID) (*clientrequest.ClientRequest, error) {
	req, err := s.store.ClientRequests().GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.AsDependency(errLoadRequest, err)
	}
	if err := s.policy.Authorize(who, presets.ActionRead, policy.ClientRequestResource(req)); err != nil {
		return nil, err
	}
	return req, nil
}

// UpdateRequestStatus applies a manual status change. An account manager
// who first moves a request under review becomes its assignee.
func (s *Service) UpdateRequestStatus(ctx context.Context, who *principal.Principal, id uuid.UUID, to clientrequest.Status) (*clientrequest.ClientRequest, error) {
	if err := to.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var updated *clientrequest.ClientRequest
	err := s.inTx(ctx, func(tx repository.Tx) error {
		req, err := s.lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(who, presets.ActionRespond, policy.ClientRequestResource(req)); err != nil {
			return err
		}
		if !CanMove(req.Status, to) {
			return apperrors.InvalidTransition(errStatusChange(req.Status, to), string(req.Status))
		}

		input := clientrequest.UpdateStatusInput{RequestID: id, From: req.Status, To: to}
		if who.Role == principal.RoleAccountManager && req.AssignedAccountManagerID == nil && to == clientrequest.StatusUnderReview {
			input.AssignedAccountManagerID = &who.ID
		}
		updated, err = tx.ClientRequests().UpdateStatus(ctx, input)
		if err != nil {
			return apperrors.AsDependency(errUpdateRequest, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client request status changed",
		zap.String("request_id", id.String()),
		zap.String("to", string(to)),
		zap.String("actor_id", who.ID.String()),
	)
	s.notifier.Notify(ctx, updated.ClientID, notification.TypeClientRequestUpdated, requestPayload(updated))
	return updated, nil
}

// AssignAccountManager sets the request's account manager. Account managers
// may only assign themselves.
func (s *Service) AssignAccountManager(ctx context.Context, who *principal.Principal, id, managerID uuid.UUID) (*clientrequest.ClientRequest, error) {
	if who != nil && who.Role == principal.RoleAccountManager && managerID != who.ID {
		return nil, apperrors.Forbidden(errAssignOthers)
	}

	var updated *clientrequest.ClientRequest
	err := s.inTx(ctx, func(tx repository.Tx) error {
		req, err := s.lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(who, presets.ActionAssign, policy.ClientRequestResource(req)); err != nil {
			return err
		}

		manager, err := tx.Principals().GetByID(ctx, managerID)
		if err != nil {
			return apperrors.AsDependency(errLoadManager, err)
		}
		if manager.Role != principal.RoleAccountManager || !manager.IsActive {
			return apperrors.Validation(errNotAccountManager)
		}

		updated, err = tx.ClientRequests().UpdateStatus(ctx, clientrequest.UpdateStatusInput{
			RequestID:                id,
			From:                     req.Status,
			To:                       req.Status,
			AssignedAccountManagerID: &manager.ID,
		})
		if err != nil {
			return apperrors.AsDependency(errUpdateRequest, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, managerID, notification.TypeClientRequestUpdated, requestPayload(updated))
	return updated, nil
}

// ConvertToProject creates a draft project owned by the calling engineer
// from the request and marks the request converted. Both writes commit
// together. Empty title and description are seeded from the request.
func (s *Service) ConvertToProject(ctx context.Context, who *principal.Principal, id uuid.UUID, content project.Content) (*Conversion, error) {
	var out Conversion
	err := s.inTx(ctx, func(tx repository.Tx) error {
		req, err := s.lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Authorize(who, presets.ActionConvert, policy.ClientRequestResource(req)); err != nil {
			return err
		}

		out.Project, err = s.drafts.CreateDraftIn(ctx, tx, who, seedContent(content, req), &req.ID)
		if err != nil {
			return err
		}
		out.Request, err = tx.ClientRequests().UpdateStatus(ctx, clientrequest.UpdateStatusInput{
			RequestID: id,
			From:      req.Status,
			To:        clientrequest.StatusConvertedToProject,
		})
		if err != nil {
			return apperrors.AsDependency(errUpdateRequest, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client request converted",
		zap.String("request_id", id.String()),
		zap.String("project_id", out.Project.ID.String()),
		zap.String("actor_id", who.ID.String()),
	)
	s.notifier.Notify(ctx, out.Request.ClientID, notification.TypeClientRequestUpdated, requestPayload(out.Request))
	return &out, nil
}

func (s *Service) inTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return apperrors.AsDependency(errTransaction, s.store.InTx(ctx, fn))
}

func (s *Service) lockRequest(ctx context.Context, tx repository.Tx, id uuid.UUID) (*clientrequest.ClientRequest, error) {
	req, err := tx.ClientRequests().GetForUpdate(ctx, id)
	if err != nil {
		return nil, apperrors.AsDependency(errLoadRequest, err)
	}
	return req, nil
}

func validateSubmit(input SubmitInput) error {
	if err := input.RequestType.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := input.Priority.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := validator.Title(input.Title); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := validator.Required("description", input.Description); err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := validator.Description("detailed_requirements", input.DetailedRequirements); err != nil {
		return apperrors.Validation(err.Error())
	}
	return nil
}

func seedContent(c project.Content, req *clientrequest.ClientRequest) project.Content {
	if strings.TrimSpace(c.Title) == "" {
		c.Title = req.Title
	}
	if strings.TrimSpace(c.Description) == "" {
		c.Description = req.Description
	}
	if strings.TrimSpace(c.Objectives) == "" {
		c.Objectives = req.DetailedRequirements
	}
	return c
}

func requestPayload(req *clientrequest.ClientRequest) map[string]string {
	return map[string]string{
		"request_id": req.ID.String(),
		"title":      req.Title,
		"status":     string(req.Status),
	}
}
