// Package lifecycle owns project status: it validates every transition
// against the state machine and the caller's authority, and applies it
// together with the matching approval write.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/domain/result"
	"lab-service/internal/ledger"
	"lab-service/internal/policy"
	"lab-service/internal/rbac/presets"
	"lab-service/internal/repository"
	apperrors "lab-service/pkg/errors"
	"lab-service/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResultRules constrains uploaded result files.
type ResultRules struct {
	AllowedTypes []string
	MaxSize      int64
}

// DefaultResultRules accepts csv and xlsx files up to 50MB.
var DefaultResultRules = ResultRules{
	AllowedTypes: []string{"csv", "xlsx"},
	MaxSize:      50 * 1024 * 1024,
}

// ResultUpload is a result file as received from the caller.
type ResultUpload struct {
	FileName        string
	ContentType     string
	Size            int64
	Body            io.Reader
	IsClientVisible bool
}

// DecisionOutcome is the project and approval row after a decision.
type DecisionOutcome struct {
	Project  *project.Project
	Approval *approval.Approval
}

type Engine struct {
	store    repository.Store
	policy   *policy.Policy
	ledger   *ledger.Ledger
	blobs    BlobStore
	notifier Notifier
	recorder Recorder
	logger   *zap.Logger
	rules    ResultRules
	now      func() time.Time
}

type Option func(*Engine)

func WithBlobStore(b BlobStore) Option     { return func(e *Engine) { e.blobs = b } }
func WithNotifier(n Notifier) Option       { return func(e *Engine) { e.notifier = n } }
func WithRecorder(r Recorder) Option       { return func(e *Engine) { e.recorder = r } }
func WithLogger(l *zap.Logger) Option      { return func(e *Engine) { e.logger = l } }
func WithResultRules(r ResultRules) Option { return func(e *Engine) { e.rules = r } }
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store repository.Store, pol *policy.Policy, led *ledger.Ledger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		policy:   pol,
		ledger:   led,
		notifier: nopNotifier{},
		recorder: nopRecorder{},
		logger:   zap.NewNop(),
		rules:    DefaultResultRules,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateProject creates a draft owned by the calling engineer.
func (e *Engine) CreateProject(ctx context.Context, who *principal.Principal, content project.Content) (*project.Project, error) {
	var created *project.Project
	err := e.inTx(ctx, func(tx repository.Tx) error {
		p, err := e.CreateDraftIn(ctx, tx, who, content, nil)
		created = p
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("project created",
		zap.String("project_id", created.ID.String()),
		zap.String("actor_id", who.ID.String()),
	)
	return created, nil
}

// CreateDraftIn creates a draft project inside an existing transaction,
// optionally linked to the client request it originates from.
func (e *Engine) CreateDraftIn(ctx context.Context, tx repository.Tx, who *principal.Principal, content project.Content, link *uuid.UUID) (*project.Project, error) {
	if err := e.policy.Authorize(who, presets.ActionCreate, policy.Kind(presets.ResourceProject)); err != nil {
		return nil, err
	}
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	p, err := tx.Projects().Create(ctx, project.CreateProjectInput{
		EngineerID:            who.ID,
		Content:               content,
		LinkedClientRequestID: link,
	})
	if err != nil {
		return nil, apperrors.AsDependency(errCreateProject, err)
	}
	return p, nil
}

// UpdateProject replaces the content of a draft owned by the caller.
func (e *Engine) UpdateProject(ctx context.Context, who *principal.Principal, id uuid.UUID, content project.Content) (*project.Project, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	var updated *project.Project
	err = e.inTx(ctx, func(tx repository.Tx) error {
		p, err := e.lockProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(who, presets.ActionUpdate, policy.ProjectResource(p)); err != nil {
			return err
		}
		updated, err = tx.Projects().UpdateContent(ctx, id, content)
		if err != nil {
			return apperrors.AsDependency(errUpdateProject, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SubmitForApproval sends a draft to the first review stage. Review always
// restarts from the first stage, whatever happened in earlier cycles.
func (e *Engine) SubmitForApproval(ctx context.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error) {
	var (
		from    project.Status
		updated *project.Project
	)
	err := e.inTx(ctx, func(tx repository.Tx) error {
		p, err := e.lockProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(who, presets.ActionSubmit, policy.ProjectResource(p)); err != nil {
			return err
		}
		to, err := Next(p.Status, EventSubmit, who.Role)
		if err != nil {
			return err
		}
		submittedAt := e.now().UTC()
		from = p.Status
		updated, err = e.transition(ctx, tx, p, to, &submittedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.afterTransition(ctx, who, from, updated)
	e.notifier.NotifyRole(ctx, project.ReviewStages[0].Role, notification.TypeProjectSubmitted, projectPayload(updated))
	return updated, nil
}

// Decide records the caller's verdict for the stage the project is waiting
// on and moves the project forward or back to draft. The approval row and
// the status change are committed together.
func (e *Engine) Decide(ctx context.Context, who *principal.Principal, id uuid.UUID, decision approval.Decision, comments string) (*DecisionOutcome, error) {
	if err := e.policy.Authorize(who, presets.ActionDecide, policy.Kind(presets.ResourceApproval)); err != nil {
		return nil, err
	}
	ev, err := EventForDecision(decision)
	if err != nil {
		return nil, err
	}
	d := ledger.Decision{
		ProjectID:    id,
		ApproverID:   who.ID,
		ApproverRole: who.Role,
		Status:       decision,
		Comments:     comments,
	}
	if err := e.ledger.Validate(d); err != nil {
		return nil, err
	}

	var (
		from    project.Status
		outcome DecisionOutcome
	)
	err = e.inTx(ctx, func(tx repository.Tx) error {
		p, err := e.lockProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(who, presets.ActionDecide, policy.ApprovalResource(p)); err != nil {
			return err
		}
		to, err := Next(p.Status, ev, who.Role)
		if err != nil {
			return err
		}

		d.At = e.now().UTC()
		outcome.Approval, err = e.ledger.Record(ctx, tx.Approvals(), d)
		if err != nil {
			return err
		}
		if err := e.checkChain(ctx, tx, id, to); err != nil {
			return err
		}
		from = p.Status
		outcome.Project, err = e.transition(ctx, tx, p, to, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.recorder.ObserveDecision(string(who.Role), string(decision))
	e.afterTransition(ctx, who, from, outcome.Project)

	p := outcome.Project
	payload := projectPayload(p)
	payload[keyRole] = string(who.Role)
	payload[keyDecision] = string(decision)
	payload[keyComments] = outcome.Approval.Comments
	e.notifier.Notify(ctx, p.EngineerID, notification.TypeApprovalDecision, payload)

	switch {
	case p.Status == project.StatusApproved:
		e.notifier.Notify(ctx, p.EngineerID, notification.TypeProjectApproved, projectPayload(p))
	case p.Status.IsPending():
		next := project.ReviewStages[project.StageIndex(p.Status)].Role
		e.notifier.NotifyRole(ctx, next, notification.TypeReviewRequested, projectPayload(p))
	}

	return &outcome, nil
}

// StartWork moves an approved project into progress.
func (e *Engine) StartWork(ctx context.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error) {
	return e.operate(ctx, who, id, presets.ActionStart, EventStart)
}

// Complete closes a project in progress.
func (e *Engine) Complete(ctx context.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error) {
	return e.operate(ctx, who, id, presets.ActionComplete, EventComplete)
}

func (e *Engine) operate(ctx context.Context, who *principal.Principal, id uuid.UUID, action policy.Action, ev Event) (*project.Project, error) {
	var (
		from    project.Status
		updated *project.Project
	)
	err := e.inTx(ctx, func(tx repository.Tx) error {
		p, err := e.lockProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(who, action, policy.ProjectResource(p)); err != nil {
			return err
		}
		to, err := Next(p.Status, ev, who.Role)
		if err != nil {
			return err
		}
		from = p.Status
		updated, err = e.transition(ctx, tx, p, to, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.afterTransition(ctx, who, from, updated)
	payload := projectPayload(updated)
	payload[keyFrom] = string(from)
	payload[keyTo] = string(updated.Status)
	e.notifier.Notify(ctx, updated.EngineerID, notification.TypeProjectStatusChanged, payload)
	return updated, nil
}

// GetProject returns a project the caller may see.
func (e *Engine) GetProject(ctx context.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error) {
	p, err := e.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.policy.Authorize(who, presets.ActionRead, policy.ProjectResource(p)); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProjects returns the projects visible to the caller's role.
func (e *Engine) ListProjects(ctx context.Context, who *principal.Principal) ([]*project.Project, error) {
	if err := e.policy.Authorize(who, presets.ActionList, policy.Kind(presets.ResourceProject)); err != nil {
		return nil, err
	}

	var filter project.ListFilter
	switch {
	case who.Role == principal.RoleLabDirector:
	case who.Role == principal.RoleEngineer:
		filter.EngineerID = &who.ID
	case who.Role == principal.RoleQualityManager:
		filter.Statuses = []project.Status{project.StatusApproved, project.StatusInProgress, project.StatusCompleted}
	case who.Role.IsReviewer():
		return e.ListReviewQueue(ctx, who)
	default:
		return nil, apperrors.Forbidden(errListProjects)
	}

	projects, err := e.store.Projects().List(ctx, filter)
	if err != nil {
		return nil, apperrors.AsDependency(errListProjects, err)
	}
	return projects, nil
}

// ListReviewQueue returns the projects waiting on the caller's review stage.
func (e *Engine) ListReviewQueue(ctx context.Context, who *principal.Principal) ([]*project.Project, error) {
	if err := e.policy.Authorize(who, presets.ActionRead, policy.Kind(presets.ResourceReviewQueue)); err != nil {
		return nil, err
	}
	pending, ok := project.PendingStatusFor(who.Role)
	if !ok {
		return nil, apperrors.Forbidden(errListProjects)
	}

	projects, err := e.store.Projects().List(ctx, project.ListFilter{Statuses: []project.Status{pending}})
	if err != nil {
		return nil, apperrors.AsDependency(errListProjects, err)
	}
	return projects, nil
}

// GetReviewHistory returns the current verdict of each role that has
// reviewed the project, most recent first.
func (e *Engine) GetReviewHistory(ctx context.Context, who *principal.Principal, id uuid.UUID) ([]*approval.ReviewEntry, error) {
	p, err := e.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.policy.Authorize(who, presets.ActionRead, policy.ApprovalResource(p)); err != nil {
		return nil, err
	}
	return e.ledger.History(ctx, e.store.Approvals(), id)
}

// UploadResult stores a result file for an approved project owned by the
// caller. The object is written first; if its metadata row cannot be saved
// the object is removed again.
func (e *Engine) UploadResult(ctx context.Context, who *principal.Principal, id uuid.UUID, upload ResultUpload) (*result.ProjectResult, error) {
	if e.blobs == nil {
		return nil, apperrors.Dependency(errBlobStoreMissing, fmt.Errorf(errBlobStoreMissing))
	}

	p, err := e.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.policy.Authorize(who, presets.ActionUpload, policy.ResultResource(p)); err != nil {
		return nil, err
	}

	if upload.Body == nil {
		return nil, apperrors.Validation(errResultFileRequired)
	}
	if err := validator.FileName(upload.FileName); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	ext, err := validator.FileExtension(upload.FileName, e.rules.AllowedTypes)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if err := validator.FileSize(upload.Size, e.rules.MaxSize); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	key := fmt.Sprintf(resultKeyFmt, id, e.now().UnixMilli(), upload.FileName)
	url, err := e.blobs.Put(ctx, key, upload.Body, upload.Size, upload.ContentType)
	if err != nil {
		return nil, apperrors.AsDependency(errStoreResultFile, err)
	}

	var saved *result.ProjectResult
	err = e.inTx(ctx, func(tx repository.Tx) error {
		current, err := e.lockProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := e.policy.Authorize(who, presets.ActionUpload, policy.ResultResource(current)); err != nil {
			return err
		}
		saved, err = tx.Results().Create(ctx, result.CreateResultInput{
			ProjectID:       id,
			UploadedBy:      who.ID,
			FileName:        upload.FileName,
			FileURL:         url,
			FileType:        ext,
			ObjectKey:       key,
			SizeBytes:       upload.Size,
			IsClientVisible: upload.IsClientVisible,
		})
		if err != nil {
			return apperrors.AsDependency(errSaveResult, err)
		}
		return nil
	})
	if err != nil {
		if delErr := e.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			e.logger.Error("failed to remove orphaned result object",
				zap.String("key", key),
				zap.Error(delErr),
			)
		}
		return nil, err
	}

	e.logger.Info("result uploaded",
		zap.String("project_id", id.String()),
		zap.String("result_id", saved.ID.String()),
		zap.String("actor_id", who.ID.String()),
		zap.Int64("size", upload.Size),
	)
	return saved, nil
}

// ListResults returns the result files of a project the caller may see.
func (e *Engine) ListResults(ctx context.Context, who *principal.Principal, id uuid.UUID) ([]*result.ProjectResult, error) {
	p, err := e.loadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.policy.Authorize(who, presets.ActionRead, policy.ResultResource(p)); err != nil {
		return nil, err
	}
	results, err := e.store.Results().ListByProject(ctx, id)
	if err != nil {
		return nil, apperrors.AsDependency(errListResults, err)
	}
	return results, nil
}

func (e *Engine) inTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return apperrors.AsDependency(errTransaction, e.store.InTx(ctx, fn))
}

func (e *Engine) loadProject(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	p, err := e.store.Projects().GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.AsDependency(errLoadProject, err)
	}
	return p, nil
}

func (e *Engine) lockProject(ctx context.Context, tx repository.Tx, id uuid.UUID) (*project.Project, error) {
	p, err := tx.Projects().GetForUpdate(ctx, id)
	if err != nil {
		return nil, apperrors.AsDependency(errLoadProject, err)
	}
	return p, nil
}

// transition is the only place project status is written.
// checkChain refuses to move a project to status unless every earlier stage
// holds an approved current verdict.
func (e *Engine) checkChain(ctx context.Context, tx repository.Tx, id uuid.UUID, status project.Status) error {
	for _, role := range RequiredApprovals(status) {
		ok, err := e.ledger.Approved(ctx, tx.Approvals(), id, role)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Conflict(fmt.Sprintf(errChainGapFmt, status, role))
		}
	}
	return nil
}

func (e *Engine) transition(ctx context.Context, tx repository.Tx, p *project.Project, to project.Status, submittedAt *time.Time) (*project.Project, error) {
	updated, err := tx.Projects().TransitionStatus(ctx, project.TransitionInput{
		ProjectID:   p.ID,
		From:        p.Status,
		To:          to,
		SubmittedAt: submittedAt,
	})
	if err != nil {
		return nil, apperrors.AsDependency(errTransitionProject, err)
	}
	return updated, nil
}

func (e *Engine) afterTransition(ctx context.Context, who *principal.Principal, from project.Status, p *project.Project) {
	e.recorder.ObserveTransition(string(from), string(p.Status))
	e.logger.Info("project transitioned",
		zap.String("project_id", p.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(p.Status)),
		zap.String("actor_id", who.ID.String()),
		zap.String("role", string(who.Role)),
	)
}

func normalizeContent(c project.Content) (project.Content, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)

	if err := validator.Title(c.Title); err != nil {
		return c, apperrors.Validation(err.Error())
	}
	if err := validator.Required("description", c.Description); err != nil {
		return c, apperrors.Validation(err.Error())
	}
	for field, value := range map[string]string{
		"description":           c.Description,
		"objectives":            c.Objectives,
		"timeline_duration":     c.TimelineDuration,
		"safety_considerations": c.SafetyConsiderations,
		"expected_outcomes":     c.ExpectedOutcomes,
	} {
		if err := validator.Description(field, value); err != nil {
			return c, apperrors.Validation(err.Error())
		}
	}

	equipment := make([]string, 0, len(c.EquipmentNeeded))
	for _, item := range c.EquipmentNeeded {
		equipment = append(equipment, strings.TrimSpace(item))
	}
	if err := validator.Equipment(equipment); err != nil {
		return c, apperrors.Validation(err.Error())
	}
	c.EquipmentNeeded = equipment
	return c, nil
}

func projectPayload(p *project.Project) map[string]string {
	return map[string]string{
		keyProjectID: p.ID.String(),
		keyTitle:     p.Content.Title,
		keyStatus:    string(p.Status),
	}
}
