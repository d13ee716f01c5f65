// Package ledger owns approval rows: one current verdict per reviewer role
// per project, replaced in place on every new decision.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/repository"
	apperrors "lab-service/pkg/errors"
	"lab-service/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Decision is one reviewer verdict to be recorded.
type Decision struct {
	ProjectID    uuid.UUID
	ApproverID   uuid.UUID
	ApproverRole principal.Role
	Status       approval.Decision
	Comments     string
	At           time.Time
}

type Ledger struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{logger: logger}
}

// Validate checks a decision without touching storage.
func (l *Ledger) Validate(d Decision) error {
	if err := approval.ValidateDecision(d.Status); err != nil {
		return apperrors.Validation(err.Error())
	}
	if _, ok := project.PendingStatusFor(d.ApproverRole); !ok {
		return apperrors.Validation(errNotReviewerRole(d.ApproverRole))
	}
	if err := validator.Comments(d.Comments); err != nil {
		return apperrors.Validation(err.Error())
	}
	return nil
}

// Current returns the current approval for (project, role), or nil when
// that role has never decided.
func (l *Ledger) Current(ctx context.Context, approvals repository.ApprovalRepository, projectID uuid.UUID, role principal.Role) (*approval.Approval, error) {
	a, err := approvals.GetCurrent(ctx, projectID, role)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.AsDependency(errLoadApproval, err)
	}
	return a, nil
}

// Record writes d as the current verdict of its role. An existing row keeps
// its identifier; otherwise one is created. approvals should be bound to the
// same transaction as the status change that follows.
func (l *Ledger) Record(ctx context.Context, approvals repository.ApprovalRepository, d Decision) (*approval.Approval, error) {
	if err := l.Validate(d); err != nil {
		return nil, err
	}

	previous, err := l.Current(ctx, approvals, d.ProjectID, d.ApproverRole)
	if err != nil {
		return nil, err
	}

	if d.At.IsZero() {
		d.At = time.Now().UTC()
	}
	input := approval.UpsertInput{
		ProjectID:    d.ProjectID,
		ApproverID:   d.ApproverID,
		ApproverRole: d.ApproverRole,
		Status:       d.Status,
		Comments:     strings.TrimSpace(d.Comments),
		DecidedAt:    d.At,
	}
	if d.Status == approval.StatusApproved {
		at := d.At
		input.ApprovedAt = &at
	}

	recorded, err := approvals.Upsert(ctx, input)
	if err != nil {
		return nil, apperrors.AsDependency(errRecordApproval, err)
	}

	fields := []zap.Field{
		zap.String("project_id", d.ProjectID.String()),
		zap.String("role", string(d.ApproverRole)),
		zap.String("decision", string(d.Status)),
		zap.String("approval_id", recorded.ID.String()),
	}
	if previous != nil {
		fields = append(fields, zap.String("previous", string(previous.Status)))
	}
	l.logger.Debug("approval recorded", fields...)

	return recorded, nil
}

// History returns the current approval of every role that has decided on
// the project, most recent decision first.
func (l *Ledger) History(ctx context.Context, approvals repository.ApprovalRepository, projectID uuid.UUID) ([]*approval.ReviewEntry, error) {
	entries, err := approvals.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.AsDependency(errLoadHistory, err)
	}
	return entries, nil
}

// Approved reports whether role's current verdict on the project is approved.
func (l *Ledger) Approved(ctx context.Context, approvals repository.ApprovalRepository, projectID uuid.UUID, role principal.Role) (bool, error) {
	a, err := l.Current(ctx, approvals, projectID, role)
	if err != nil || a == nil {
		return false, err
	}
	return a.Status == approval.StatusApproved, nil
}
