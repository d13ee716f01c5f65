// Package notify persists in-app notifications and optionally mails a copy.
// Emission is fire and forget: callers never wait on delivery and never see
// its errors.
package notify

import (
	"context"
	"sync"
	"time"

	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"
	"lab-service/internal/policy"
	"lab-service/internal/rbac/presets"
	"lab-service/internal/repository"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the subset of the persistence gateway the emitter needs.
type Store interface {
	Principals() repository.PrincipalRepository
	Notifications() repository.NotificationRepository
}

type Emitter struct {
	store   Store
	policy  *policy.Policy
	mailer  Mailer
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

type Option func(*Emitter)

func WithTimeout(d time.Duration) Option {
	return func(e *Emitter) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEmitter(store Store, pol *policy.Policy, opts ...Option) *Emitter {
	e := &Emitter{
		store:   store,
		policy:  pol,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Notify queues one notification for userID.
func (e *Emitter) Notify(ctx context.Context, userID uuid.UUID, kind notification.Type, payload map[string]string) {
	payload = clonePayload(payload)
	e.spawn(ctx, func(ctx context.Context) {
		e.deliver(ctx, userID, kind, payload)
	})
}

// NotifyRole queues a notification for every active principal holding role.
func (e *Emitter) NotifyRole(ctx context.Context, role principal.Role, kind notification.Type, payload map[string]string) {
	payload = clonePayload(payload)
	e.spawn(ctx, func(ctx context.Context) {
		recipients, err := e.store.Principals().ListActiveByRole(ctx, role)
		if err != nil {
			e.logger.Warn("notification recipients lookup failed",
				zap.String("role", string(role)),
				zap.String("type", string(kind)),
				zap.Error(err),
			)
			return
		}
		for _, p := range recipients {
			e.deliver(ctx, p.ID, kind, payload)
		}
	})
}

// Wait blocks until queued deliveries finish or ctx is done.
func (e *Emitter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Emitter) spawn(ctx context.Context, fn func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (e *Emitter) deliver(ctx context.Context, userID uuid.UUID, kind notification.Type, payload map[string]string) {
	_, err := e.store.Notifications().Create(ctx, notification.CreateNotificationInput{
		UserID:  userID,
		Type:    kind,
		Payload: payload,
	})
	if err != nil {
		e.logger.Warn("notification delivery failed",
			zap.String("user_id", userID.String()),
			zap.String("type", string(kind)),
			zap.Error(err),
		)
		return
	}
	if e.mailer != nil {
		e.sendEmail(ctx, userID, kind, payload)
	}
}

// List returns the caller's notifications, newest first.
func (e *Emitter) List(ctx context.Context, who *principal.Principal, unreadOnly bool) ([]*notification.Notification, error) {
	if err := e.policy.Authorize(who, presets.ActionRead, policy.Kind(presets.ResourceNotification)); err != nil {
		return nil, err
	}
	items, err := e.store.Notifications().ListByUser(ctx, who.ID, unreadOnly)
	if err != nil {
		return nil, apperrors.AsDependency(errListNotifications, err)
	}
	return items, nil
}

// MarkRead marks one of the caller's notifications as read. Another
// principal's notification is reported as not found.
func (e *Emitter) MarkRead(ctx context.Context, who *principal.Principal, id uuid.UUID) error {
	if err := e.policy.Authorize(who, presets.ActionRead, policy.Kind(presets.ResourceNotification)); err != nil {
		return err
	}
	if err := e.store.Notifications().MarkRead(ctx, who.ID, id); err != nil {
		return apperrors.AsDependency(errMarkRead, err)
	}
	return nil
}

func clonePayload(payload map[string]string) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
