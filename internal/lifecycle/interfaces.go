package lifecycle

import (
	"context"
	"io"

	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"

	"github.com/google/uuid"
)

// BlobStore keeps uploaded result files and hands out their public URL.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Notifier delivers events after the change that caused them is committed.
// Delivery failures are the notifier's concern.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind notification.Type, payload map[string]string)
	NotifyRole(ctx context.Context, role principal.Role, kind notification.Type, payload map[string]string)
}

// Recorder receives workflow counters.
type Recorder interface {
	ObserveTransition(from, to string)
	ObserveDecision(role, decision string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, uuid.UUID, notification.Type, map[string]string) {}
func (nopNotifier) NotifyRole(context.Context, principal.Role, notification.Type, map[string]string) {
}

type nopRecorder struct{}

func (nopRecorder) ObserveTransition(string, string) {}
func (nopRecorder) ObserveDecision(string, string)   {}
