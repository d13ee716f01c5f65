package memory

import (
	"context"

	"lab-service/internal/domain/notification"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
)

const errNotificationNotFound = "notification not found"

type notificationRepo repos

func (r notificationRepo) Create(ctx context.Context, input notification.CreateNotificationInput) (*notification.Notification, error) {
	st, release := r.acc.write()
	defer release()

	n := notification.Notification{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Type:      input.Type,
		Payload:   input.Payload,
		CreatedAt: st.tick(r.acc.clock()),
	}
	n = cloneNotification(n)
	st.notifications = append(st.notifications, n)
	out := cloneNotification(n)
	return &out, nil
}

// ListByUser returns the user's notifications, newest first.
func (r notificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*notification.Notification, error) {
	st, release := r.acc.read()
	defer release()

	var out []*notification.Notification
	for i := len(st.notifications) - 1; i >= 0; i-- {
		n := st.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		c := cloneNotification(n)
		out = append(out, &c)
	}
	return out, nil
}

func (r notificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	st, release := r.acc.write()
	defer release()

	for i := range st.notifications {
		if st.notifications[i].ID == id && st.notifications[i].UserID == userID {
			st.notifications[i].IsRead = true
			return nil
		}
	}
	return apperrors.NotFound(errNotificationNotFound)
}
