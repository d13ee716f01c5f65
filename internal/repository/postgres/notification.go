package postgres

import (
	"context"

	"lab-service/internal/domain/notification"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, user_id, type, payload, is_read, created_at`

type notificationRepo repos

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	n := &notification.Notification{}
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Payload,
		&n.IsRead,
		&n.CreatedAt,
	)
	return n, err
}

func (r notificationRepo) Create(ctx context.Context, input notification.CreateNotificationInput) (*notification.Notification, error) {
	query := `
		INSERT INTO notifications (id, user_id, type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + notificationColumns

	payload := input.Payload
	if payload == nil {
		payload = map[string]string{}
	}

	n, err := scanNotification(r.q.QueryRow(ctx, query, uuid.New(), input.UserID, input.Type, payload))
	if err != nil {
		return nil, errFailedCreateNotification(err)
	}
	return n, nil
}

func (r notificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*notification.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, errFailedListNotifications(err)
	}
	defer rows.Close()

	var items []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errFailedScanNotification(err)
		}
		items = append(items, n)
	}

	if err := rows.Err(); err != nil {
		return nil, errIterateNotifications(err)
	}

	return items, nil
}

func (r notificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.q.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errFailedMarkNotification(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound(errNotificationNotFound)
	}

	return nil
}
