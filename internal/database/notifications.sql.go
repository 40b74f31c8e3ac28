package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createNotification = `INSERT INTO notifications (
    outlet_id, order_session_id, title, body
) VALUES (
    $1, $2, $3, $4
)
RETURNING id, outlet_id, order_session_id, title, body, is_read, created_at
`

type CreateNotificationParams struct {
	OutletID       uuid.UUID   `json:"outlet_id"`
	OrderSessionID pgtype.UUID `json:"order_session_id"`
	Title          string      `json:"title"`
	Body           string      `json:"body"`
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRow(ctx, createNotification,
		arg.OutletID,
		arg.OrderSessionID,
		arg.Title,
		arg.Body,
	)
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.OutletID,
		&i.OrderSessionID,
		&i.Title,
		&i.Body,
		&i.IsRead,
		&i.CreatedAt,
	)
	return i, err
}
