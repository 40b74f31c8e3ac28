package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const diningTableColumns = `id, outlet_id, name, occupied, current_order_session_id, invite_code, updated_at`

func scanDiningTable(row scanner) (DiningTable, error) {
	var i DiningTable
	err := row.Scan(
		&i.ID,
		&i.OutletID,
		&i.Name,
		&i.Occupied,
		&i.CurrentOrderSessionID,
		&i.InviteCode,
		&i.UpdatedAt,
	)
	return i, err
}

type GetTableParams struct {
	ID       uuid.UUID `json:"id"`
	OutletID uuid.UUID `json:"outlet_id"`
}

const getTable = `SELECT ` + diningTableColumns + `
FROM dining_tables
WHERE id = $1 AND outlet_id = $2
`

func (q *Queries) GetTable(ctx context.Context, arg GetTableParams) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, getTable, arg.ID, arg.OutletID))
}

// GetTableForUpdate holds the row lock until the transaction ends, so two
// orders racing for the same table are serialized.
const getTableForUpdate = `SELECT ` + diningTableColumns + `
FROM dining_tables
WHERE id = $1 AND outlet_id = $2
FOR UPDATE
`

func (q *Queries) GetTableForUpdate(ctx context.Context, arg GetTableParams) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, getTableForUpdate, arg.ID, arg.OutletID))
}

const occupyTable = `UPDATE dining_tables
SET occupied = true, current_order_session_id = $3, invite_code = $4, updated_at = now()
WHERE id = $1 AND outlet_id = $2 AND occupied = false
RETURNING ` + diningTableColumns + `
`

type OccupyTableParams struct {
	ID         uuid.UUID   `json:"id"`
	OutletID   uuid.UUID   `json:"outlet_id"`
	SessionID  pgtype.UUID `json:"session_id"`
	InviteCode pgtype.Text `json:"invite_code"`
}

func (q *Queries) OccupyTable(ctx context.Context, arg OccupyTableParams) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, occupyTable, arg.ID, arg.OutletID, arg.SessionID, arg.InviteCode))
}

// ReleaseTable frees the table only while it is still bound to the given
// session.
const releaseTable = `UPDATE dining_tables
SET occupied = false, current_order_session_id = NULL, invite_code = NULL, updated_at = now()
WHERE id = $1 AND current_order_session_id = $2
RETURNING ` + diningTableColumns + `
`

type ReleaseTableParams struct {
	ID        uuid.UUID   `json:"id"`
	SessionID pgtype.UUID `json:"session_id"`
}

func (q *Queries) ReleaseTable(ctx context.Context, arg ReleaseTableParams) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, releaseTable, arg.ID, arg.SessionID))
}
