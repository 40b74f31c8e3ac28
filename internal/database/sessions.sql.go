package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderSessionColumns = `id, outlet_id, bill_number, bill_id, order_type, table_id, admin_id, staff_id, customer_id, is_paid, payment_method, sub_total, paid_amount, session_status, active, created_at, updated_at`

func scanOrderSession(row scanner) (OrderSession, error) {
	var i OrderSession
	err := row.Scan(
		&i.ID,
		&i.OutletID,
		&i.BillNumber,
		&i.BillID,
		&i.OrderType,
		&i.TableID,
		&i.AdminID,
		&i.StaffID,
		&i.CustomerID,
		&i.IsPaid,
		&i.PaymentMethod,
		&i.SubTotal,
		&i.PaidAmount,
		&i.SessionStatus,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getNextBillNumber = `SELECT COALESCE(MAX(bill_number), 0)::int + 1
FROM order_sessions
WHERE outlet_id = $1
`

func (q *Queries) GetNextBillNumber(ctx context.Context, outletID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getNextBillNumber, outletID)
	var next int32
	err := row.Scan(&next)
	return next, err
}

const createOrderSession = `INSERT INTO order_sessions (
    outlet_id, bill_number, bill_id, order_type, table_id,
    admin_id, staff_id, customer_id, is_paid, payment_method, sub_total, paid_amount
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)
RETURNING ` + orderSessionColumns + `
`

type CreateOrderSessionParams struct {
	OutletID      uuid.UUID      `json:"outlet_id"`
	BillNumber    int32          `json:"bill_number"`
	BillID        string         `json:"bill_id"`
	OrderType     string         `json:"order_type"`
	TableID       pgtype.UUID    `json:"table_id"`
	AdminID       pgtype.UUID    `json:"admin_id"`
	StaffID       pgtype.UUID    `json:"staff_id"`
	CustomerID    pgtype.UUID    `json:"customer_id"`
	IsPaid        bool           `json:"is_paid"`
	PaymentMethod pgtype.Text    `json:"payment_method"`
	SubTotal      pgtype.Numeric `json:"sub_total"`
	PaidAmount    pgtype.Numeric `json:"paid_amount"`
}

func (q *Queries) CreateOrderSession(ctx context.Context, arg CreateOrderSessionParams) (OrderSession, error) {
	row := q.db.QueryRow(ctx, createOrderSession,
		arg.OutletID,
		arg.BillNumber,
		arg.BillID,
		arg.OrderType,
		arg.TableID,
		arg.AdminID,
		arg.StaffID,
		arg.CustomerID,
		arg.IsPaid,
		arg.PaymentMethod,
		arg.SubTotal,
		arg.PaidAmount,
	)
	return scanOrderSession(row)
}

const getOrderSession = `SELECT ` + orderSessionColumns + `
FROM order_sessions
WHERE id = $1 AND outlet_id = $2
`

type GetOrderSessionParams struct {
	ID       uuid.UUID `json:"id"`
	OutletID uuid.UUID `json:"outlet_id"`
}

func (q *Queries) GetOrderSession(ctx context.Context, arg GetOrderSessionParams) (OrderSession, error) {
	return scanOrderSession(q.db.QueryRow(ctx, getOrderSession, arg.ID, arg.OutletID))
}

const getOrderSessionForUpdate = `SELECT ` + orderSessionColumns + `
FROM order_sessions
WHERE id = $1 AND outlet_id = $2
FOR NO KEY UPDATE
`

func (q *Queries) GetOrderSessionForUpdate(ctx context.Context, arg GetOrderSessionParams) (OrderSession, error) {
	return scanOrderSession(q.db.QueryRow(ctx, getOrderSessionForUpdate, arg.ID, arg.OutletID))
}

// AddSessionSubTotal moves the tab by Amount and records PaidAmount collected
// with it. The session counts as paid while everything billed is collected.
const addSessionSubTotal = `UPDATE order_sessions
SET sub_total = sub_total + $2,
    paid_amount = paid_amount + $3,
    is_paid = paid_amount + $3 >= sub_total + $2,
    updated_at = now()
WHERE id = $1
RETURNING ` + orderSessionColumns + `
`

type AddSessionSubTotalParams struct {
	ID         uuid.UUID      `json:"id"`
	Amount     pgtype.Numeric `json:"amount"`
	PaidAmount pgtype.Numeric `json:"paid_amount"`
}

func (q *Queries) AddSessionSubTotal(ctx context.Context, arg AddSessionSubTotalParams) (OrderSession, error) {
	return scanOrderSession(q.db.QueryRow(ctx, addSessionSubTotal, arg.ID, arg.Amount, arg.PaidAmount))
}

// MarkSessionPaid records the settled balance and closes the tab for payment.
const markSessionPaid = `UPDATE order_sessions
SET is_paid = true, payment_method = $2, paid_amount = paid_amount + $3, updated_at = now()
WHERE id = $1
RETURNING ` + orderSessionColumns + `
`

type MarkSessionPaidParams struct {
	ID            uuid.UUID      `json:"id"`
	PaymentMethod pgtype.Text    `json:"payment_method"`
	Amount        pgtype.Numeric `json:"amount"`
}

func (q *Queries) MarkSessionPaid(ctx context.Context, arg MarkSessionPaidParams) (OrderSession, error) {
	return scanOrderSession(q.db.QueryRow(ctx, markSessionPaid, arg.ID, arg.PaymentMethod, arg.Amount))
}

// UpdateSessionStatus only moves sessions that are still ONPROGRESS.
const updateSessionStatus = `UPDATE order_sessions
SET session_status = $2, active = $3, updated_at = now()
WHERE id = $1 AND session_status = 'ONPROGRESS'
RETURNING ` + orderSessionColumns + `
`

type UpdateSessionStatusParams struct {
	ID            uuid.UUID `json:"id"`
	SessionStatus string    `json:"session_status"`
	Active        bool      `json:"active"`
}

func (q *Queries) UpdateSessionStatus(ctx context.Context, arg UpdateSessionStatusParams) (OrderSession, error) {
	return scanOrderSession(q.db.QueryRow(ctx, updateSessionStatus, arg.ID, arg.SessionStatus, arg.Active))
}
