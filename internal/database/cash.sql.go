package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// GetOpenCashRegister takes a share lock so the register cannot be closed
// while an order is posting to it.
const getOpenCashRegister = `SELECT id, outlet_id, status, opening_balance, opened_at, closed_at
FROM cash_registers
WHERE id = $1 AND outlet_id = $2 AND status = 'OPEN'
FOR SHARE
`

type GetOpenCashRegisterParams struct {
	ID       uuid.UUID `json:"id"`
	OutletID uuid.UUID `json:"outlet_id"`
}

func (q *Queries) GetOpenCashRegister(ctx context.Context, arg GetOpenCashRegisterParams) (CashRegister, error) {
	row := q.db.QueryRow(ctx, getOpenCashRegister, arg.ID, arg.OutletID)
	var i CashRegister
	err := row.Scan(
		&i.ID,
		&i.OutletID,
		&i.Status,
		&i.OpeningBalance,
		&i.OpenedAt,
		&i.ClosedAt,
	)
	return i, err
}

const createCashTransaction = `INSERT INTO cash_transactions (
    register_id, amount, type, source, payment_method, order_session_id, performed_by, description
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
RETURNING id, register_id, amount, type, source, payment_method, order_session_id, performed_by, description, created_at
`

type CreateCashTransactionParams struct {
	RegisterID     uuid.UUID      `json:"register_id"`
	Amount         pgtype.Numeric `json:"amount"`
	Type           string         `json:"type"`
	Source         string         `json:"source"`
	PaymentMethod  string         `json:"payment_method"`
	OrderSessionID pgtype.UUID    `json:"order_session_id"`
	PerformedBy    uuid.UUID      `json:"performed_by"`
	Description    string         `json:"description"`
}

func (q *Queries) CreateCashTransaction(ctx context.Context, arg CreateCashTransactionParams) (CashTransaction, error) {
	row := q.db.QueryRow(ctx, createCashTransaction,
		arg.RegisterID,
		arg.Amount,
		arg.Type,
		arg.Source,
		arg.PaymentMethod,
		arg.OrderSessionID,
		arg.PerformedBy,
		arg.Description,
	)
	var i CashTransaction
	err := row.Scan(
		&i.ID,
		&i.RegisterID,
		&i.Amount,
		&i.Type,
		&i.Source,
		&i.PaymentMethod,
		&i.OrderSessionID,
		&i.PerformedBy,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}
