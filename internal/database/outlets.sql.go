package database

import (
	"context"

	"github.com/google/uuid"
)

const outletColumns = `id, admin_id, name, gst_enabled, invoice_prefix, invoice_counter, device_token, is_active, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOutlet(row scanner) (Outlet, error) {
	var i Outlet
	err := row.Scan(
		&i.ID,
		&i.AdminID,
		&i.Name,
		&i.GstEnabled,
		&i.InvoicePrefix,
		&i.InvoiceCounter,
		&i.DeviceToken,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getOutlet = `SELECT ` + outletColumns + `
FROM outlets
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetOutlet(ctx context.Context, id uuid.UUID) (Outlet, error) {
	return scanOutlet(q.db.QueryRow(ctx, getOutlet, id))
}

// GetOutletForUpdate locks the outlet row so invoice numbering is serialized
// across concurrent orders.
const getOutletForUpdate = `SELECT ` + outletColumns + `
FROM outlets
WHERE id = $1 AND is_active = true
FOR NO KEY UPDATE
`

func (q *Queries) GetOutletForUpdate(ctx context.Context, id uuid.UUID) (Outlet, error) {
	return scanOutlet(q.db.QueryRow(ctx, getOutletForUpdate, id))
}

const incrementInvoiceCounter = `UPDATE outlets
SET invoice_counter = invoice_counter + 1
WHERE id = $1
RETURNING invoice_counter
`

func (q *Queries) IncrementInvoiceCounter(ctx context.Context, id uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, incrementInvoiceCounter, id)
	var invoiceCounter int32
	err := row.Scan(&invoiceCounter)
	return invoiceCounter, err
}

const getAdmin = `SELECT id, full_name, is_active, created_at
FROM admins
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetAdmin(ctx context.Context, id uuid.UUID) (Admin, error) {
	row := q.db.QueryRow(ctx, getAdmin, id)
	var i Admin
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getStaff = `SELECT id, outlet_id, full_name, is_active, created_at
FROM staff
WHERE id = $1 AND outlet_id = $2 AND is_active = true
`

type GetStaffParams struct {
	ID       uuid.UUID `json:"id"`
	OutletID uuid.UUID `json:"outlet_id"`
}

func (q *Queries) GetStaff(ctx context.Context, arg GetStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, getStaff, arg.ID, arg.OutletID)
	var i Staff
	err := row.Scan(
		&i.ID,
		&i.OutletID,
		&i.FullName,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getCustomer = `SELECT id, full_name, phone, created_at
FROM customers
WHERE id = $1
`

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	row := q.db.QueryRow(ctx, getCustomer, id)
	var i Customer
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.Phone,
		&i.CreatedAt,
	)
	return i, err
}
