package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const rawMaterialColumns = `id, outlet_id, name, current_stock, minimum_stock_level, minimum_stock_unit_id, consumption_unit_id, conversion_factor, purchased_price_per_item, updated_at`

func scanRawMaterial(row scanner) (RawMaterial, error) {
	var i RawMaterial
	err := row.Scan(
		&i.ID,
		&i.OutletID,
		&i.Name,
		&i.CurrentStock,
		&i.MinimumStockLevel,
		&i.MinimumStockUnitID,
		&i.ConsumptionUnitID,
		&i.ConversionFactor,
		&i.PurchasedPricePerItem,
		&i.UpdatedAt,
	)
	return i, err
}

const getRawMaterial = `SELECT ` + rawMaterialColumns + `
FROM raw_materials
WHERE id = $1 AND outlet_id = $2
`

type GetRawMaterialParams struct {
	ID       uuid.UUID `json:"id"`
	OutletID uuid.UUID `json:"outlet_id"`
}

func (q *Queries) GetRawMaterial(ctx context.Context, arg GetRawMaterialParams) (RawMaterial, error) {
	return scanRawMaterial(q.db.QueryRow(ctx, getRawMaterial, arg.ID, arg.OutletID))
}

// DebitRawMaterial only matches when enough stock is left, so a concurrent
// debit can never drive current_stock below zero.
const debitRawMaterial = `UPDATE raw_materials
SET current_stock = current_stock - $3, updated_at = now()
WHERE id = $1 AND outlet_id = $2 AND current_stock >= $3
RETURNING ` + rawMaterialColumns + `
`

type DebitRawMaterialParams struct {
	ID       uuid.UUID      `json:"id"`
	OutletID uuid.UUID      `json:"outlet_id"`
	Amount   pgtype.Numeric `json:"amount"`
}

func (q *Queries) DebitRawMaterial(ctx context.Context, arg DebitRawMaterialParams) (RawMaterial, error) {
	return scanRawMaterial(q.db.QueryRow(ctx, debitRawMaterial, arg.ID, arg.OutletID, arg.Amount))
}

const creditRawMaterial = `UPDATE raw_materials
SET current_stock = current_stock + $3, updated_at = now()
WHERE id = $1 AND outlet_id = $2
RETURNING ` + rawMaterialColumns + `
`

type CreditRawMaterialParams struct {
	ID       uuid.UUID      `json:"id"`
	OutletID uuid.UUID      `json:"outlet_id"`
	Amount   pgtype.Numeric `json:"amount"`
}

func (q *Queries) CreditRawMaterial(ctx context.Context, arg CreditRawMaterialParams) (RawMaterial, error) {
	return scanRawMaterial(q.db.QueryRow(ctx, creditRawMaterial, arg.ID, arg.OutletID, arg.Amount))
}
