package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, outlet_id, order_session_id, generated_order_id, order_number, order_type, order_status, total_amount, total_net_price, gst_price, total_gross_profit, created_at, updated_at`

func scanOrder(row scanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OutletID,
		&i.OrderSessionID,
		&i.GeneratedOrderID,
		&i.OrderNumber,
		&i.OrderType,
		&i.OrderStatus,
		&i.TotalAmount,
		&i.TotalNetPrice,
		&i.GstPrice,
		&i.TotalGrossProfit,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getNextOrderNumber = `SELECT COALESCE(MAX(order_number), 0)::int + 1
FROM orders
WHERE outlet_id = $1
`

func (q *Queries) GetNextOrderNumber(ctx context.Context, outletID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderNumber, outletID)
	var next int32
	err := row.Scan(&next)
	return next, err
}

const createOrder = `INSERT INTO orders (
    outlet_id, order_session_id, generated_order_id, order_number, order_type,
    order_status, total_amount, total_net_price, gst_price, total_gross_profit
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING ` + orderColumns + `
`

type CreateOrderParams struct {
	OutletID         uuid.UUID      `json:"outlet_id"`
	OrderSessionID   uuid.UUID      `json:"order_session_id"`
	GeneratedOrderID string         `json:"generated_order_id"`
	OrderNumber      int32          `json:"order_number"`
	OrderType        string         `json:"order_type"`
	OrderStatus      string         `json:"order_status"`
	TotalAmount      pgtype.Numeric `json:"total_amount"`
	TotalNetPrice    pgtype.Numeric `json:"total_net_price"`
	GstPrice         pgtype.Numeric `json:"gst_price"`
	TotalGrossProfit pgtype.Numeric `json:"total_gross_profit"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OutletID,
		arg.OrderSessionID,
		arg.GeneratedOrderID,
		arg.OrderNumber,
		arg.OrderType,
		arg.OrderStatus,
		arg.TotalAmount,
		arg.TotalNetPrice,
		arg.GstPrice,
		arg.TotalGrossProfit,
	)
	return scanOrder(row)
}

const getOrderForUpdate = `SELECT ` + orderColumns + `
FROM orders
WHERE id = $1 AND outlet_id = $2
FOR NO KEY UPDATE
`

type GetOrderParams struct {
	ID       uuid.UUID `json:"id"`
	OutletID uuid.UUID `json:"outlet_id"`
}

func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, arg.ID, arg.OutletID))
}

const listOrdersBySession = `SELECT ` + orderColumns + `
FROM orders
WHERE order_session_id = $1
ORDER BY created_at, order_number
`

func (q *Queries) ListOrdersBySession(ctx context.Context, orderSessionID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersBySession, orderSessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateOrderStatus is guarded by the status the caller read (Status_2) so a
// concurrent transition makes it return no rows.
const updateOrderStatus = `UPDATE orders
SET order_status = $3, updated_at = now()
WHERE id = $1 AND outlet_id = $2 AND order_status = $4
RETURNING ` + orderColumns + `
`

type UpdateOrderStatusParams struct {
	ID       uuid.UUID `json:"id"`
	OutletID uuid.UUID `json:"outlet_id"`
	Status   string    `json:"status"`
	Status_2 string    `json:"status_2"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.OutletID, arg.Status, arg.Status_2))
}

const adjustOrderTotals = `UPDATE orders
SET total_amount = total_amount + $2,
    total_net_price = total_net_price + $3,
    gst_price = gst_price + $4,
    total_gross_profit = total_gross_profit + $5,
    updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns + `
`

type AdjustOrderTotalsParams struct {
	ID               uuid.UUID      `json:"id"`
	TotalAmount      pgtype.Numeric `json:"total_amount"`
	TotalNetPrice    pgtype.Numeric `json:"total_net_price"`
	GstPrice         pgtype.Numeric `json:"gst_price"`
	TotalGrossProfit pgtype.Numeric `json:"total_gross_profit"`
}

func (q *Queries) AdjustOrderTotals(ctx context.Context, arg AdjustOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, adjustOrderTotals,
		arg.ID,
		arg.TotalAmount,
		arg.TotalNetPrice,
		arg.GstPrice,
		arg.TotalGrossProfit,
	)
	return scanOrder(row)
}

const orderItemColumns = `id, order_id, menu_id, size_variant_id, name, quantity, original_rate, net_price, gst, gross_profit, total_price`

func scanOrderItem(row scanner) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuID,
		&i.SizeVariantID,
		&i.Name,
		&i.Quantity,
		&i.OriginalRate,
		&i.NetPrice,
		&i.Gst,
		&i.GrossProfit,
		&i.TotalPrice,
	)
	return i, err
}

const createOrderItem = `INSERT INTO order_items (
    order_id, menu_id, size_variant_id, name, quantity,
    original_rate, net_price, gst, gross_profit, total_price
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING ` + orderItemColumns + `
`

type CreateOrderItemParams struct {
	OrderID       uuid.UUID      `json:"order_id"`
	MenuID        uuid.UUID      `json:"menu_id"`
	SizeVariantID pgtype.UUID    `json:"size_variant_id"`
	Name          string         `json:"name"`
	Quantity      int32          `json:"quantity"`
	OriginalRate  pgtype.Numeric `json:"original_rate"`
	NetPrice      pgtype.Numeric `json:"net_price"`
	Gst           pgtype.Numeric `json:"gst"`
	GrossProfit   pgtype.Numeric `json:"gross_profit"`
	TotalPrice    pgtype.Numeric `json:"total_price"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuID,
		arg.SizeVariantID,
		arg.Name,
		arg.Quantity,
		arg.OriginalRate,
		arg.NetPrice,
		arg.Gst,
		arg.GrossProfit,
		arg.TotalPrice,
	)
	return scanOrderItem(row)
}

const getOrderItemForUpdate = `SELECT ` + orderItemColumns + `
FROM order_items
WHERE id = $1 AND order_id = $2
FOR UPDATE
`

type GetOrderItemParams struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
}

func (q *Queries) GetOrderItemForUpdate(ctx context.Context, arg GetOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, getOrderItemForUpdate, arg.ID, arg.OrderID))
}

const updateOrderItemQuantity = `UPDATE order_items
SET quantity = $2, total_price = $3
WHERE id = $1
RETURNING ` + orderItemColumns + `
`

type UpdateOrderItemQuantityParams struct {
	ID         uuid.UUID      `json:"id"`
	Quantity   int32          `json:"quantity"`
	TotalPrice pgtype.Numeric `json:"total_price"`
}

func (q *Queries) UpdateOrderItemQuantity(ctx context.Context, arg UpdateOrderItemQuantityParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, updateOrderItemQuantity, arg.ID, arg.Quantity, arg.TotalPrice))
}

const listOrderItemsByOrder = `SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createOrderItemAddon = `INSERT INTO order_item_addons (
    order_item_id, addon_id, addon_variant_id, name, price
) VALUES (
    $1, $2, $3, $4, $5
)
RETURNING id, order_item_id, addon_id, addon_variant_id, name, price
`

type CreateOrderItemAddonParams struct {
	OrderItemID    uuid.UUID      `json:"order_item_id"`
	AddonID        uuid.UUID      `json:"addon_id"`
	AddonVariantID uuid.UUID      `json:"addon_variant_id"`
	Name           string         `json:"name"`
	Price          pgtype.Numeric `json:"price"`
}

func (q *Queries) CreateOrderItemAddon(ctx context.Context, arg CreateOrderItemAddonParams) (OrderItemAddon, error) {
	row := q.db.QueryRow(ctx, createOrderItemAddon,
		arg.OrderItemID,
		arg.AddonID,
		arg.AddonVariantID,
		arg.Name,
		arg.Price,
	)
	var i OrderItemAddon
	err := row.Scan(
		&i.ID,
		&i.OrderItemID,
		&i.AddonID,
		&i.AddonVariantID,
		&i.Name,
		&i.Price,
	)
	return i, err
}

const listOrderItemAddons = `SELECT id, order_item_id, addon_id, addon_variant_id, name, price
FROM order_item_addons
WHERE order_item_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemAddons(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemAddon, error) {
	rows, err := q.db.Query(ctx, listOrderItemAddons, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItemAddon{}
	for rows.Next() {
		var i OrderItemAddon
		if err := rows.Scan(
			&i.ID,
			&i.OrderItemID,
			&i.AddonID,
			&i.AddonVariantID,
			&i.Name,
			&i.Price,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
