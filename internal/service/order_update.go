package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tablebill/api/internal/database"
	"github.com/tablebill/api/internal/enum"
)

// allowedTransitions defines valid order status transitions.
// Key is current status, value is the set of statuses it can move to.
var allowedTransitions = map[string][]string{
	enum.OrderStatusIncoming:       {enum.OrderStatusPreparing, enum.OrderStatusFoodReady},
	enum.OrderStatusPreparing:      {enum.OrderStatusFoodReady},
	enum.OrderStatusFoodReady:      {enum.OrderStatusServed, enum.OrderStatusOutForDelivery},
	enum.OrderStatusServed:         {enum.OrderStatusCompleted},
	enum.OrderStatusOutForDelivery: {enum.OrderStatusCompleted},
}

// canTransition checks the move from current to next for an order type.
// Only delivery orders go out for delivery, and they are never served.
func canTransition(orderType, current, next string) bool {
	switch next {
	case enum.OrderStatusOutForDelivery:
		if orderType != enum.OrderTypeDelivery {
			return false
		}
	case enum.OrderStatusServed:
		if orderType == enum.OrderTypeDelivery {
			return false
		}
	}
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// UpdateOrderStatus moves an order through the kitchen state machine.
func (s *OrderSessionService) UpdateOrderStatus(ctx context.Context, actor Actor, outletID, orderID uuid.UUID, status string) (database.Order, error) {
	if !actor.IsStaffSide() {
		return database.Order{}, ErrActorNotAllowed
	}
	if !enum.IsOrderStatus(status) {
		return database.Order{}, ErrInvalidOrderStatus
	}
	outlet, err := s.resolve(ctx, actor, outletID)
	if err != nil {
		return database.Order{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := lockOrder(ctx, store, outletID, orderID)
	if err != nil {
		return database.Order{}, err
	}
	if !canTransition(current.OrderType, current.OrderStatus, status) {
		return database.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.OrderStatus, status)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:       orderID,
		OutletID: outletID,
		Status:   status,
		Status_2: current.OrderStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrConcurrentUpdate
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	s.relay.Announce(Notice{
		Event: OrderEvent{
			Type:      enum.EventOrderUpdated,
			OutletID:  outlet.ID,
			SessionID: updated.OrderSessionID,
			OrderID:   &updated.ID,
		},
	})
	return updated, nil
}

// ItemUpdateResult is the outcome of a quantity correction.
type ItemUpdateResult struct {
	Session database.OrderSession
	Order   database.Order
	Item    database.OrderItem
}

// UpdateItemQuantity corrects the quantity of an order line. The frozen unit
// price is kept; order and session totals move by the difference and stock
// is debited or credited for the quantity delta.
func (s *OrderSessionService) UpdateItemQuantity(ctx context.Context, actor Actor, outletID, orderID, itemID uuid.UUID, quantity int32) (*ItemUpdateResult, error) {
	if !actor.IsStaffSide() {
		return nil, ErrActorNotAllowed
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	outlet, err := s.resolve(ctx, actor, outletID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := lockOrder(ctx, store, outletID, orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus == enum.OrderStatusCompleted {
		return nil, ErrOrderClosed
	}
	session, err := lockSession(ctx, store, outletID, order.OrderSessionID)
	if err != nil {
		return nil, err
	}
	if session.SessionStatus != enum.SessionStatusOnProgress {
		return nil, ErrSessionClosed
	}

	item, err := store.GetOrderItemForUpdate(ctx, database.GetOrderItemParams{ID: itemID, OrderID: orderID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("lock order item: %w", err)
	}

	delta := quantity - item.Quantity
	if delta == 0 {
		return &ItemUpdateResult{Session: session, Order: order, Item: item}, nil
	}

	// --- Totals ---
	oldTotal := numericToDecimal(item.TotalPrice)
	unitPrice := oldTotal.Div(decimal.NewFromInt32(item.Quantity))
	newTotal := unitPrice.Mul(decimal.NewFromInt32(quantity)).Round(2)
	diff := newTotal.Sub(oldTotal)
	d := decimal.NewFromInt32(delta)

	// collected money is never handed back implicitly
	if diff.IsNegative() && diff.Neg().GreaterThan(sessionBalance(session)) {
		return nil, ErrBelowCollected
	}

	// --- Stock ---
	plan := NewStockPlan()
	if err := s.planItemStock(ctx, store, outletID, item, delta, plan); err != nil {
		return nil, err
	}
	updatedStock, err := s.stock.Apply(ctx, store, outletID, plan)
	if err != nil {
		return nil, err
	}

	item, err = store.UpdateOrderItemQuantity(ctx, database.UpdateOrderItemQuantityParams{
		ID:         item.ID,
		Quantity:   quantity,
		TotalPrice: decimalToNumeric(newTotal),
	})
	if err != nil {
		return nil, fmt.Errorf("update order item quantity: %w", err)
	}

	order, err = store.AdjustOrderTotals(ctx, database.AdjustOrderTotalsParams{
		ID:               order.ID,
		TotalAmount:      decimalToNumeric(diff),
		TotalNetPrice:    decimalToNumeric(numericToDecimal(item.NetPrice).Mul(d)),
		GstPrice:         decimalToNumeric(numericToDecimal(item.Gst).Mul(d)),
		TotalGrossProfit: decimalToNumeric(numericToDecimal(item.GrossProfit).Mul(d)),
	})
	if err != nil {
		return nil, fmt.Errorf("adjust order totals: %w", err)
	}

	session, err = store.AddSessionSubTotal(ctx, database.AddSessionSubTotalParams{
		ID:         session.ID,
		Amount:     decimalToNumeric(diff),
		PaidAmount: decimalToNumeric(decimal.Zero),
	})
	if err != nil {
		return nil, fmt.Errorf("add session sub total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.relay.Announce(Notice{
		Event: OrderEvent{
			Type:      enum.EventOrderUpdated,
			OutletID:  outlet.ID,
			SessionID: session.ID,
			OrderID:   &order.ID,
			BillID:    session.BillID,
		},
		LowStock: lowStock(updatedStock),
	})
	return &ItemUpdateResult{Session: session, Order: order, Item: item}, nil
}

// planItemStock re-resolves the recipes behind a stored order line and plans
// a signed movement of delta units.
func (s *OrderSessionService) planItemStock(ctx context.Context, store OrderStore, outletID uuid.UUID, item database.OrderItem, delta int32, plan *StockPlan) error {
	menu, err := store.GetMenuItemForOrder(ctx, database.GetMenuItemForOrderParams{
		ID:       item.MenuID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("get menu item: %w", err)
	}

	recipe := menuItemRecipe(menu)
	if item.SizeVariantID.Valid {
		variant, err := getSizeVariant(ctx, store, menu, uuid.UUID(item.SizeVariantID.Bytes))
		if err != nil {
			return err
		}
		if _, ok := sizeVariantRecipe(variant).RecipeID(); ok {
			recipe = sizeVariantRecipe(variant)
		}
	}
	if err := s.stock.Plan(ctx, store, outletID, recipe, delta, plan); err != nil {
		return err
	}

	addons, err := store.ListOrderItemAddons(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("list order item addons: %w", err)
	}
	for _, a := range addons {
		av, err := getAddonVariant(ctx, store, outletID, a.AddonID, a.AddonVariantID)
		if err != nil {
			return err
		}
		if err := s.stock.Plan(ctx, store, outletID, addonVariantRecipe(av), delta, plan); err != nil {
			return err
		}
	}
	return nil
}

func lockOrder(ctx context.Context, store OrderStore, outletID, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, database.GetOrderParams{ID: orderID, OutletID: outletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("lock order: %w", err)
	}
	return order, nil
}
