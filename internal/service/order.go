package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tablebill/api/internal/database"
	"github.com/tablebill/api/internal/enum"
)

const maxOrderNumberRetries = 3

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is a pool that serves plain reads and starts transactions.
// Satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	TxBeginner
}

// OrderStore defines the DB methods the order engine needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	ActorStore
	StockStore
	TableStore
	CashStore

	GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	GetOutletForUpdate(ctx context.Context, id uuid.UUID) (database.Outlet, error)
	IncrementInvoiceCounter(ctx context.Context, id uuid.UUID) (int32, error)

	GetMenuItemForOrder(ctx context.Context, arg database.GetMenuItemForOrderParams) (database.MenuItem, error)
	GetSizeVariantForOrder(ctx context.Context, id uuid.UUID) (database.SizeVariant, error)
	GetAddonVariantForOrder(ctx context.Context, arg database.GetAddonVariantForOrderParams) (database.AddonVariant, error)

	GetNextBillNumber(ctx context.Context, outletID uuid.UUID) (int32, error)
	CreateOrderSession(ctx context.Context, arg database.CreateOrderSessionParams) (database.OrderSession, error)
	GetOrderSession(ctx context.Context, arg database.GetOrderSessionParams) (database.OrderSession, error)
	GetOrderSessionForUpdate(ctx context.Context, arg database.GetOrderSessionParams) (database.OrderSession, error)
	AddSessionSubTotal(ctx context.Context, arg database.AddSessionSubTotalParams) (database.OrderSession, error)
	MarkSessionPaid(ctx context.Context, arg database.MarkSessionPaidParams) (database.OrderSession, error)
	UpdateSessionStatus(ctx context.Context, arg database.UpdateSessionStatusParams) (database.OrderSession, error)

	GetNextOrderNumber(ctx context.Context, outletID uuid.UUID) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrdersBySession(ctx context.Context, orderSessionID uuid.UUID) ([]database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	AdjustOrderTotals(ctx context.Context, arg database.AdjustOrderTotalsParams) (database.Order, error)

	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItemForUpdate(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	UpdateOrderItemQuantity(ctx context.Context, arg database.UpdateOrderItemQuantityParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	CreateOrderItemAddon(ctx context.Context, arg database.CreateOrderItemAddonParams) (database.OrderItemAddon, error)
	ListOrderItemAddons(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemAddon, error)

	CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderRequest is the input for placing an order.
type OrderRequest struct {
	ActorID          uuid.UUID
	OrderType        string
	TableID          uuid.NullUUID
	Payment          Payment
	TotalAmount      decimal.Decimal
	TotalNetPrice    decimal.Decimal
	GstPrice         decimal.Decimal
	TotalGrossProfit decimal.Decimal
	Items            []OrderItemRequest
	// InviteCode lets a customer join a table's running session.
	InviteCode string
}

// OrderItemRequest is a single line in the order.
type OrderItemRequest struct {
	MenuID        uuid.UUID
	Quantity      int32
	SizeVariantID uuid.NullUUID
	AddOns        []AddOnSelection
}

// AddOnSelection picks variants of one addon group.
type AddOnSelection struct {
	AddOnID    uuid.UUID
	VariantIDs []uuid.UUID
}

// OrderResult is the outcome of a committed order placement.
type OrderResult struct {
	Session      database.OrderSession
	Order        database.Order
	Items        []OrderItemResult
	Table        *database.DiningTable
	Transactions []database.CashTransaction
	// Joined is set when the order was added to an existing session.
	Joined bool

	lowStock []database.RawMaterial
}

// OrderItemResult is an item with its addons.
type OrderItemResult struct {
	Item   database.OrderItem
	AddOns []database.OrderItemAddon
}

// OrderSessionService places orders and keeps sessions, stock, tables and
// the cash ledger consistent with them.
type OrderSessionService struct {
	db       DB
	newStore NewOrderStore
	stock    StockLedger
	tables   TableAssignment
	cash     CashLedger
	relay    *Relay
	logger   *slog.Logger
}

// NewOrderSessionService creates a new OrderSessionService. relay may be nil.
func NewOrderSessionService(db DB, newStore NewOrderStore, relay *Relay, logger *slog.Logger) *OrderSessionService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OrderSessionService{
		db:       db,
		newStore: newStore,
		tables:   NewTableAssignment(),
		relay:    relay,
		logger:   logger,
	}
}

// preparedItem holds a priced order line and its addons before insert.
type preparedItem struct {
	params database.CreateOrderItemParams
	addons []database.CreateOrderItemAddonParams
}

// placedOrder is the in-transaction result of inserting one order.
type placedOrder struct {
	order    database.Order
	items    []OrderItemResult
	lowStock []database.RawMaterial
}

// CreateOrder opens a new session with its first order.
func (s *OrderSessionService) CreateOrder(ctx context.Context, actor Actor, outletID uuid.UUID, req OrderRequest) (*OrderResult, error) {
	if err := authorize(actor, req.ActorID); err != nil {
		return nil, err
	}
	if !enum.IsOrderType(req.OrderType) {
		return nil, ErrInvalidOrderType
	}
	if req.OrderType == enum.OrderTypeDineIn && !req.TableID.Valid {
		return nil, ErrTableRequired
	}
	if err := validateOrderBody(actor, req); err != nil {
		return nil, err
	}

	outlet, err := s.resolve(ctx, actor, outletID)
	if err != nil {
		return nil, err
	}
	if req.TableID.Valid {
		if err := s.checkTable(ctx, outletID, req.TableID.UUID, false); err != nil {
			return nil, err
		}
	}

	result, err := s.withRetry(func() (*OrderResult, error) {
		return s.createOrderTx(ctx, actor, outlet, req, false)
	})
	if err != nil {
		return nil, err
	}
	s.announceOrder(outlet, result)
	return result, nil
}

// CustomerOrder places a self-service order at a table. When the table
// already holds an open session the order is appended to it.
func (s *OrderSessionService) CustomerOrder(ctx context.Context, actor Actor, outletID, tableID uuid.UUID, req OrderRequest) (*OrderResult, error) {
	if actor.Kind != enum.ActorCustomer {
		return nil, ErrActorNotAllowed
	}
	if err := authorize(actor, req.ActorID); err != nil {
		return nil, err
	}
	if req.OrderType == "" {
		req.OrderType = enum.OrderTypeDineIn
	}
	if req.OrderType != enum.OrderTypeDineIn {
		return nil, ErrInvalidOrderType
	}
	req.TableID = uuid.NullUUID{UUID: tableID, Valid: true}
	if err := validateOrderBody(actor, req); err != nil {
		return nil, err
	}

	outlet, err := s.resolve(ctx, actor, outletID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTable(ctx, outletID, tableID, true); err != nil {
		return nil, err
	}

	result, err := s.withRetry(func() (*OrderResult, error) {
		return s.createOrderTx(ctx, actor, outlet, req, true)
	})
	if err != nil {
		return nil, err
	}
	s.announceOrder(outlet, result)
	return result, nil
}

// AppendOrder adds a new order to an open session. Order type and table
// always come from the stored session.
func (s *OrderSessionService) AppendOrder(ctx context.Context, actor Actor, outletID, sessionID uuid.UUID, req OrderRequest) (*OrderResult, error) {
	if err := authorize(actor, req.ActorID); err != nil {
		return nil, err
	}
	if err := validateOrderBody(actor, req); err != nil {
		return nil, err
	}

	outlet, err := s.resolve(ctx, actor, outletID)
	if err != nil {
		return nil, err
	}

	result, err := s.withRetry(func() (*OrderResult, error) {
		return s.appendOrderTx(ctx, actor, outlet, sessionID, req)
	})
	if err != nil {
		return nil, err
	}
	s.announceOrder(outlet, result)
	return result, nil
}

// withRetry re-runs fn when a concurrent transaction took the same order
// or bill number.
func (s *OrderSessionService) withRetry(fn func() (*OrderResult, error)) (*OrderResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if isNumberConflict(err) {
			lastErr = err
			s.logger.Warn("order number conflict, retrying", slog.Int("attempt", attempt+1))
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isNumberConflict checks if the error is a unique constraint violation on
// the order number or bill id (pgconn error code 23505).
func isNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" &&
			(pgErr.ConstraintName == "orders_outlet_id_order_number_key" ||
				pgErr.ConstraintName == "order_sessions_outlet_id_bill_id_key")
	}
	return false
}

// resolve loads the outlet and checks the actor may act for it.
func (s *OrderSessionService) resolve(ctx context.Context, actor Actor, outletID uuid.UUID) (database.Outlet, error) {
	store := s.newStore(s.db)
	outlet, err := store.GetOutlet(ctx, outletID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Outlet{}, ErrOutletNotFound
		}
		return database.Outlet{}, fmt.Errorf("get outlet: %w", err)
	}
	if err := resolveActor(ctx, store, actor, outlet); err != nil {
		return database.Outlet{}, err
	}
	return outlet, nil
}

// checkTable fails fast on unknown tables and, unless joining is allowed,
// on tables that are already taken. The transaction re-checks under lock.
func (s *OrderSessionService) checkTable(ctx context.Context, outletID, tableID uuid.UUID, join bool) error {
	table, err := s.newStore(s.db).GetTable(ctx, database.GetTableParams{ID: tableID, OutletID: outletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTableNotFound
		}
		return fmt.Errorf("get table: %w", err)
	}
	if table.Occupied && !join {
		return ErrTableOccupied
	}
	return nil
}

// createOrderTx executes the full session creation in a single transaction.
func (s *OrderSessionService) createOrderTx(ctx context.Context, actor Actor, outlet database.Outlet, req OrderRequest, join bool) (*OrderResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Lock table ---
	if req.TableID.Valid {
		table, err := s.tables.Lock(ctx, store, outlet.ID, req.TableID.UUID)
		if err != nil {
			return nil, err
		}
		if table.Occupied {
			if !join || !table.CurrentOrderSessionID.Valid {
				return nil, ErrTableOccupied
			}
			session, err := lockSession(ctx, store, outlet.ID, uuid.UUID(table.CurrentOrderSessionID.Bytes))
			if err != nil {
				return nil, err
			}
			if session.SessionStatus != enum.SessionStatusOnProgress {
				return nil, ErrTableOccupied
			}
			if !ownsSession(actor, session) {
				if err := s.tables.Admit(table, session.ID, req.InviteCode); err != nil {
					return nil, err
				}
			}
			result, err := s.appendInTx(ctx, store, actor, outlet, session, req)
			if err != nil {
				return nil, err
			}
			if err := tx.Commit(ctx); err != nil {
				return nil, fmt.Errorf("commit tx: %w", err)
			}
			result.Table = &table
			result.Joined = true
			return result, nil
		}
	}

	// --- Bill number ---
	billNumber, billID, err := nextBill(ctx, store, outlet)
	if err != nil {
		return nil, err
	}

	// --- Session ---
	adminID, staffID, customerID := ownerColumns(actor)
	paymentMethod := pgtype.Text{}
	if req.Payment.IsPaid {
		paymentMethod = textToPg(req.Payment.Method)
	}
	session, err := store.CreateOrderSession(ctx, database.CreateOrderSessionParams{
		OutletID:      outlet.ID,
		BillNumber:    billNumber,
		BillID:        billID,
		OrderType:     req.OrderType,
		TableID:       nullUUIDToPg(req.TableID),
		AdminID:       adminID,
		StaffID:       staffID,
		CustomerID:    customerID,
		IsPaid:        req.Payment.IsPaid,
		PaymentMethod: paymentMethod,
		SubTotal:      decimalToNumeric(req.TotalAmount),
		PaidAmount:    decimalToNumeric(req.Payment.collected(req.TotalAmount)),
	})
	if err != nil {
		return nil, fmt.Errorf("create order session: %w", err)
	}

	// --- Order, items, stock ---
	placed, err := s.placeOrder(ctx, store, outlet.ID, session, req)
	if err != nil {
		return nil, err
	}

	result := &OrderResult{
		Session:  session,
		Order:    placed.order,
		Items:    placed.items,
		lowStock: placed.lowStock,
	}

	// --- Table ---
	if req.TableID.Valid {
		table, err := s.tables.Occupy(ctx, store, outlet.ID, req.TableID.UUID, session.ID)
		if err != nil {
			return nil, err
		}
		result.Table = &table
	}

	// --- Notification ---
	if err := createNotification(ctx, store, session, placed.order, "New order"); err != nil {
		return nil, err
	}

	// --- Invoice counter ---
	if outlet.GstEnabled {
		counter, err := store.IncrementInvoiceCounter(ctx, outlet.ID)
		if err != nil {
			return nil, fmt.Errorf("increment invoice counter: %w", err)
		}
		if counter != billNumber {
			return nil, fmt.Errorf("invoice counter moved to %d while issuing bill %d", counter, billNumber)
		}
	}

	// --- Cash ledger ---
	if req.Payment.IsPaid {
		txs, err := s.cash.Record(ctx, store, outlet.ID, session.ID, actor.ID, req.Payment, req.TotalAmount)
		if err != nil {
			return nil, err
		}
		result.Transactions = txs
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// appendOrderTx adds an order to an existing session in one transaction.
func (s *OrderSessionService) appendOrderTx(ctx context.Context, actor Actor, outlet database.Outlet, sessionID uuid.UUID, req OrderRequest) (*OrderResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// guests of a table lock the table before the session, like CustomerOrder
	if actor.Kind == enum.ActorCustomer {
		if err := s.admitCustomer(ctx, store, actor, outlet.ID, sessionID, req.InviteCode); err != nil {
			return nil, err
		}
	}

	session, err := lockSession(ctx, store, outlet.ID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.SessionStatus != enum.SessionStatusOnProgress {
		return nil, ErrSessionClosed
	}

	result, err := s.appendInTx(ctx, store, actor, outlet, session, req)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// appendInTx runs the order steps shared by every append path.
func (s *OrderSessionService) appendInTx(ctx context.Context, store OrderStore, actor Actor, outlet database.Outlet, session database.OrderSession, req OrderRequest) (*OrderResult, error) {
	placed, err := s.placeOrder(ctx, store, outlet.ID, session, req)
	if err != nil {
		return nil, err
	}

	session, err = store.AddSessionSubTotal(ctx, database.AddSessionSubTotalParams{
		ID:         session.ID,
		Amount:     decimalToNumeric(req.TotalAmount),
		PaidAmount: decimalToNumeric(req.Payment.collected(req.TotalAmount)),
	})
	if err != nil {
		return nil, fmt.Errorf("add session sub total: %w", err)
	}

	if err := createNotification(ctx, store, session, placed.order, "Order added"); err != nil {
		return nil, err
	}

	result := &OrderResult{
		Session:  session,
		Order:    placed.order,
		Items:    placed.items,
		Joined:   true,
		lowStock: placed.lowStock,
	}
	if req.Payment.IsPaid {
		txs, err := s.cash.Record(ctx, store, outlet.ID, session.ID, actor.ID, req.Payment, req.TotalAmount)
		if err != nil {
			return nil, err
		}
		result.Transactions = txs
	}
	return result, nil
}

// placeOrder numbers, prices and inserts one order, then debits its stock.
func (s *OrderSessionService) placeOrder(ctx context.Context, store OrderStore, outletID uuid.UUID, session database.OrderSession, req OrderRequest) (*placedOrder, error) {
	nextNum, err := store.GetNextOrderNumber(ctx, outletID)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}

	plan := NewStockPlan()
	items := make([]preparedItem, 0, len(req.Items))
	for i, item := range req.Items {
		pi, err := s.prepareItem(ctx, store, outletID, item, plan)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		items = append(items, pi)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OutletID:         outletID,
		OrderSessionID:   session.ID,
		GeneratedOrderID: fmt.Sprintf("KOT-%03d", nextNum),
		OrderNumber:      nextNum,
		OrderType:        session.OrderType,
		OrderStatus:      enum.OrderStatusIncoming,
		TotalAmount:      decimalToNumeric(req.TotalAmount),
		TotalNetPrice:    decimalToNumeric(req.TotalNetPrice),
		GstPrice:         decimalToNumeric(req.GstPrice),
		TotalGrossProfit: decimalToNumeric(req.TotalGrossProfit),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	results := make([]OrderItemResult, 0, len(items))
	for _, pi := range items {
		pi.params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, pi.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}

		var addons []database.OrderItemAddon
		for _, ap := range pi.addons {
			ap.OrderItemID = item.ID
			addon, err := store.CreateOrderItemAddon(ctx, ap)
			if err != nil {
				return nil, fmt.Errorf("create order item addon: %w", err)
			}
			addons = append(addons, addon)
		}
		results = append(results, OrderItemResult{Item: item, AddOns: addons})
	}

	updated, err := s.stock.Apply(ctx, store, outletID, plan)
	if err != nil {
		return nil, err
	}

	return &placedOrder{
		order:    order,
		items:    results,
		lowStock: lowStock(updated),
	}, nil
}

// prepareItem snapshots the price of one line and plans its stock usage.
func (s *OrderSessionService) prepareItem(ctx context.Context, store OrderStore, outletID uuid.UUID, req OrderItemRequest, plan *StockPlan) (preparedItem, error) {
	menu, err := store.GetMenuItemForOrder(ctx, database.GetMenuItemForOrderParams{
		ID:       req.MenuID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return preparedItem{}, ErrMenuItemNotFound
		}
		return preparedItem{}, fmt.Errorf("get menu item: %w", err)
	}

	snap := snapshotMenuItem(menu)
	recipe := menuItemRecipe(menu)
	sizeVariantID := pgtype.UUID{}
	if req.SizeVariantID.Valid {
		variant, err := getSizeVariant(ctx, store, menu, req.SizeVariantID.UUID)
		if err != nil {
			return preparedItem{}, err
		}
		snap = snapshotSizeVariant(menu, variant)
		if _, ok := sizeVariantRecipe(variant).RecipeID(); ok {
			recipe = sizeVariantRecipe(variant)
		}
		sizeVariantID = uuidToPg(variant.ID)
	}

	addonTotal := decimal.Zero
	var addons []database.CreateOrderItemAddonParams
	for j, sel := range req.AddOns {
		for k, variantID := range sel.VariantIDs {
			av, err := getAddonVariant(ctx, store, outletID, sel.AddOnID, variantID)
			if err != nil {
				return preparedItem{}, fmt.Errorf("addOns[%d].variants[%d]: %w", j, k, err)
			}
			price := numericToDecimal(av.Price)
			addonTotal = addonTotal.Add(price)
			addons = append(addons, database.CreateOrderItemAddonParams{
				AddonID:        av.AddonID,
				AddonVariantID: av.ID,
				Name:           av.Name,
				Price:          decimalToNumeric(price),
			})
			if err := s.stock.Plan(ctx, store, outletID, addonVariantRecipe(av), req.Quantity, plan); err != nil {
				return preparedItem{}, fmt.Errorf("addOns[%d].variants[%d]: %w", j, k, err)
			}
		}
	}

	if err := s.stock.Plan(ctx, store, outletID, recipe, req.Quantity, plan); err != nil {
		return preparedItem{}, err
	}

	return preparedItem{
		params: database.CreateOrderItemParams{
			MenuID:        menu.ID,
			SizeVariantID: sizeVariantID,
			Name:          snap.Name,
			Quantity:      req.Quantity,
			OriginalRate:  decimalToNumeric(snap.OriginalRate),
			NetPrice:      decimalToNumeric(snap.NetPrice),
			Gst:           decimalToNumeric(snap.Gst),
			GrossProfit:   decimalToNumeric(snap.GrossProfit),
			TotalPrice:    decimalToNumeric(snap.LineTotal(addonTotal, req.Quantity)),
		},
		addons: addons,
	}, nil
}

// --- Helpers ---

// validateOrderBody checks everything that needs no database access.
func validateOrderBody(actor Actor, req OrderRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.MenuID == uuid.Nil {
			return fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	if req.TotalAmount.IsNegative() || req.TotalNetPrice.IsNegative() ||
		req.GstPrice.IsNegative() || req.TotalGrossProfit.IsNegative() {
		return ErrInvalidTotals
	}
	if req.Payment.IsPaid && actor.Kind == enum.ActorCustomer {
		return ErrPaymentNotAllowed
	}
	return validatePayment(req.Payment, req.TotalAmount)
}

// nextBill picks the outlet-scoped bill number. GST outlets number bills
// from their invoice counter under an outlet row lock.
func nextBill(ctx context.Context, store OrderStore, outlet database.Outlet) (int32, string, error) {
	if outlet.GstEnabled {
		locked, err := store.GetOutletForUpdate(ctx, outlet.ID)
		if err != nil {
			return 0, "", fmt.Errorf("lock outlet: %w", err)
		}
		n := locked.InvoiceCounter + 1
		return n, fmt.Sprintf("%s%05d", locked.InvoicePrefix, n), nil
	}
	n, err := store.GetNextBillNumber(ctx, outlet.ID)
	if err != nil {
		return 0, "", fmt.Errorf("get next bill number: %w", err)
	}
	return n, fmt.Sprintf("BILL-%04d", n), nil
}

func lockSession(ctx context.Context, store OrderStore, outletID, sessionID uuid.UUID) (database.OrderSession, error) {
	session, err := store.GetOrderSessionForUpdate(ctx, database.GetOrderSessionParams{
		ID:       sessionID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderSession{}, ErrSessionNotFound
		}
		return database.OrderSession{}, fmt.Errorf("lock order session: %w", err)
	}
	return session, nil
}

// ownsSession reports whether the customer opened the session.
func ownsSession(actor Actor, session database.OrderSession) bool {
	return actor.Kind == enum.ActorCustomer &&
		session.CustomerID.Valid && uuid.UUID(session.CustomerID.Bytes) == actor.ID
}

// admitCustomer lets a customer append to their own tab, or to a table's
// tab when they hold its invite code. The table row stays locked.
func (s *OrderSessionService) admitCustomer(ctx context.Context, store OrderStore, actor Actor, outletID, sessionID uuid.UUID, code string) error {
	session, err := store.GetOrderSession(ctx, database.GetOrderSessionParams{ID: sessionID, OutletID: outletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("get order session: %w", err)
	}
	if ownsSession(actor, session) {
		return nil
	}
	if !session.TableID.Valid {
		return ErrActorNotAllowed
	}
	table, err := s.tables.Lock(ctx, store, outletID, uuid.UUID(session.TableID.Bytes))
	if err != nil {
		return err
	}
	return s.tables.Admit(table, session.ID, code)
}

func getSizeVariant(ctx context.Context, store OrderStore, menu database.MenuItem, id uuid.UUID) (database.SizeVariant, error) {
	variant, err := store.GetSizeVariantForOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.SizeVariant{}, ErrVariantNotFound
		}
		return database.SizeVariant{}, fmt.Errorf("get size variant: %w", err)
	}
	if variant.MenuItemID != menu.ID {
		return database.SizeVariant{}, ErrVariantMismatch
	}
	return variant, nil
}

func getAddonVariant(ctx context.Context, store OrderStore, outletID, addonID, variantID uuid.UUID) (database.AddonVariant, error) {
	av, err := store.GetAddonVariantForOrder(ctx, database.GetAddonVariantForOrderParams{
		ID:       variantID,
		OutletID: outletID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.AddonVariant{}, ErrAddonNotFound
		}
		return database.AddonVariant{}, fmt.Errorf("get addon variant: %w", err)
	}
	if addonID != uuid.Nil && av.AddonID != addonID {
		return database.AddonVariant{}, ErrAddonMismatch
	}
	return av, nil
}

func createNotification(ctx context.Context, store OrderStore, session database.OrderSession, order database.Order, title string) error {
	_, err := store.CreateNotification(ctx, database.CreateNotificationParams{
		OutletID:       session.OutletID,
		OrderSessionID: uuidToPg(session.ID),
		Title:          title,
		Body:           fmt.Sprintf("%s on bill %s (%s)", order.GeneratedOrderID, session.BillID, session.OrderType),
	})
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// announceOrder hands a committed placement to the relay.
func (s *OrderSessionService) announceOrder(outlet database.Outlet, result *OrderResult) {
	eventType := enum.EventSessionCreated
	title := "New order"
	if result.Joined {
		eventType = enum.EventSessionUpdated
		title = "Order added"
	}
	orderID := result.Order.ID
	s.relay.Announce(Notice{
		Event: OrderEvent{
			Type:      eventType,
			OutletID:  outlet.ID,
			SessionID: result.Session.ID,
			OrderID:   &orderID,
			BillID:    result.Session.BillID,
		},
		DeviceToken: outlet.DeviceToken.String,
		PushTitle:   title,
		PushBody:    fmt.Sprintf("%s on bill %s", result.Order.GeneratedOrderID, result.Session.BillID),
		LowStock:    result.lowStock,
	})
}
