package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tablebill/api/internal/database"
	"github.com/tablebill/api/internal/enum"
)

// --- In-memory store ---

// memState is the full data set. Transactions snapshot it on Begin and put
// the snapshot back on Rollback.
type memState struct {
	outlets       map[uuid.UUID]database.Outlet
	admins        map[uuid.UUID]database.Admin
	staff         map[uuid.UUID]database.Staff
	customers     map[uuid.UUID]database.Customer
	menuItems     map[uuid.UUID]database.MenuItem
	sizeVariants  map[uuid.UUID]database.SizeVariant
	addonVariants map[uuid.UUID]database.AddonVariant
	addonOutlets  map[uuid.UUID]uuid.UUID
	recipes       map[uuid.UUID][]database.RecipeIngredient
	rawMaterials  map[uuid.UUID]database.RawMaterial
	tables        map[uuid.UUID]database.DiningTable
	registers     map[uuid.UUID]database.CashRegister
	sessions      map[uuid.UUID]database.OrderSession
	orders        map[uuid.UUID]database.Order
	items         map[uuid.UUID]database.OrderItem
	itemSeq       []uuid.UUID
	itemAddons    map[uuid.UUID]database.OrderItemAddon
	addonSeq      []uuid.UUID
	cashTxs       []database.CashTransaction
	notifications []database.Notification
}

func newMemState() *memState {
	return &memState{
		outlets:       map[uuid.UUID]database.Outlet{},
		admins:        map[uuid.UUID]database.Admin{},
		staff:         map[uuid.UUID]database.Staff{},
		customers:     map[uuid.UUID]database.Customer{},
		menuItems:     map[uuid.UUID]database.MenuItem{},
		sizeVariants:  map[uuid.UUID]database.SizeVariant{},
		addonVariants: map[uuid.UUID]database.AddonVariant{},
		addonOutlets:  map[uuid.UUID]uuid.UUID{},
		recipes:       map[uuid.UUID][]database.RecipeIngredient{},
		rawMaterials:  map[uuid.UUID]database.RawMaterial{},
		tables:        map[uuid.UUID]database.DiningTable{},
		registers:     map[uuid.UUID]database.CashRegister{},
		sessions:      map[uuid.UUID]database.OrderSession{},
		orders:        map[uuid.UUID]database.Order{},
		items:         map[uuid.UUID]database.OrderItem{},
		itemAddons:    map[uuid.UUID]database.OrderItemAddon{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	return &memState{
		outlets:       copyMap(s.outlets),
		admins:        copyMap(s.admins),
		staff:         copyMap(s.staff),
		customers:     copyMap(s.customers),
		menuItems:     copyMap(s.menuItems),
		sizeVariants:  copyMap(s.sizeVariants),
		addonVariants: copyMap(s.addonVariants),
		addonOutlets:  copyMap(s.addonOutlets),
		recipes:       copyMap(s.recipes),
		rawMaterials:  copyMap(s.rawMaterials),
		tables:        copyMap(s.tables),
		registers:     copyMap(s.registers),
		sessions:      copyMap(s.sessions),
		orders:        copyMap(s.orders),
		items:         copyMap(s.items),
		itemSeq:       append([]uuid.UUID(nil), s.itemSeq...),
		itemAddons:    copyMap(s.itemAddons),
		addonSeq:      append([]uuid.UUID(nil), s.addonSeq...),
		cashTxs:       append([]database.CashTransaction(nil), s.cashTxs...),
		notifications: append([]database.Notification(nil), s.notifications...),
	}
}

// memStore implements OrderStore and DB on top of memState.
type memStore struct {
	mu   sync.Mutex
	st   *memState
	txMu sync.Mutex

	// failures are returned, in order, by the named method before it runs.
	failures map[string][]error

	begins    int
	commits   int
	rollbacks int
	commitErr error
}

func newMemStore() *memStore {
	return &memStore{st: newMemState(), failures: map[string][]error{}}
}

func (m *memStore) failNext(method string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = append(m.failures[method], errs...)
}

// fail pops the next injected failure for method. Caller holds mu.
func (m *memStore) fail(method string) error {
	errs := m.failures[method]
	if len(errs) == 0 {
		return nil
	}
	m.failures[method] = errs[1:]
	return errs[0]
}

func (m *memStore) newStore(db database.DBTX) OrderStore { return m }

// snapshot returns a copy of the committed state for assertions.
func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.clone()
}

// --- DB / pgx.Tx ---

func (m *memStore) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *memStore) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *memStore) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	panic("not implemented")
}

func (m *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	m.txMu.Lock()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.begins++
	if err := m.fail("Begin"); err != nil {
		m.txMu.Unlock()
		return nil, err
	}
	return &memTx{store: m, saved: m.st.clone()}, nil
}

// memTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type memTx struct {
	store *memStore
	saved *memState
	done  bool
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.store.mu.Lock()
	err := t.store.commitErr
	if err != nil {
		t.store.st = t.saved
	} else {
		t.store.commits++
	}
	t.store.mu.Unlock()
	t.done = true
	t.store.txMu.Unlock()
	return err
}
func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.store.mu.Lock()
	t.store.st = t.saved
	t.store.rollbacks++
	t.store.mu.Unlock()
	t.done = true
	t.store.txMu.Unlock()
	return nil
}
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *memTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *memTx) Conn() *pgx.Conn { panic("not implemented") }

// --- Outlets and actors ---

func (m *memStore) GetOutlet(ctx context.Context, id uuid.UUID) (database.Outlet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetOutlet"); err != nil {
		return database.Outlet{}, err
	}
	o, ok := m.st.outlets[id]
	if !ok || !o.IsActive {
		return database.Outlet{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) GetOutletForUpdate(ctx context.Context, id uuid.UUID) (database.Outlet, error) {
	return m.GetOutlet(ctx, id)
}

func (m *memStore) IncrementInvoiceCounter(ctx context.Context, id uuid.UUID) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.st.outlets[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	o.InvoiceCounter++
	m.st.outlets[id] = o
	return o.InvoiceCounter, nil
}

func (m *memStore) GetAdmin(ctx context.Context, id uuid.UUID) (database.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.st.admins[id]
	if !ok {
		return database.Admin{}, pgx.ErrNoRows
	}
	return a, nil
}

func (m *memStore) GetStaff(ctx context.Context, arg database.GetStaffParams) (database.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.st.staff[arg.ID]
	if !ok || st.OutletID != arg.OutletID {
		return database.Staff{}, pgx.ErrNoRows
	}
	return st, nil
}

func (m *memStore) GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.st.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

// --- Menu ---

func (m *memStore) GetMenuItemForOrder(ctx context.Context, arg database.GetMenuItemForOrderParams) (database.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mi, ok := m.st.menuItems[arg.ID]
	if !ok || mi.OutletID != arg.OutletID || !mi.IsAvailable {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return mi, nil
}

func (m *memStore) GetSizeVariantForOrder(ctx context.Context, id uuid.UUID) (database.SizeVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.st.sizeVariants[id]
	if !ok {
		return database.SizeVariant{}, pgx.ErrNoRows
	}
	return v, nil
}

func (m *memStore) GetAddonVariantForOrder(ctx context.Context, arg database.GetAddonVariantForOrderParams) (database.AddonVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.st.addonVariants[arg.ID]
	if !ok || m.st.addonOutlets[v.AddonID] != arg.OutletID {
		return database.AddonVariant{}, pgx.ErrNoRows
	}
	return v, nil
}

func (m *memStore) ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]database.RecipeIngredient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.RecipeIngredient(nil), m.st.recipes[recipeID]...), nil
}

// --- Stock ---

func (m *memStore) GetRawMaterial(ctx context.Context, arg database.GetRawMaterialParams) (database.RawMaterial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.st.rawMaterials[arg.ID]
	if !ok || rm.OutletID != arg.OutletID {
		return database.RawMaterial{}, pgx.ErrNoRows
	}
	return rm, nil
}

func (m *memStore) DebitRawMaterial(ctx context.Context, arg database.DebitRawMaterialParams) (database.RawMaterial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.st.rawMaterials[arg.ID]
	if !ok || rm.OutletID != arg.OutletID {
		return database.RawMaterial{}, pgx.ErrNoRows
	}
	current := numericToDecimal(rm.CurrentStock)
	amount := numericToDecimal(arg.Amount)
	if current.LessThan(amount) {
		return database.RawMaterial{}, pgx.ErrNoRows
	}
	rm.CurrentStock = stockToNumeric(current.Sub(amount))
	m.st.rawMaterials[rm.ID] = rm
	return rm, nil
}

func (m *memStore) CreditRawMaterial(ctx context.Context, arg database.CreditRawMaterialParams) (database.RawMaterial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.st.rawMaterials[arg.ID]
	if !ok || rm.OutletID != arg.OutletID {
		return database.RawMaterial{}, pgx.ErrNoRows
	}
	rm.CurrentStock = stockToNumeric(numericToDecimal(rm.CurrentStock).Add(numericToDecimal(arg.Amount)))
	m.st.rawMaterials[rm.ID] = rm
	return rm, nil
}

// --- Sessions ---

func (m *memStore) GetNextBillNumber(ctx context.Context, outletID uuid.UUID) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max int32
	for _, s := range m.st.sessions {
		if s.OutletID == outletID && s.BillNumber > max {
			max = s.BillNumber
		}
	}
	return max + 1, nil
}

func (m *memStore) CreateOrderSession(ctx context.Context, arg database.CreateOrderSessionParams) (database.OrderSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateOrderSession"); err != nil {
		return database.OrderSession{}, err
	}
	for _, s := range m.st.sessions {
		if s.OutletID == arg.OutletID && s.BillID == arg.BillID {
			return database.OrderSession{}, &pgconn.PgError{Code: "23505", ConstraintName: "order_sessions_outlet_id_bill_id_key"}
		}
	}
	now := time.Now()
	s := database.OrderSession{
		ID:            uuid.New(),
		OutletID:      arg.OutletID,
		BillNumber:    arg.BillNumber,
		BillID:        arg.BillID,
		OrderType:     arg.OrderType,
		TableID:       arg.TableID,
		AdminID:       arg.AdminID,
		StaffID:       arg.StaffID,
		CustomerID:    arg.CustomerID,
		IsPaid:        arg.IsPaid,
		PaymentMethod: arg.PaymentMethod,
		SubTotal:      arg.SubTotal,
		PaidAmount:    orZero(arg.PaidAmount),
		SessionStatus: enum.SessionStatusOnProgress,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.st.sessions[s.ID] = s
	return s, nil
}

func (m *memStore) GetOrderSession(ctx context.Context, arg database.GetOrderSessionParams) (database.OrderSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.st.sessions[arg.ID]
	if !ok || s.OutletID != arg.OutletID {
		return database.OrderSession{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *memStore) GetOrderSessionForUpdate(ctx context.Context, arg database.GetOrderSessionParams) (database.OrderSession, error) {
	return m.GetOrderSession(ctx, arg)
}

func (m *memStore) AddSessionSubTotal(ctx context.Context, arg database.AddSessionSubTotalParams) (database.OrderSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.st.sessions[arg.ID]
	if !ok {
		return database.OrderSession{}, pgx.ErrNoRows
	}
	subTotal := numericToDecimal(s.SubTotal).Add(numericToDecimal(arg.Amount))
	paid := numericToDecimal(s.PaidAmount).Add(numericToDecimal(arg.PaidAmount))
	if paid.IsNegative() || paid.GreaterThan(subTotal) {
		return database.OrderSession{}, &pgconn.PgError{Code: "23514", ConstraintName: "order_sessions_check"}
	}
	s.SubTotal = decimalToNumeric(subTotal)
	s.PaidAmount = decimalToNumeric(paid)
	s.IsPaid = paid.GreaterThanOrEqual(subTotal)
	m.st.sessions[s.ID] = s
	return s, nil
}

func (m *memStore) MarkSessionPaid(ctx context.Context, arg database.MarkSessionPaidParams) (database.OrderSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.st.sessions[arg.ID]
	if !ok {
		return database.OrderSession{}, pgx.ErrNoRows
	}
	s.IsPaid = true
	s.PaymentMethod = arg.PaymentMethod
	s.PaidAmount = decimalToNumeric(numericToDecimal(s.PaidAmount).Add(numericToDecimal(arg.Amount)))
	m.st.sessions[s.ID] = s
	return s, nil
}

func (m *memStore) UpdateSessionStatus(ctx context.Context, arg database.UpdateSessionStatusParams) (database.OrderSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.st.sessions[arg.ID]
	if !ok || s.SessionStatus != enum.SessionStatusOnProgress {
		return database.OrderSession{}, pgx.ErrNoRows
	}
	s.SessionStatus = arg.SessionStatus
	s.Active = arg.Active
	m.st.sessions[s.ID] = s
	return s, nil
}

// orZero mirrors the column default for params left unset.
func orZero(n pgtype.Numeric) pgtype.Numeric {
	if !n.Valid {
		return decimalToNumeric(decimal.Zero)
	}
	return n
}

// --- Orders ---

func (m *memStore) GetNextOrderNumber(ctx context.Context, outletID uuid.UUID) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max int32
	for _, o := range m.st.orders {
		if o.OutletID == outletID && o.OrderNumber > max {
			max = o.OrderNumber
		}
	}
	return max + 1, nil
}

func (m *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	now := time.Now()
	o := database.Order{
		ID:               uuid.New(),
		OutletID:         arg.OutletID,
		OrderSessionID:   arg.OrderSessionID,
		GeneratedOrderID: arg.GeneratedOrderID,
		OrderNumber:      arg.OrderNumber,
		OrderType:        arg.OrderType,
		OrderStatus:      arg.OrderStatus,
		TotalAmount:      arg.TotalAmount,
		TotalNetPrice:    arg.TotalNetPrice,
		GstPrice:         arg.GstPrice,
		TotalGrossProfit: arg.TotalGrossProfit,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.st.orders[o.ID] = o
	return o, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, arg database.GetOrderParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.st.orders[arg.ID]
	if !ok || o.OutletID != arg.OutletID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) ListOrdersBySession(ctx context.Context, orderSessionID uuid.UUID) ([]database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.Order
	for _, o := range m.st.orders {
		if o.OrderSessionID == orderSessionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateOrderStatus"); err != nil {
		return database.Order{}, err
	}
	o, ok := m.st.orders[arg.ID]
	if !ok || o.OutletID != arg.OutletID || o.OrderStatus != arg.Status_2 {
		return database.Order{}, pgx.ErrNoRows
	}
	o.OrderStatus = arg.Status
	m.st.orders[o.ID] = o
	return o, nil
}

func (m *memStore) AdjustOrderTotals(ctx context.Context, arg database.AdjustOrderTotalsParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.st.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	add := func(a, b pgtype.Numeric) pgtype.Numeric {
		return decimalToNumeric(numericToDecimal(a).Add(numericToDecimal(b)))
	}
	o.TotalAmount = add(o.TotalAmount, arg.TotalAmount)
	o.TotalNetPrice = add(o.TotalNetPrice, arg.TotalNetPrice)
	o.GstPrice = add(o.GstPrice, arg.GstPrice)
	o.TotalGrossProfit = add(o.TotalGrossProfit, arg.TotalGrossProfit)
	m.st.orders[o.ID] = o
	return o, nil
}

func (m *memStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := database.OrderItem{
		ID:            uuid.New(),
		OrderID:       arg.OrderID,
		MenuID:        arg.MenuID,
		SizeVariantID: arg.SizeVariantID,
		Name:          arg.Name,
		Quantity:      arg.Quantity,
		OriginalRate:  arg.OriginalRate,
		NetPrice:      arg.NetPrice,
		Gst:           arg.Gst,
		GrossProfit:   arg.GrossProfit,
		TotalPrice:    arg.TotalPrice,
	}
	m.st.items[it.ID] = it
	m.st.itemSeq = append(m.st.itemSeq, it.ID)
	return it, nil
}

func (m *memStore) GetOrderItemForUpdate(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.st.items[arg.ID]
	if !ok || it.OrderID != arg.OrderID {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *memStore) UpdateOrderItemQuantity(ctx context.Context, arg database.UpdateOrderItemQuantityParams) (database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.st.items[arg.ID]
	if !ok {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	it.Quantity = arg.Quantity
	it.TotalPrice = arg.TotalPrice
	m.st.items[it.ID] = it
	return it, nil
}

func (m *memStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.OrderItem
	for _, id := range m.st.itemSeq {
		if it := m.st.items[id]; it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) CreateOrderItemAddon(ctx context.Context, arg database.CreateOrderItemAddonParams) (database.OrderItemAddon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := database.OrderItemAddon{
		ID:             uuid.New(),
		OrderItemID:    arg.OrderItemID,
		AddonID:        arg.AddonID,
		AddonVariantID: arg.AddonVariantID,
		Name:           arg.Name,
		Price:          arg.Price,
	}
	m.st.itemAddons[a.ID] = a
	m.st.addonSeq = append(m.st.addonSeq, a.ID)
	return a, nil
}

func (m *memStore) ListOrderItemAddons(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemAddon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.OrderItemAddon
	for _, id := range m.st.addonSeq {
		if a := m.st.itemAddons[id]; a.OrderItemID == orderItemID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- Tables ---

func (m *memStore) GetTable(ctx context.Context, arg database.GetTableParams) (database.DiningTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.st.tables[arg.ID]
	if !ok || t.OutletID != arg.OutletID {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memStore) GetTableForUpdate(ctx context.Context, arg database.GetTableParams) (database.DiningTable, error) {
	return m.GetTable(ctx, arg)
}

func (m *memStore) OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.DiningTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.st.tables[arg.ID]
	if !ok || t.OutletID != arg.OutletID || t.Occupied {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	t.Occupied = true
	t.CurrentOrderSessionID = arg.SessionID
	t.InviteCode = arg.InviteCode
	m.st.tables[t.ID] = t
	return t, nil
}

func (m *memStore) ReleaseTable(ctx context.Context, arg database.ReleaseTableParams) (database.DiningTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.st.tables[arg.ID]
	if !ok || !t.CurrentOrderSessionID.Valid || t.CurrentOrderSessionID.Bytes != arg.SessionID.Bytes {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	t.Occupied = false
	t.CurrentOrderSessionID = pgtype.UUID{}
	t.InviteCode = pgtype.Text{}
	m.st.tables[t.ID] = t
	return t, nil
}

// --- Cash ---

func (m *memStore) GetOpenCashRegister(ctx context.Context, arg database.GetOpenCashRegisterParams) (database.CashRegister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.st.registers[arg.ID]
	if !ok || r.OutletID != arg.OutletID || r.Status != enum.RegisterStatusOpen {
		return database.CashRegister{}, pgx.ErrNoRows
	}
	return r, nil
}

func (m *memStore) CreateCashTransaction(ctx context.Context, arg database.CreateCashTransactionParams) (database.CashTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ct := database.CashTransaction{
		ID:             uuid.New(),
		RegisterID:     arg.RegisterID,
		Amount:         arg.Amount,
		Type:           arg.Type,
		Source:         arg.Source,
		PaymentMethod:  arg.PaymentMethod,
		OrderSessionID: arg.OrderSessionID,
		PerformedBy:    arg.PerformedBy,
		Description:    arg.Description,
		CreatedAt:      time.Now(),
	}
	m.st.cashTxs = append(m.st.cashTxs, ct)
	return ct, nil
}

// --- Notifications ---

func (m *memStore) CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := database.Notification{
		ID:             uuid.New(),
		OutletID:       arg.OutletID,
		OrderSessionID: arg.OrderSessionID,
		Title:          arg.Title,
		Body:           arg.Body,
		CreatedAt:      time.Now(),
	}
	m.st.notifications = append(m.st.notifications, n)
	return n, nil
}

// --- Fixture ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	exp, _ := decimal.NewFromString(expected)
	return numericToDecimal(n).Equal(exp)
}

// fixture is a single outlet with a menu, stock, tables and a register.
type fixture struct {
	store *memStore
	svc   *OrderSessionService

	outletID   uuid.UUID
	adminID    uuid.UUID
	staffID    uuid.UUID
	customerID uuid.UUID
	tableID    uuid.UUID
	table2ID   uuid.UUID
	registerID uuid.UUID

	gramUnit uuid.UUID
	kiloUnit uuid.UUID

	// burger: 250.00, recipe of 150 g of beef (stock kept in kg, factor 1000)
	burgerID uuid.UUID
	beefID   uuid.UUID
	// tea: 40.00, manual profit, no recipe
	teaID uuid.UUID
	// cheese addon variant: 30.00, recipe of 1 slice (stock unit)
	addonID  uuid.UUID
	cheeseID uuid.UUID
	sliceID  uuid.UUID
	// large burger variant: 320.00, its own recipe of 250 g beef
	largeID uuid.UUID
}

func (f *fixture) staff() Actor    { return Actor{Kind: enum.ActorStaff, ID: f.staffID} }
func (f *fixture) admin() Actor    { return Actor{Kind: enum.ActorAdmin, ID: f.adminID} }
func (f *fixture) customer() Actor { return Actor{Kind: enum.ActorCustomer, ID: f.customerID} }

func newFixture() *fixture {
	f := &fixture{
		store:      newMemStore(),
		outletID:   uuid.New(),
		adminID:    uuid.New(),
		staffID:    uuid.New(),
		customerID: uuid.New(),
		tableID:    uuid.New(),
		table2ID:   uuid.New(),
		registerID: uuid.New(),
		gramUnit:   uuid.New(),
		kiloUnit:   uuid.New(),
		burgerID:   uuid.New(),
		beefID:     uuid.New(),
		teaID:      uuid.New(),
		addonID:    uuid.New(),
		cheeseID:   uuid.New(),
		sliceID:    uuid.New(),
		largeID:    uuid.New(),
	}
	st := f.store.st

	st.admins[f.adminID] = database.Admin{ID: f.adminID, FullName: "Owner", IsActive: true}
	st.outlets[f.outletID] = database.Outlet{
		ID:            f.outletID,
		AdminID:       f.adminID,
		Name:          "Main Street",
		InvoicePrefix: "MS",
		DeviceToken:   pgtype.Text{String: "device-1", Valid: true},
		IsActive:      true,
	}
	st.staff[f.staffID] = database.Staff{ID: f.staffID, OutletID: f.outletID, FullName: "Biller", IsActive: true}
	st.customers[f.customerID] = database.Customer{ID: f.customerID, FullName: "Guest"}

	for _, id := range []uuid.UUID{f.tableID, f.table2ID} {
		st.tables[id] = database.DiningTable{ID: id, OutletID: f.outletID, Name: "T"}
	}
	st.registers[f.registerID] = database.CashRegister{
		ID:       f.registerID,
		OutletID: f.outletID,
		Status:   enum.RegisterStatusOpen,
	}

	st.rawMaterials[f.beefID] = database.RawMaterial{
		ID:                 f.beefID,
		OutletID:           f.outletID,
		Name:               "Beef patty mix",
		CurrentStock:       makeNumeric("10"),
		MinimumStockLevel:  makeNumeric("1"),
		MinimumStockUnitID: f.kiloUnit,
		ConsumptionUnitID:  f.gramUnit,
		ConversionFactor:   makeNumeric("1000"),
	}
	sliceUnit := uuid.New()
	st.rawMaterials[f.sliceID] = database.RawMaterial{
		ID:                 f.sliceID,
		OutletID:           f.outletID,
		Name:               "Cheese slice",
		CurrentStock:       makeNumeric("20"),
		MinimumStockLevel:  makeNumeric("2"),
		MinimumStockUnitID: sliceUnit,
		ConsumptionUnitID:  sliceUnit,
		ConversionFactor:   makeNumeric("1"),
	}

	burgerRecipe := uuid.New()
	st.recipes[burgerRecipe] = []database.RecipeIngredient{
		{ID: uuid.New(), RecipeID: burgerRecipe, RawMaterialID: f.beefID, Quantity: makeNumeric("150"), UnitID: f.gramUnit},
	}
	largeRecipe := uuid.New()
	st.recipes[largeRecipe] = []database.RecipeIngredient{
		{ID: uuid.New(), RecipeID: largeRecipe, RawMaterialID: f.beefID, Quantity: makeNumeric("250"), UnitID: f.gramUnit},
	}
	cheeseRecipe := uuid.New()
	st.recipes[cheeseRecipe] = []database.RecipeIngredient{
		{ID: uuid.New(), RecipeID: cheeseRecipe, RawMaterialID: f.sliceID, Quantity: makeNumeric("1"), UnitID: sliceUnit},
	}

	st.menuItems[f.burgerID] = database.MenuItem{
		ID:           f.burgerID,
		OutletID:     f.outletID,
		Name:         "Burger",
		Price:        makeNumeric("250.00"),
		NetPrice:     makeNumeric("238.10"),
		Gst:          makeNumeric("11.90"),
		GrossProfit:  makeNumeric("120.00"),
		ChooseProfit: enum.ChooseProfitItemRecipe,
		ItemRecipeID: pgtype.UUID{Bytes: burgerRecipe, Valid: true},
		IsAvailable:  true,
	}
	st.sizeVariants[f.largeID] = database.SizeVariant{
		ID:           f.largeID,
		MenuItemID:   f.burgerID,
		Name:         "Large",
		Price:        makeNumeric("320.00"),
		NetPrice:     makeNumeric("304.76"),
		Gst:          makeNumeric("15.24"),
		GrossProfit:  makeNumeric("150.00"),
		ChooseProfit: enum.ChooseProfitItemRecipe,
		ItemRecipeID: pgtype.UUID{Bytes: largeRecipe, Valid: true},
	}
	st.menuItems[f.teaID] = database.MenuItem{
		ID:           f.teaID,
		OutletID:     f.outletID,
		Name:         "Tea",
		Price:        makeNumeric("40.00"),
		NetPrice:     makeNumeric("38.10"),
		Gst:          makeNumeric("1.90"),
		GrossProfit:  makeNumeric("30.00"),
		ChooseProfit: enum.ChooseProfitManualProfit,
		IsAvailable:  true,
	}
	st.addonOutlets[f.addonID] = f.outletID
	st.addonVariants[f.cheeseID] = database.AddonVariant{
		ID:           f.cheeseID,
		AddonID:      f.addonID,
		Name:         "Extra cheese",
		Price:        makeNumeric("30.00"),
		ChooseProfit: enum.ChooseProfitItemRecipe,
		ItemRecipeID: pgtype.UUID{Bytes: cheeseRecipe, Valid: true},
	}

	f.svc = NewOrderSessionService(f.store, f.store.newStore, nil, nil)
	return f
}

// setStock overwrites a raw material's current stock.
func (f *fixture) setStock(id uuid.UUID, val string) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	rm := f.store.st.rawMaterials[id]
	rm.CurrentStock = makeNumeric(val)
	f.store.st.rawMaterials[id] = rm
}

func (f *fixture) stock(id uuid.UUID) decimal.Decimal {
	return numericToDecimal(f.snapshotRaw(id).CurrentStock)
}

func (f *fixture) snapshotRaw(id uuid.UUID) database.RawMaterial {
	return f.store.snapshot().rawMaterials[id]
}

// dineIn is a staff DINEIN order for two burgers at the first table.
func (f *fixture) dineIn(actor Actor) OrderRequest {
	return OrderRequest{
		ActorID:          actor.ID,
		OrderType:        enum.OrderTypeDineIn,
		TableID:          uuid.NullUUID{UUID: f.tableID, Valid: true},
		TotalAmount:      decimal.RequireFromString("500.00"),
		TotalNetPrice:    decimal.RequireFromString("476.20"),
		GstPrice:         decimal.RequireFromString("23.80"),
		TotalGrossProfit: decimal.RequireFromString("240.00"),
		Items: []OrderItemRequest{
			{MenuID: f.burgerID, Quantity: 2},
		},
	}
}

// takeaway is an unseated order for one tea.
func (f *fixture) takeaway(actor Actor) OrderRequest {
	return OrderRequest{
		ActorID:     actor.ID,
		OrderType:   enum.OrderTypeTakeaway,
		TotalAmount: decimal.RequireFromString("40.00"),
		Items: []OrderItemRequest{
			{MenuID: f.teaID, Quantity: 1},
		},
	}
}

func (f *fixture) paid(req OrderRequest, method string, splits ...SplitPayment) OrderRequest {
	req.Payment = Payment{
		IsPaid:         true,
		Method:         method,
		Splits:         splits,
		CashRegisterID: uuid.NullUUID{UUID: f.registerID, Valid: true},
	}
	return req
}
