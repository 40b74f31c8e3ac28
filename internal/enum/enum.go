package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusIncoming       = "INCOMMING"
	OrderStatusPreparing      = "PREPARING"
	OrderStatusFoodReady      = "FOODREADY"
	OrderStatusServed         = "SERVED"
	OrderStatusCompleted      = "COMPLETED"
	OrderStatusOutForDelivery = "OUTFORDELIVERY"
)

const (
	SessionStatusOnProgress = "ONPROGRESS"
	SessionStatusCompleted  = "COMPLETED"
	SessionStatusCancelled  = "CANCELLED"
)

const (
	RegisterStatusOpen   = "OPEN"
	RegisterStatusClosed = "CLOSED"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	ActorAdmin    = "ADMIN"
	ActorStaff    = "STAFF"
	ActorCustomer = "CUSTOMER"
)

const (
	OrderTypeDineIn   = "DINEIN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
	OrderTypeExpress  = "EXPRESS"
)

const (
	PaymentMethodCash   = "CASH"
	PaymentMethodUPI    = "UPI"
	PaymentMethodDebit  = "DEBIT"
	PaymentMethodCredit = "CREDIT"
	PaymentMethodSplit  = "SPLIT"
)

const (
	CashTxIn  = "CASH_IN"
	CashTxOut = "CASH_OUT"
)

const (
	CashSourceOrder   = "ORDER"
	CashSourceExpense = "EXPENSE"
	CashSourceManual  = "MANUAL"
)

// ChooseProfit decides how a sellable item's gross profit is derived and,
// as a consequence, whether selling it consumes recipe stock.
const (
	ChooseProfitItemRecipe   = "ITEM_RECIPE"
	ChooseProfitManualProfit = "MANUAL_PROFIT"
)

// ── Group B: Event labels (no DB constraint) ──

const (
	EventSessionCreated = "NEW_ORDER_SESSION_CREATED"
	EventSessionUpdated = "NEW_ORDER_SESSION_UPDATED"
	EventOrderUpdated   = "ORDER_UPDATED"
	EventLowStock       = "LOW_STOCK"
)

func IsOrderType(s string) bool {
	switch s {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery, OrderTypeExpress:
		return true
	}
	return false
}

func IsOrderStatus(s string) bool {
	switch s {
	case OrderStatusIncoming, OrderStatusPreparing, OrderStatusFoodReady,
		OrderStatusServed, OrderStatusCompleted, OrderStatusOutForDelivery:
		return true
	}
	return false
}

func IsPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodDebit,
		PaymentMethodCredit, PaymentMethodSplit:
		return true
	}
	return false
}

func IsSessionStatus(s string) bool {
	switch s {
	case SessionStatusOnProgress, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

func IsActorKind(s string) bool {
	switch s {
	case ActorAdmin, ActorStaff, ActorCustomer:
		return true
	}
	return false
}
