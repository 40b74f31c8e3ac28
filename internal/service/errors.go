package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies a service error so the HTTP layer can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindUnprocessable
	KindUnauthorized
	KindConflict
)

// Error is a classified, client-safe service error.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Errors returned by the order session service.
var (
	ErrActorMismatch       = newError(KindUnauthorized, "actor does not match authenticated user")
	ErrActorNotAllowed     = newError(KindUnauthorized, "actor is not allowed to perform this action")
	ErrInviteCodeMismatch  = newError(KindUnauthorized, "invite code does not match the table")
	ErrActorNotFound       = newError(KindNotFound, "actor not found")
	ErrOutletNotFound      = newError(KindNotFound, "outlet not found")
	ErrTableNotFound       = newError(KindNotFound, "table not found")
	ErrSessionNotFound     = newError(KindNotFound, "order session not found")
	ErrOrderNotFound       = newError(KindNotFound, "order not found")
	ErrOrderItemNotFound   = newError(KindNotFound, "order item not found")
	ErrMenuItemNotFound    = newError(KindNotFound, "menu item not found in outlet")
	ErrVariantNotFound     = newError(KindNotFound, "size variant not found")
	ErrAddonNotFound       = newError(KindNotFound, "addon variant not found in outlet")
	ErrRawMaterialNotFound = newError(KindNotFound, "raw material not found")
	ErrRegisterNotFound    = newError(KindNotFound, "open cash register not found")

	ErrEmptyItems          = newError(KindBadRequest, "order items are required")
	ErrInvalidOrderType    = newError(KindBadRequest, "invalid orderType")
	ErrTableRequired       = newError(KindBadRequest, "tableId is required for DINEIN orders")
	ErrInvalidQuantity     = newError(KindBadRequest, "quantity must be > 0")
	ErrInvalidTotals       = newError(KindBadRequest, "order totals must not be negative")
	ErrVariantMismatch     = newError(KindBadRequest, "size variant does not belong to menu item")
	ErrAddonMismatch       = newError(KindBadRequest, "addon variant does not belong to addon")
	ErrPaymentRequired     = newError(KindBadRequest, "paymentMethod is required for paid orders")
	ErrInvalidPayment      = newError(KindBadRequest, "invalid paymentMethod")
	ErrRegisterRequired    = newError(KindBadRequest, "cashRegisterId is required for paid orders")
	ErrPaymentNotAllowed   = newError(KindBadRequest, "customers cannot attach payments to an order")
	ErrInvalidOrderStatus  = newError(KindBadRequest, "invalid orderStatus")
	ErrInvalidSessionState = newError(KindBadRequest, "invalid sessionStatus")

	ErrSplitEmpty        = newError(KindUnprocessable, "splitPayments must not be empty")
	ErrSplitMismatch     = newError(KindUnprocessable, "split payments do not add up to the bill total")
	ErrSplitAmount       = newError(KindUnprocessable, "split payment amounts must be > 0")
	ErrInvalidConversion = newError(KindUnprocessable, "raw material has no usable conversion factor")
	ErrSessionUnpaid     = newError(KindUnprocessable, "order session must be paid before completing it")
	ErrBelowCollected    = newError(KindUnprocessable, "order session total cannot drop below the amount already paid")

	ErrTableOccupied     = newError(KindConflict, "table is already occupied")
	ErrSessionClosed     = newError(KindConflict, "order session is no longer in progress")
	ErrSessionPaid       = newError(KindConflict, "order session is already paid")
	ErrOrderClosed       = newError(KindConflict, "order is already completed")
	ErrInvalidTransition = newError(KindConflict, "order status transition not allowed")
	ErrConcurrentUpdate  = newError(KindConflict, "order was modified concurrently")
)

// InsufficientStockError aborts an order when a raw material cannot cover
// the requested debit.
type InsufficientStockError struct {
	RawMaterialID uuid.UUID
	Name          string
	Available     decimal.Decimal
	Required      decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %s, required %s",
		e.Name, e.Available.String(), e.Required.String())
}

// KindOf reports the classification of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return KindUnprocessable
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}
