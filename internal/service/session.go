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

// SettleRequest pays an open session in full.
type SettleRequest struct {
	ActorID uuid.UUID
	Payment Payment
}

// SettleResult is a paid session with its ledger rows.
type SettleResult struct {
	Session      database.OrderSession
	Transactions []database.CashTransaction
}

// SessionView is a session with everything ordered on it.
type SessionView struct {
	Session database.OrderSession
	Orders  []OrderView
}

// OrderView is an order with its items.
type OrderView struct {
	Order database.Order
	Items []OrderItemResult
}

// sessionBalance is what is still owed on a tab.
func sessionBalance(session database.OrderSession) decimal.Decimal {
	return numericToDecimal(session.SubTotal).Sub(numericToDecimal(session.PaidAmount))
}

// SettleSession collects the outstanding balance of the running tab.
func (s *OrderSessionService) SettleSession(ctx context.Context, actor Actor, outletID, sessionID uuid.UUID, req SettleRequest) (*SettleResult, error) {
	if !actor.IsStaffSide() {
		return nil, ErrActorNotAllowed
	}
	if err := authorize(actor, req.ActorID); err != nil {
		return nil, err
	}
	payment := req.Payment
	payment.IsPaid = true
	if err := validatePaymentFields(payment); err != nil {
		return nil, err
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

	session, err := lockSession(ctx, store, outletID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.SessionStatus != enum.SessionStatusOnProgress {
		return nil, ErrSessionClosed
	}
	// orders paid at placement are already in the register
	balance := sessionBalance(session)
	if session.IsPaid || !balance.IsPositive() {
		return nil, ErrSessionPaid
	}
	if err := validatePayment(payment, balance); err != nil {
		return nil, err
	}

	txs, err := s.cash.Record(ctx, store, outletID, session.ID, actor.ID, payment, balance)
	if err != nil {
		return nil, err
	}

	session, err = store.MarkSessionPaid(ctx, database.MarkSessionPaidParams{
		ID:            session.ID,
		PaymentMethod: textToPg(payment.Method),
		Amount:        decimalToNumeric(balance),
	})
	if err != nil {
		return nil, fmt.Errorf("mark session paid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.announceSession(outlet, session)
	return &SettleResult{Session: session, Transactions: txs}, nil
}

// UpdateSessionStatus completes or cancels a session and frees its table.
// Completing requires the session to be paid.
func (s *OrderSessionService) UpdateSessionStatus(ctx context.Context, actor Actor, outletID, sessionID uuid.UUID, status string) (database.OrderSession, error) {
	if !actor.IsStaffSide() {
		return database.OrderSession{}, ErrActorNotAllowed
	}
	if status != enum.SessionStatusCompleted && status != enum.SessionStatusCancelled {
		return database.OrderSession{}, ErrInvalidSessionState
	}
	outlet, err := s.resolve(ctx, actor, outletID)
	if err != nil {
		return database.OrderSession{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return database.OrderSession{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Lock the table before the session, the same order placement uses.
	peek, err := store.GetOrderSession(ctx, database.GetOrderSessionParams{ID: sessionID, OutletID: outletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderSession{}, ErrSessionNotFound
		}
		return database.OrderSession{}, fmt.Errorf("get order session: %w", err)
	}
	if peek.TableID.Valid {
		if _, err := s.tables.Lock(ctx, store, outletID, uuid.UUID(peek.TableID.Bytes)); err != nil {
			return database.OrderSession{}, err
		}
	}

	session, err := lockSession(ctx, store, outletID, sessionID)
	if err != nil {
		return database.OrderSession{}, err
	}
	if session.SessionStatus != enum.SessionStatusOnProgress {
		return database.OrderSession{}, ErrSessionClosed
	}
	if status == enum.SessionStatusCompleted && !session.IsPaid {
		return database.OrderSession{}, ErrSessionUnpaid
	}

	updated, err := store.UpdateSessionStatus(ctx, database.UpdateSessionStatusParams{
		ID:            session.ID,
		SessionStatus: status,
		Active:        status != enum.SessionStatusCompleted,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderSession{}, ErrSessionClosed
		}
		return database.OrderSession{}, fmt.Errorf("update session status: %w", err)
	}

	if session.TableID.Valid {
		if _, err := s.tables.Release(ctx, store, uuid.UUID(session.TableID.Bytes), session.ID); err != nil {
			return database.OrderSession{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.OrderSession{}, fmt.Errorf("commit tx: %w", err)
	}

	s.announceSession(outlet, updated)
	return updated, nil
}

// GetSession returns a session with its orders, items and addons.
func (s *OrderSessionService) GetSession(ctx context.Context, actor Actor, outletID, sessionID uuid.UUID) (*SessionView, error) {
	store := s.newStore(s.db)

	session, err := store.GetOrderSession(ctx, database.GetOrderSessionParams{ID: sessionID, OutletID: outletID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get order session: %w", err)
	}
	// the session id itself is the read capability for table guests
	if actor.Kind == enum.ActorCustomer && !ownsSession(actor, session) && !session.TableID.Valid {
		return nil, ErrActorNotAllowed
	}

	orders, err := store.ListOrdersBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	view := &SessionView{Session: session, Orders: make([]OrderView, 0, len(orders))}
	for _, o := range orders {
		items, err := store.ListOrderItemsByOrder(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		ov := OrderView{Order: o, Items: make([]OrderItemResult, 0, len(items))}
		for _, item := range items {
			addons, err := store.ListOrderItemAddons(ctx, item.ID)
			if err != nil {
				return nil, fmt.Errorf("list order item addons: %w", err)
			}
			ov.Items = append(ov.Items, OrderItemResult{Item: item, AddOns: addons})
		}
		view.Orders = append(view.Orders, ov)
	}
	return view, nil
}

func (s *OrderSessionService) announceSession(outlet database.Outlet, session database.OrderSession) {
	s.relay.Announce(Notice{
		Event: OrderEvent{
			Type:      enum.EventSessionUpdated,
			OutletID:  outlet.ID,
			SessionID: session.ID,
			BillID:    session.BillID,
		},
	})
}
