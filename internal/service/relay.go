package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tablebill/api/internal/database"
	"github.com/tablebill/api/internal/enum"
)

const defaultPostCommitTimeout = 10 * time.Second

// CacheInvalidator drops an outlet's cached read models.
type CacheInvalidator interface {
	InvalidateOutlet(ctx context.Context, outletID uuid.UUID) error
}

// Broadcaster fans an event out to the outlet's websocket subscribers.
type Broadcaster interface {
	Broadcast(outletID uuid.UUID, eventType string, payload any) error
}

// EventPublisher mirrors domain events onto the message bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, subject string, event any) error
}

// PushNotifier queues a push notification for an outlet device.
type PushNotifier interface {
	Notify(ctx context.Context, msg PushMessage) error
}

// PushMessage is handed to the push dispatcher.
type PushMessage struct {
	OutletID    uuid.UUID `json:"outletId"`
	DeviceToken string    `json:"deviceToken"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	SessionID   uuid.UUID `json:"sessionId"`
}

// OrderEvent is broadcast after a committed order change.
type OrderEvent struct {
	Type       string     `json:"type"`
	OutletID   uuid.UUID  `json:"outletId"`
	SessionID  uuid.UUID  `json:"sessionId"`
	OrderID    *uuid.UUID `json:"orderId,omitempty"`
	BillID     string     `json:"billId,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// LowStockEvent reports a raw material at or below its minimum level.
type LowStockEvent struct {
	Type          string    `json:"type"`
	OutletID      uuid.UUID `json:"outletId"`
	RawMaterialID uuid.UUID `json:"rawMaterialId"`
	Name          string    `json:"name"`
	CurrentStock  string    `json:"currentStock"`
	MinimumLevel  string    `json:"minimumLevel"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// SessionSubject is the bus subject for an outlet's session events.
func SessionSubject(outletID uuid.UUID) string {
	return fmt.Sprintf("orders.sessions.%s", outletID)
}

// LowStockSubject is the bus subject for an outlet's stock alerts.
func LowStockSubject(outletID uuid.UUID) string {
	return fmt.Sprintf("inventory.low-stock.%s", outletID)
}

// Notice is everything the relay needs to announce one committed change.
type Notice struct {
	Event       OrderEvent
	DeviceToken string
	PushTitle   string
	PushBody    string
	LowStock    []database.RawMaterial
}

// Relay runs post-commit side effects in the background. Failures are
// logged and never reach the caller; every adapter is optional.
type Relay struct {
	cache   CacheInvalidator
	hub     Broadcaster
	events  EventPublisher
	push    PushNotifier
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

func WithCache(c CacheInvalidator) RelayOption        { return func(r *Relay) { r.cache = c } }
func WithBroadcaster(b Broadcaster) RelayOption       { return func(r *Relay) { r.hub = b } }
func WithEventPublisher(p EventPublisher) RelayOption { return func(r *Relay) { r.events = p } }
func WithPushNotifier(p PushNotifier) RelayOption     { return func(r *Relay) { r.push = p } }
func WithTimeout(d time.Duration) RelayOption         { return func(r *Relay) { r.timeout = d } }

// NewRelay creates a Relay. A nil logger discards output.
func NewRelay(logger *slog.Logger, opts ...RelayOption) *Relay {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Relay{logger: logger, timeout: defaultPostCommitTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Announce schedules the side effects for n and returns immediately.
func (r *Relay) Announce(n Notice) {
	if r == nil {
		return
	}
	if n.Event.OccurredAt.IsZero() {
		n.Event.OccurredAt = time.Now().UTC()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.deliver(ctx, n)
	}()
}

// Wait blocks until every scheduled announcement has finished.
func (r *Relay) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

func (r *Relay) deliver(ctx context.Context, n Notice) {
	ev := n.Event
	log := r.logger.With(
		slog.String("event", ev.Type),
		slog.String("outlet_id", ev.OutletID.String()),
		slog.String("session_id", ev.SessionID.String()),
	)

	if r.cache != nil {
		if err := r.cache.InvalidateOutlet(ctx, ev.OutletID); err != nil {
			log.Error("invalidate outlet cache", slog.Any("error", err))
		}
	}

	if r.hub != nil {
		if err := r.hub.Broadcast(ev.OutletID, ev.Type, ev); err != nil {
			log.Error("websocket broadcast", slog.Any("error", err))
		}
	}

	if r.events != nil {
		if err := r.events.PublishEvent(ctx, SessionSubject(ev.OutletID), ev); err != nil {
			log.Error("publish session event", slog.Any("error", err))
		}
	}

	for _, rm := range n.LowStock {
		log.Warn("raw material low",
			slog.String("raw_material_id", rm.ID.String()),
			slog.String("name", rm.Name),
		)
		if r.events == nil {
			continue
		}
		low := LowStockEvent{
			Type:          enum.EventLowStock,
			OutletID:      ev.OutletID,
			RawMaterialID: rm.ID,
			Name:          rm.Name,
			CurrentStock:  numericToDecimal(rm.CurrentStock).String(),
			MinimumLevel:  numericToDecimal(rm.MinimumStockLevel).String(),
			OccurredAt:    ev.OccurredAt,
		}
		if err := r.events.PublishEvent(ctx, LowStockSubject(ev.OutletID), low); err != nil {
			log.Error("publish low stock event", slog.Any("error", err))
		}
	}

	if r.push != nil && n.DeviceToken != "" {
		err := r.push.Notify(ctx, PushMessage{
			OutletID:    ev.OutletID,
			DeviceToken: n.DeviceToken,
			Title:       n.PushTitle,
			Body:        n.PushBody,
			SessionID:   ev.SessionID,
		})
		if err != nil {
			log.Error("queue push notification", slog.Any("error", err))
		}
	}
}
