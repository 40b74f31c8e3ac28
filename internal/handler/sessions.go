package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tablebill/api/internal/database"
	"github.com/tablebill/api/internal/enum"
	"github.com/tablebill/api/internal/middleware"
	"github.com/tablebill/api/internal/service"
)

// OrderSessionServicer defines the service methods needed by the session,
// order and table handlers. Satisfied by *service.OrderSessionService.
type OrderSessionServicer interface {
	CreateOrder(ctx context.Context, actor service.Actor, outletID uuid.UUID, req service.OrderRequest) (*service.OrderResult, error)
	CustomerOrder(ctx context.Context, actor service.Actor, outletID, tableID uuid.UUID, req service.OrderRequest) (*service.OrderResult, error)
	AppendOrder(ctx context.Context, actor service.Actor, outletID, sessionID uuid.UUID, req service.OrderRequest) (*service.OrderResult, error)
	SettleSession(ctx context.Context, actor service.Actor, outletID, sessionID uuid.UUID, req service.SettleRequest) (*service.SettleResult, error)
	UpdateSessionStatus(ctx context.Context, actor service.Actor, outletID, sessionID uuid.UUID, status string) (database.OrderSession, error)
	GetSession(ctx context.Context, actor service.Actor, outletID, sessionID uuid.UUID) (*service.SessionView, error)
	UpdateOrderStatus(ctx context.Context, actor service.Actor, outletID, orderID uuid.UUID, status string) (database.Order, error)
	UpdateItemQuantity(ctx context.Context, actor service.Actor, outletID, orderID, itemID uuid.UUID, quantity int32) (*service.ItemUpdateResult, error)
}

// OrderSessionHandler handles session, order and table endpoints.
type OrderSessionHandler struct {
	svc    OrderSessionServicer
	logger *slog.Logger
}

// NewOrderSessionHandler creates a new OrderSessionHandler.
func NewOrderSessionHandler(svc OrderSessionServicer, logger *slog.Logger) *OrderSessionHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OrderSessionHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers the endpoints on an outlet-scoped subrouter:
// /outlets/{oid}
func (h *OrderSessionHandler) RegisterRoutes(r chi.Router) {
	staff := middleware.RequireActor(enum.ActorAdmin, enum.ActorStaff)
	anyone := middleware.RequireActor(enum.ActorAdmin, enum.ActorStaff, enum.ActorCustomer)
	customer := middleware.RequireActor(enum.ActorCustomer)

	r.With(staff).Post("/sessions", h.CreateOrder)
	r.With(anyone).Get("/sessions/{sid}", h.GetSession)
	r.With(anyone).Post("/sessions/{sid}/orders", h.AppendOrder)
	r.With(staff).Post("/sessions/{sid}/settle", h.SettleSession)
	r.With(staff).Patch("/sessions/{sid}/status", h.UpdateSessionStatus)

	r.With(staff).Patch("/orders/{id}/status", h.UpdateOrderStatus)
	r.With(staff).Patch("/orders/{id}/items/{itemId}", h.UpdateItemQuantity)

	r.With(customer).Post("/tables/{tid}/orders", h.CustomerOrder)
}

// --- Request / Response types ---

type orderRequest struct {
	ActorID          uuid.UUID              `json:"actorId"`
	OrderType        string                 `json:"orderType"`
	TableID          uuid.NullUUID          `json:"tableId"`
	IsPaid           bool                   `json:"isPaid"`
	PaymentMethod    string                 `json:"paymentMethod"`
	SplitPayments    []service.SplitPayment `json:"splitPayments"`
	CashRegisterID   uuid.NullUUID          `json:"cashRegisterId"`
	TotalAmount      decimal.Decimal        `json:"totalAmount"`
	TotalNetPrice    decimal.Decimal        `json:"totalNetPrice"`
	GstPrice         decimal.Decimal        `json:"gstPrice"`
	TotalGrossProfit decimal.Decimal        `json:"totalGrossProfit"`
	OrderItems       []orderItemRequest     `json:"orderItems"`
	InviteCode       string                 `json:"inviteCode"`
}

type orderItemRequest struct {
	MenuID          uuid.UUID             `json:"menuId"`
	Quantity        int32                 `json:"quantity"`
	SizeVariantID   uuid.NullUUID         `json:"sizeVariantId"`
	AddOnSelections []addOnSelectionInput `json:"addOnSelections"`
}

type addOnSelectionInput struct {
	AddOnID    uuid.UUID   `json:"addOnId"`
	VariantIDs []uuid.UUID `json:"variantIds"`
}

type settleRequest struct {
	ActorID        uuid.UUID              `json:"actorId"`
	PaymentMethod  string                 `json:"paymentMethod"`
	SplitPayments  []service.SplitPayment `json:"splitPayments"`
	CashRegisterID uuid.NullUUID          `json:"cashRegisterId"`
}

type sessionStatusRequest struct {
	SessionStatus string `json:"sessionStatus"`
}

type orderPlacedResponse struct {
	envelope
	SessionID        uuid.UUID       `json:"sessionId"`
	OrderID          uuid.UUID       `json:"orderId"`
	GeneratedOrderID string          `json:"generatedOrderId"`
	BillID           string          `json:"billId"`
	Joined           bool            `json:"joined"`
	InviteCode       *string         `json:"inviteCode,omitempty"`
	Session          sessionResponse `json:"session"`
	Order            orderResponse   `json:"order"`
}

type sessionResponse struct {
	ID            uuid.UUID  `json:"id"`
	BillID        string     `json:"billId"`
	BillNumber    int32      `json:"billNumber"`
	OrderType     string     `json:"orderType"`
	TableID       *uuid.UUID `json:"tableId"`
	IsPaid        bool       `json:"isPaid"`
	PaymentMethod *string    `json:"paymentMethod"`
	SubTotal      string     `json:"subTotal"`
	PaidAmount    string     `json:"paidAmount"`
	SessionStatus string     `json:"sessionStatus"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type orderResponse struct {
	ID               uuid.UUID           `json:"id"`
	GeneratedOrderID string              `json:"generatedOrderId"`
	OrderNumber      int32               `json:"orderNumber"`
	OrderType        string              `json:"orderType"`
	OrderStatus      string              `json:"orderStatus"`
	TotalAmount      string              `json:"totalAmount"`
	TotalNetPrice    string              `json:"totalNetPrice"`
	GstPrice         string              `json:"gstPrice"`
	TotalGrossProfit string              `json:"totalGrossProfit"`
	CreatedAt        time.Time           `json:"createdAt"`
	Items            []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID            uuid.UUID            `json:"id"`
	MenuID        uuid.UUID            `json:"menuId"`
	SizeVariantID *uuid.UUID           `json:"sizeVariantId"`
	Name          string               `json:"name"`
	Quantity      int32                `json:"quantity"`
	OriginalRate  string               `json:"originalRate"`
	NetPrice      string               `json:"netPrice"`
	Gst           string               `json:"gst"`
	GrossProfit   string               `json:"grossProfit"`
	TotalPrice    string               `json:"totalPrice"`
	AddOns        []orderAddonResponse `json:"addOns"`
}

type orderAddonResponse struct {
	ID        uuid.UUID `json:"id"`
	AddOnID   uuid.UUID `json:"addOnId"`
	VariantID uuid.UUID `json:"variantId"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
}

type cashTransactionResponse struct {
	ID            uuid.UUID `json:"id"`
	Amount        string    `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Description   string    `json:"description"`
}

type sessionDetailResponse struct {
	envelope
	Session sessionResponse `json:"session"`
	Orders  []orderResponse `json:"orders"`
}

type settleResponse struct {
	envelope
	Session      sessionResponse           `json:"session"`
	Transactions []cashTransactionResponse `json:"transactions"`
}

type sessionStatusResponse struct {
	envelope
	Session sessionResponse `json:"session"`
}

// --- Handlers ---

// CreateOrder handles POST /outlets/{oid}/sessions.
func (h *OrderSessionHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	outletID, actor, ok := h.scope(w, r)
	if !ok {
		return
	}

	req, ok := decodeOrderRequest(w, r)
	if !ok {
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), actor, outletID, req)
	if err != nil {
		writeServiceError(w, h.logger, "create order", err, "outlet_id", outletID)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderPlacedResponse(result))
}

// AppendOrder handles POST /outlets/{oid}/sessions/{sid}/orders.
func (h *OrderSessionHandler) AppendOrder(w http.ResponseWriter, r *http.Request) {
	outletID, actor, ok := h.scope(w, r)
	if !ok {
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	req, ok := decodeOrderRequest(w, r)
	if !ok {
		return
	}

	result, err := h.svc.AppendOrder(r.Context(), actor, outletID, sessionID, req)
	if err != nil {
		writeServiceError(w, h.logger, "append order", err, "outlet_id", outletID, "session_id", sessionID)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderPlacedResponse(result))
}

// CustomerOrder handles POST /outlets/{oid}/tables/{tid}/orders.
func (h *OrderSessionHandler) CustomerOrder(w http.ResponseWriter, r *http.Request) {
	outletID, actor, ok := h.scope(w, r)
	if !ok {
		return
	}

	tableID, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid table ID")
		return
	}

	req, ok := decodeOrderRequest(w, r)
	if !ok {
		return
	}
	req.TableID = uuid.NullUUID{UUID: tableID, Valid: true}

	result, err := h.svc.CustomerOrder(r.Context(), actor, outletID, tableID, req)
	if err != nil {
		writeServiceError(w, h.logger, "customer order", err, "outlet_id", outletID, "table_id", tableID)
		return
	}

	status := http.StatusCreated
	if result.Joined {
		status = http.StatusOK
	}
	writeJSON(w, status, toOrderPlacedResponse(result))
}

// GetSession handles GET /outlets/{oid}/sessions/{sid}.
func (h *OrderSessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	outletID, actor, ok := h.scope(w, r)
	if !ok {
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	view, err := h.svc.GetSession(r.Context(), actor, outletID, sessionID)
	if err != nil {
		writeServiceError(w, h.logger, "get session", err, "outlet_id", outletID, "session_id", sessionID)
		return
	}

	orders := make([]orderResponse, len(view.Orders))
	for i, o := range view.Orders {
		orders[i] = toOrderResponse(o.Order, o.Items)
	}

	writeJSON(w, http.StatusOK, sessionDetailResponse{
		envelope: envelope{Success: true, Message: "Order session fetched"},
		Session:  toSessionResponse(view.Session),
		Orders:   orders,
	})
}

// SettleSession handles POST /outlets/{oid}/sessions/{sid}/settle.
func (h *OrderSessionHandler) SettleSession(w http.ResponseWriter, r *http.Request) {
	outletID, actor, ok := h.scope(w, r)
	if !ok {
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.SettleSession(r.Context(), actor, outletID, sessionID, service.SettleRequest{
		ActorID: req.ActorID,
		Payment: service.Payment{
			Method:         req.PaymentMethod,
			Splits:         req.SplitPayments,
			CashRegisterID: req.CashRegisterID,
		},
	})
	if err != nil {
		writeServiceError(w, h.logger, "settle session", err, "outlet_id", outletID, "session_id", sessionID)
		return
	}

	txs := make([]cashTransactionResponse, len(result.Transactions))
	for i, tx := range result.Transactions {
		txs[i] = cashTransactionResponse{
			ID:            tx.ID,
			Amount:        numericToString(tx.Amount),
			PaymentMethod: tx.PaymentMethod,
			Description:   tx.Description,
		}
	}

	writeJSON(w, http.StatusOK, settleResponse{
		envelope:     envelope{Success: true, Message: "Order session paid"},
		Session:      toSessionResponse(result.Session),
		Transactions: txs,
	})
}

// UpdateSessionStatus handles PATCH /outlets/{oid}/sessions/{sid}/status.
func (h *OrderSessionHandler) UpdateSessionStatus(w http.ResponseWriter, r *http.Request) {
	outletID, actor, ok := h.scope(w, r)
	if !ok {
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	var req sessionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionStatus == "" {
		writeError(w, http.StatusBadRequest, "sessionStatus is required")
		return
	}

	session, err := h.svc.UpdateSessionStatus(r.Context(), actor, outletID, sessionID, req.SessionStatus)
	if err != nil {
		writeServiceError(w, h.logger, "update session status", err, "outlet_id", outletID, "session_id", sessionID)
		return
	}

	writeJSON(w, http.StatusOK, sessionStatusResponse{
		envelope: envelope{Success: true, Message: "Order session " + session.SessionStatus},
		Session:  toSessionResponse(session),
	})
}

// --- Helpers ---

// scope resolves the outlet path parameter and the authenticated actor.
func (h *OrderSessionHandler) scope(w http.ResponseWriter, r *http.Request) (uuid.UUID, service.Actor, bool) {
	outletID, err := uuid.Parse(chi.URLParam(r, "oid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid outlet ID")
		return uuid.Nil, service.Actor{}, false
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return uuid.Nil, service.Actor{}, false
	}

	return outletID, service.Actor{Kind: claims.ActorKind, ID: claims.ActorID}, true
}

func decodeOrderRequest(w http.ResponseWriter, r *http.Request) (service.OrderRequest, bool) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return service.OrderRequest{}, false
	}

	items := make([]service.OrderItemRequest, len(req.OrderItems))
	for i, item := range req.OrderItems {
		addons := make([]service.AddOnSelection, len(item.AddOnSelections))
		for j, sel := range item.AddOnSelections {
			addons[j] = service.AddOnSelection{AddOnID: sel.AddOnID, VariantIDs: sel.VariantIDs}
		}
		items[i] = service.OrderItemRequest{
			MenuID:        item.MenuID,
			Quantity:      item.Quantity,
			SizeVariantID: item.SizeVariantID,
			AddOns:        addons,
		}
	}

	return service.OrderRequest{
		ActorID:   req.ActorID,
		OrderType: req.OrderType,
		TableID:   req.TableID,
		Payment: service.Payment{
			IsPaid:         req.IsPaid,
			Method:         req.PaymentMethod,
			Splits:         req.SplitPayments,
			CashRegisterID: req.CashRegisterID,
		},
		TotalAmount:      req.TotalAmount,
		TotalNetPrice:    req.TotalNetPrice,
		GstPrice:         req.GstPrice,
		TotalGrossProfit: req.TotalGrossProfit,
		Items:            items,
		InviteCode:       req.InviteCode,
	}, true
}

func toOrderPlacedResponse(result *service.OrderResult) orderPlacedResponse {
	msg := "Order placed"
	if result.Joined {
		msg = "Order added to session"
	}

	resp := orderPlacedResponse{
		envelope:         envelope{Success: true, Message: msg},
		SessionID:        result.Session.ID,
		OrderID:          result.Order.ID,
		GeneratedOrderID: result.Order.GeneratedOrderID,
		BillID:           result.Session.BillID,
		Joined:           result.Joined,
		Session:          toSessionResponse(result.Session),
		Order:            toOrderResponse(result.Order, result.Items),
	}
	if result.Table != nil {
		resp.InviteCode = pgTextPtr(result.Table.InviteCode)
	}
	return resp
}

func toSessionResponse(s database.OrderSession) sessionResponse {
	return sessionResponse{
		ID:            s.ID,
		BillID:        s.BillID,
		BillNumber:    s.BillNumber,
		OrderType:     s.OrderType,
		TableID:       pgUUIDPtr(s.TableID),
		IsPaid:        s.IsPaid,
		PaymentMethod: pgTextPtr(s.PaymentMethod),
		SubTotal:      numericToString(s.SubTotal),
		PaidAmount:    numericToString(s.PaidAmount),
		SessionStatus: s.SessionStatus,
		Active:        s.Active,
		CreatedAt:     s.CreatedAt,
	}
}

func toOrderResponse(o database.Order, items []service.OrderItemResult) orderResponse {
	resp := orderResponse{
		ID:               o.ID,
		GeneratedOrderID: o.GeneratedOrderID,
		OrderNumber:      o.OrderNumber,
		OrderType:        o.OrderType,
		OrderStatus:      o.OrderStatus,
		TotalAmount:      numericToString(o.TotalAmount),
		TotalNetPrice:    numericToString(o.TotalNetPrice),
		GstPrice:         numericToString(o.GstPrice),
		TotalGrossProfit: numericToString(o.TotalGrossProfit),
		CreatedAt:        o.CreatedAt,
	}
	for _, ir := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(ir.Item, ir.AddOns))
	}
	return resp
}

func toOrderItemResponse(item database.OrderItem, addons []database.OrderItemAddon) orderItemResponse {
	resp := orderItemResponse{
		ID:            item.ID,
		MenuID:        item.MenuID,
		SizeVariantID: pgUUIDPtr(item.SizeVariantID),
		Name:          item.Name,
		Quantity:      item.Quantity,
		OriginalRate:  numericToString(item.OriginalRate),
		NetPrice:      numericToString(item.NetPrice),
		Gst:           numericToString(item.Gst),
		GrossProfit:   numericToString(item.GrossProfit),
		TotalPrice:    numericToString(item.TotalPrice),
		AddOns:        make([]orderAddonResponse, len(addons)),
	}
	for i, a := range addons {
		resp.AddOns[i] = orderAddonResponse{
			ID:        a.ID,
			AddOnID:   a.AddonID,
			VariantID: a.AddonVariantID,
			Name:      a.Name,
			Price:     numericToString(a.Price),
		}
	}
	return resp
}
