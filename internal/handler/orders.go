package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type orderStatusRequest struct {
	OrderStatus string `json:"orderStatus"`
}

type itemQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type orderStatusResponse struct {
	envelope
	Order orderResponse `json:"order"`
}

type itemQuantityResponse struct {
	envelope
	Session sessionResponse   `json:"session"`
	Order   orderResponse     `json:"order"`
	Item    orderItemResponse `json:"item"`
}

// UpdateOrderStatus handles PATCH /outlets/{oid}/orders/{id}/status.
func (h *OrderSessionHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	outletID, actor, ok := h.scope(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderStatus == "" {
		writeError(w, http.StatusBadRequest, "orderStatus is required")
		return
	}

	updated, err := h.svc.UpdateOrderStatus(r.Context(), actor, outletID, orderID, req.OrderStatus)
	if err != nil {
		writeServiceError(w, h.logger, "update order status", err, "outlet_id", outletID, "order_id", orderID)
		return
	}

	writeJSON(w, http.StatusOK, orderStatusResponse{
		envelope: envelope{Success: true, Message: "Order " + updated.GeneratedOrderID + " is " + updated.OrderStatus},
		Order:    toOrderResponse(updated, nil),
	})
}

// UpdateItemQuantity handles PATCH /outlets/{oid}/orders/{id}/items/{itemId}.
func (h *OrderSessionHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	outletID, actor, ok := h.scope(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	var req itemQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be > 0")
		return
	}

	result, err := h.svc.UpdateItemQuantity(r.Context(), actor, outletID, orderID, itemID, req.Quantity)
	if err != nil {
		writeServiceError(w, h.logger, "update item quantity", err, "outlet_id", outletID, "order_id", orderID)
		return
	}

	writeJSON(w, http.StatusOK, itemQuantityResponse{
		envelope: envelope{Success: true, Message: "Order item updated"},
		Session:  toSessionResponse(result.Session),
		Order:    toOrderResponse(result.Order, nil),
		Item:     toOrderItemResponse(result.Item, nil),
	})
}
