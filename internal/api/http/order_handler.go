package http

import (
	"net/http"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

// OrderHandler exposes checkout and the order lifecycle.
type OrderHandler struct {
	orders service.OrderService
}

func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	order, lines, err := h.orders.Checkout(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"order": order,
		"lines": lines,
	})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, lines, err := h.orders.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"order": order,
		"lines": lines,
	})
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	page, pageSize := pagination(r)
	status := r.URL.Query().Get("status")
	orders, total, err := h.orders.ListOrders(r.Context(), actor, status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders":      orders,
		"total_count": total,
		"page":        page,
		"page_size":   pageSize,
	})
}

// transition wraps the approve/reject/return/cancel endpoints, which all take
// an order id and return the updated order.
func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request,
	fn func(r *http.Request, actor domain.Actor, orderID int32) (*domain.Order, error)) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := fn(r, actor, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actor domain.Actor, orderID int32) (*domain.Order, error) {
		return h.orders.ApproveOrder(r.Context(), actor, orderID)
	})
}

func (h *OrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actor domain.Actor, orderID int32) (*domain.Order, error) {
		return h.orders.RejectOrder(r.Context(), actor, orderID)
	})
}

func (h *OrderHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actor domain.Actor, orderID int32) (*domain.Order, error) {
		return h.orders.ReturnOrder(r.Context(), actor, orderID)
	})
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, actor domain.Actor, orderID int32) (*domain.Order, error) {
		return h.orders.CancelOrder(r.Context(), actor, orderID)
	})
}

// Reorder places a new order copying a prior order's lines onto fresh dates.
func (h *OrderHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	order, lines, err := h.orders.Reorder(r.Context(), actor, orderID, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"order": order,
		"lines": lines,
	})
}

// Payment is the gateway callback. It trusts the caller is the configured
// gateway; it runs behind the same bearer auth as the rest of the API.
func (h *OrderHandler) Payment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status domain.PaymentStatus `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	switch req.Status {
	case domain.PaymentStatusUnpaid, domain.PaymentStatusPending, domain.PaymentStatusPaid:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payment status"})
		return
	}
	if err := h.orders.RecordPayment(r.Context(), orderID, req.Status); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
