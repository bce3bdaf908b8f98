package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"equiprent-backend/internal/service"
)

// CartHandler exposes the soft-reservation cart.
type CartHandler struct {
	cart service.CartService
}

func NewCartHandler(cart service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type cartLineRequest struct {
	EquipmentID int32  `json:"equipment_id"`
	Quantity    int32  `json:"quantity"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	cart, lines, err := h.cart.GetCart(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cart":  cart,
		"lines": lines,
	})
}

func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	var req cartLineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	line, err := h.cart.AddToCart(r.Context(), actor, req.EquipmentID, req.Quantity, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	lineID, ok := pathID(w, r, "line_id")
	if !ok {
		return
	}
	var req cartLineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	line, err := h.cart.UpdateCartLine(r.Context(), actor, lineID, req.Quantity, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	lineID, ok := pathID(w, r, "line_id")
	if !ok {
		return
	}
	if err := h.cart.RemoveCartLine(r.Context(), actor, lineID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// CreateAnonymous issues a cart for a visitor who has not logged in yet. The
// returned token is the only handle on the cart.
func (h *CartHandler) CreateAnonymous(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.CreateAnonymousCart(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

// AddAnonymousLine holds units on a token-identified cart.
func (h *CartHandler) AddAnonymousLine(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	var req cartLineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	line, err := h.cart.AddToAnonymousCart(r.Context(), token, req.EquipmentID, req.Quantity, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

// Sync overwrites the user cart with the anonymous cart created before login.
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "token is required"})
		return
	}
	if err := h.cart.SyncCart(r.Context(), actor, req.Token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
