package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"equiprent-backend/internal/security"
	"equiprent-backend/internal/service"
)

// NewRouter wires all API routes. Everything under /api requires a valid
// bearer token; /healthz and the anonymous cart endpoints do not.
func NewRouter(
	tokens security.TokenManager,
	equipmentSvc service.EquipmentService,
	availabilitySvc service.AvailabilityService,
	cartSvc service.CartService,
	orderSvc service.OrderService,
) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	cartHandler := NewCartHandler(cartSvc)

	// Registered ahead of the /api subrouter: mux matches routes in
	// registration order, which keeps these reachable without a token.
	router.HandleFunc("/api/anonymous-carts", cartHandler.CreateAnonymous).Methods("POST")
	router.HandleFunc("/api/anonymous-carts/{token}/lines", cartHandler.AddAnonymousLine).Methods("POST")

	auth := NewAuthMiddleware(tokens)
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Handler)

	equipmentHandler := NewEquipmentHandler(equipmentSvc, availabilitySvc)
	api.HandleFunc("/equipment", equipmentHandler.Create).Methods("POST")
	api.HandleFunc("/equipment/mine", equipmentHandler.ListMine).Methods("GET")
	api.HandleFunc("/equipment/{id}", equipmentHandler.Get).Methods("GET")
	api.HandleFunc("/equipment/{id}", equipmentHandler.Update).Methods("PUT")
	api.HandleFunc("/equipment/{id}", equipmentHandler.Delete).Methods("DELETE")
	api.HandleFunc("/equipment/{id}/availability", equipmentHandler.Availability).Methods("GET")

	api.HandleFunc("/cart", cartHandler.Get).Methods("GET")
	api.HandleFunc("/cart/lines", cartHandler.AddLine).Methods("POST")
	api.HandleFunc("/cart/lines/{line_id}", cartHandler.UpdateLine).Methods("PUT")
	api.HandleFunc("/cart/lines/{line_id}", cartHandler.RemoveLine).Methods("DELETE")
	api.HandleFunc("/cart/sync", cartHandler.Sync).Methods("POST")

	orderHandler := NewOrderHandler(orderSvc)
	api.HandleFunc("/checkout", orderHandler.Checkout).Methods("POST")
	api.HandleFunc("/orders", orderHandler.List).Methods("GET")
	api.HandleFunc("/orders/{id}", orderHandler.Get).Methods("GET")
	api.HandleFunc("/orders/{id}/approve", orderHandler.Approve).Methods("POST")
	api.HandleFunc("/orders/{id}/reject", orderHandler.Reject).Methods("POST")
	api.HandleFunc("/orders/{id}/return", orderHandler.Return).Methods("POST")
	api.HandleFunc("/orders/{id}/cancel", orderHandler.Cancel).Methods("POST")
	api.HandleFunc("/orders/{id}/reorder", orderHandler.Reorder).Methods("POST")
	api.HandleFunc("/orders/{id}/payment", orderHandler.Payment).Methods("POST")

	return router
}
