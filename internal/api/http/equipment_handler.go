package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

// EquipmentHandler exposes listing management and availability lookups.
type EquipmentHandler struct {
	equipment    service.EquipmentService
	availability service.AvailabilityService
}

func NewEquipmentHandler(equipment service.EquipmentService, availability service.AvailabilityService) *EquipmentHandler {
	return &EquipmentHandler{
		equipment:    equipment,
		availability: availability,
	}
}

type equipmentRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	HourlyRateCents   int32  `json:"hourly_rate_cents"`
	AvailableQuantity int32  `json:"available_quantity"`
	IsAvailable       bool   `json:"is_available"`
}

func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	var req equipmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	eq := &domain.Equipment{
		OwnerID:           actor.ID,
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		HourlyRateCents:   req.HourlyRateCents,
		AvailableQuantity: req.AvailableQuantity,
		IsAvailable:       req.IsAvailable,
	}
	if err := h.equipment.AddEquipment(r.Context(), actor, eq); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, eq)
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	eq, err := h.equipment.GetEquipment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req equipmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	eq := &domain.Equipment{
		ID:                id,
		OwnerID:           actor.ID,
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		HourlyRateCents:   req.HourlyRateCents,
		AvailableQuantity: req.AvailableQuantity,
		IsAvailable:       req.IsAvailable,
	}
	if err := h.equipment.UpdateEquipment(r.Context(), actor, eq); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.equipment.RemoveEquipment(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *EquipmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	page, pageSize := pagination(r)
	items, total, err := h.equipment.ListMyEquipment(r.Context(), actor, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"equipment":   items,
		"total_count": total,
		"page":        page,
		"page_size":   pageSize,
	})
}

// Availability answers "how many units can still be booked" for a date range.
// GET /api/equipment/{id}/availability?start_date=...&end_date=...&quantity=N
func (h *EquipmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	available, err := h.availability.AvailableUnits(r.Context(), id, startDate, endDate)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{
		"equipment_id": id,
		"start_date":   startDate,
		"end_date":     endDate,
		"available":    available,
	}

	// An explicit quantity turns the lookup into a yes/no reservation check.
	if q := r.URL.Query().Get("quantity"); q != "" {
		quantity, convErr := strconv.ParseInt(q, 10, 32)
		if convErr != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid quantity"})
			return
		}
		reserveErr := h.availability.CanReserve(r.Context(), id, startDate, endDate, int32(quantity))
		resp["can_reserve"] = reserveErr == nil
		if reserveErr != nil {
			resp["reason"] = reserveErr.Error()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// pathID parses the {name} route variable as an int32 id.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int32, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return 0, false
	}
	return int32(id), true
}

// pagination reads page/page_size query parameters with sane defaults.
func pagination(r *http.Request) (int32, int32) {
	page := int32(1)
	pageSize := int32(20)
	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 32); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("page_size"), 10, 32); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return page, pageSize
}
