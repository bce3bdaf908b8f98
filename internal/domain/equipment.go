package domain

type Equipment struct {
	ID          int32  `json:"id"`
	OwnerID     int32  `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	// HourlyRateCents is the live listing price. Order lines snapshot it at
	// promotion time; changing it never reprices existing reservations.
	HourlyRateCents int32 `json:"hourly_rate_cents"`
	// AvailableQuantity is the total physical units owned. It is a ceiling,
	// not a live countdown: remaining units for a date range are always
	// derived from overlapping reservations. Only the physical-handoff and
	// return sweeps mutate it directly.
	AvailableQuantity int32  `json:"available_quantity"`
	IsAvailable       bool   `json:"is_available"`
	CreatedOn         string `json:"created_on"`
	UpdatedOn         string `json:"updated_on"`
}
