package domain

// Cart is the per-user container of soft reservations. It is created lazily
// on first add-to-cart. Anonymous carts (UserID nil) are identified by Token
// and overwritten into the user cart at login.
type Cart struct {
	ID        int32  `json:"id"`
	UserID    *int32 `json:"user_id,omitempty"`
	Token     string `json:"token"`
	CreatedOn string `json:"created_on"`
	UpdatedOn string `json:"updated_on"`
}

// CartLine is a soft reservation: it counts against availability but can be
// superseded or dropped without formal cancellation. At most one line per
// (cart, equipment) pair exists; adding the same equipment again merges or
// replaces the existing line.
type CartLine struct {
	ID             int32  `json:"id"`
	CartID         int32  `json:"cart_id"`
	EquipmentID    int32  `json:"equipment_id"`
	Quantity       int32  `json:"quantity"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	TotalCostCents int64  `json:"total_cost_cents"`
	CreatedOn      string `json:"created_on"`
	UpdatedOn      string `json:"updated_on"`
}
