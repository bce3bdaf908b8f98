package domain

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusApproved  OrderStatus = "APPROVED"
	OrderStatusRented    OrderStatus = "RENTED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusReturned  OrderStatus = "RETURNED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// LiveLineStatuses are the order-line states that still tie up physical
// units, on the shelf or out with a renter. The protected equipment delete
// refuses while any such line exists.
var LiveLineStatuses = []OrderStatus{OrderStatusPending, OrderStatusApproved, OrderStatusRented}

// CommittedLineStatuses are the order-line states whose units are still on
// the shelf and must be subtracted when deriving availability. RENTED lines
// are excluded: activation already decremented the equipment's physical
// quantity, so counting them again would subtract the same unit twice.
var CommittedLineStatuses = []OrderStatus{OrderStatusPending, OrderStatusApproved}

type Order struct {
	ID            int32         `json:"id"`
	UserID        int32         `json:"user_id"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	// TotalCents is always recomputed from the order's lines before
	// persistence, never taken from client input.
	TotalCents int64  `json:"total_cents"`
	CreatedOn  string `json:"created_on"`
	UpdatedOn  string `json:"updated_on"`
}

// OrderLine is a hard reservation. Quantity and dates are frozen at
// promotion time and only change through defined state transitions.
type OrderLine struct {
	ID          int32  `json:"id"`
	OrderID     int32  `json:"order_id"`
	EquipmentID int32  `json:"equipment_id"`
	Quantity    int32  `json:"quantity"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	// HourlyRateCents is the price snapshot captured at promotion time.
	// Cost calculations use this snapshot, not the live equipment rate.
	HourlyRateCents int32       `json:"hourly_rate_cents"`
	TotalCostCents  int64       `json:"total_cost_cents"`
	Status          OrderStatus `json:"status"`
	CreatedOn       string      `json:"created_on"`
	UpdatedOn       string      `json:"updated_on"`
}
