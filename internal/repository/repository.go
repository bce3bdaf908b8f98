package repository

import (
	"context"

	"equiprent-backend/internal/domain"
)

type EquipmentRepository interface {
	Create(ctx context.Context, eq *domain.Equipment) error
	GetByID(ctx context.Context, id int32) (*domain.Equipment, error)
	// GetByIDForUpdate locks the equipment row for the duration of the
	// surrounding transaction. Only meaningful inside WithEquipmentLock.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error)
	Update(ctx context.Context, eq *domain.Equipment) error
	// Delete fails with domain.ErrEquipmentInUse while any cart line or live
	// order line references the equipment.
	Delete(ctx context.Context, id int32) error
	ListByOwner(ctx context.Context, ownerID, page, pageSize int32) ([]domain.Equipment, int32, error)
	// AdjustQuantity shifts available_quantity by delta, floored at zero.
	AdjustQuantity(ctx context.Context, id, delta int32) error
}

type CartRepository interface {
	GetOrCreateByUser(ctx context.Context, userID int32) (*domain.Cart, error)
	GetByToken(ctx context.Context, token string) (*domain.Cart, error)
	CreateAnonymous(ctx context.Context, token string) (*domain.Cart, error)
	Delete(ctx context.Context, cartID int32) error

	// FindLine returns the single line held for (cart, equipment), or
	// domain.ErrNotFound when the cart holds none.
	FindLine(ctx context.Context, cartID, equipmentID int32) (*domain.CartLine, error)
	GetLine(ctx context.Context, lineID int32) (*domain.CartLine, error)
	ListLines(ctx context.Context, cartID int32) ([]domain.CartLine, error)
	CreateLine(ctx context.Context, line *domain.CartLine) error
	UpdateLine(ctx context.Context, line *domain.CartLine) error
	DeleteLine(ctx context.Context, lineID int32) error
	DeleteLines(ctx context.Context, cartID int32) error
	// ReplaceLines drops every line of destCartID and moves srcCartID's
	// lines onto it (the login cart-sync overwrite).
	ReplaceLines(ctx context.Context, destCartID, srcCartID int32) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	CreateLine(ctx context.Context, line *domain.OrderLine) error
	GetByID(ctx context.Context, id int32) (*domain.Order, error)
	ListLines(ctx context.Context, orderID int32) ([]domain.OrderLine, error)
	ListByUser(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.Order, int32, error)
	SetPaymentStatus(ctx context.Context, orderID int32, status domain.PaymentStatus) error
	// UpdateStatusIf transitions the order from one of the given states and
	// reports whether a row actually changed. A false return means the order
	// was not in any of the expected states (idempotency guard).
	UpdateStatusIf(ctx context.Context, orderID int32, from []domain.OrderStatus, to domain.OrderStatus) (bool, error)
	UpdateLineStatusIf(ctx context.Context, lineID int32, from, to domain.OrderStatus) (bool, error)
}

// AvailabilityRepository answers how many units are already committed for a
// date range. Both tiers use the half-open overlap predicate
// start_date < rangeEnd AND end_date > rangeStart.
type AvailabilityRepository interface {
	// CommittedOrderUnits sums quantities of PENDING and APPROVED order lines
	// overlapping [startDate, endDate). RENTED lines are excluded because the
	// activation sweep already subtracted them from available_quantity.
	CommittedOrderUnits(ctx context.Context, equipmentID int32, startDate, endDate string) (int32, error)
	// CommittedCartUnits sums quantities of overlapping cart lines (soft
	// holds). Lines of excludeCartID are ignored; pass 0 to count all carts.
	CommittedCartUnits(ctx context.Context, equipmentID int32, startDate, endDate string, excludeCartID int32) (int32, error)
}

// Locker is the concurrency guard around every check-then-act sequence. fn
// runs inside a transaction holding row locks on the given equipment ids;
// repositories called with fn's context participate in that transaction.
// An empty id list yields a plain transaction with no row locks.
type Locker interface {
	WithEquipmentLock(ctx context.Context, equipmentIDs []int32, fn func(ctx context.Context) error) error
}
