package service

import (
	"context"

	"equiprent-backend/internal/domain"
)

type EquipmentService interface {
	AddEquipment(ctx context.Context, actor domain.Actor, eq *domain.Equipment) error
	GetEquipment(ctx context.Context, id int32) (*domain.Equipment, error)
	UpdateEquipment(ctx context.Context, actor domain.Actor, eq *domain.Equipment) error
	RemoveEquipment(ctx context.Context, actor domain.Actor, id int32) error
	ListMyEquipment(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Equipment, int32, error)
}

type AvailabilityService interface {
	// AvailableUnits derives remaining units for [startDate, endDate):
	// total physical quantity minus every overlapping hard and soft
	// reservation, floored at zero.
	AvailableUnits(ctx context.Context, equipmentID int32, startDate, endDate string) (int32, error)
	// CanReserve returns nil when quantity units can be newly committed, or
	// the concrete limiting factor (ErrUnavailable, InsufficientStockError,
	// DateConflictError, ErrInvalidRange).
	CanReserve(ctx context.Context, equipmentID int32, startDate, endDate string, quantity int32) error
}

type CartService interface {
	GetCart(ctx context.Context, actor domain.Actor) (*domain.Cart, []domain.CartLine, error)
	AddToCart(ctx context.Context, actor domain.Actor, equipmentID, quantity int32, startDate, endDate string) (*domain.CartLine, error)
	UpdateCartLine(ctx context.Context, actor domain.Actor, lineID, quantity int32, startDate, endDate string) (*domain.CartLine, error)
	RemoveCartLine(ctx context.Context, actor domain.Actor, lineID int32) error
	// CreateAnonymousCart issues a pre-login cart; its token is the only
	// handle on it until SyncCart claims it at login.
	CreateAnonymousCart(ctx context.Context) (*domain.Cart, error)
	AddToAnonymousCart(ctx context.Context, token string, equipmentID, quantity int32, startDate, endDate string) (*domain.CartLine, error)
	// SyncCart overwrites the actor's cart with the lines of the anonymous
	// cart identified by token (login cart merge).
	SyncCart(ctx context.Context, actor domain.Actor, token string) error
}

type OrderService interface {
	// Checkout promotes every cart line into a hard reservation, or nothing
	// at all: any line failing re-validation aborts the whole promotion and
	// leaves the cart intact.
	Checkout(ctx context.Context, actor domain.Actor) (*domain.Order, []domain.OrderLine, error)
	GetOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, []domain.OrderLine, error)
	ListOrders(ctx context.Context, actor domain.Actor, status string, page, pageSize int32) ([]domain.Order, int32, error)
	ApproveOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, error)
	RejectOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, error)
	ReturnOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, error)
	CancelOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, error)
	// Reorder copies equipment and quantities from a prior order onto a
	// fresh date range, re-validating every line against current
	// availability. All-or-nothing like Checkout.
	Reorder(ctx context.Context, actor domain.Actor, orderID int32, startDate, endDate string) (*domain.Order, []domain.OrderLine, error)
	// RecordPayment is the gateway callback. A failed payment does not
	// release the order's committed units; that requires cancellation.
	RecordPayment(ctx context.Context, orderID int32, status domain.PaymentStatus) error
}
