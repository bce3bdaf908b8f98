package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that a referenced equipment, cart, order or line
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable signals equipment flagged unavailable by its owner.
	ErrUnavailable = errors.New("equipment is not available")

	// ErrInvalidRange signals an end date before the start date, a
	// zero-duration range, or a non-positive quantity.
	ErrInvalidRange = errors.New("invalid date range or quantity")

	// ErrInsufficientStock is the errors.Is target for both
	// InsufficientStockError and DateConflictError.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConcurrentModification signals that the per-equipment lock could
	// not be acquired or the transaction conflicted. The operation is safe
	// to retry as a whole.
	ErrConcurrentModification = errors.New("concurrent modification, retry the operation")

	// ErrForbidden signals an operation outside the actor's role.
	ErrForbidden = errors.New("operation not permitted for this role")

	// ErrEquipmentInUse signals a delete attempt while live reservations
	// still reference the equipment.
	ErrEquipmentInUse = errors.New("equipment has live reservations")
)

// InsufficientStockError carries the derived available quantity so callers
// can offer a corrected amount instead of a generic failure.
type InsufficientStockError struct {
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d units are available for the selected dates", e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// DateConflictError is the fully-booked specialization of insufficient
// stock: existing reservations alone exhaust capacity for the range.
type DateConflictError struct {
	Available int32
}

func (e *DateConflictError) Error() string {
	return "equipment is already booked for the selected dates"
}

func (e *DateConflictError) Is(target error) bool {
	return target == ErrInsufficientStock
}
