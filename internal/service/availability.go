package service

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/utils"
)

// ledger derives availability from overlapping reservations. It carries no
// state of its own; inside a WithEquipmentLock transaction its reads are
// consistent with the locked equipment row.
type ledger struct {
	availRepo repository.AvailabilityRepository
}

// committedUnits sums hard commitments (pending and approved order lines)
// and soft holds (other carts' lines) overlapping [startDate, endDate).
// Lines belonging to excludeCartID are ignored when the caller is about to
// replace its own hold. Activated rentals are absent on purpose: their units
// already left available_quantity.
func (l ledger) committedUnits(ctx context.Context, equipmentID int32, startDate, endDate string, excludeCartID int32) (int32, error) {
	orderUnits, err := l.availRepo.CommittedOrderUnits(ctx, equipmentID, startDate, endDate)
	if err != nil {
		return 0, err
	}
	cartUnits, err := l.availRepo.CommittedCartUnits(ctx, equipmentID, startDate, endDate, excludeCartID)
	if err != nil {
		return 0, err
	}
	return orderUnits + cartUnits, nil
}

// canReserve reports whether quantity units of eq can be newly committed for
// [startDate, endDate). The returned error names the concrete limiting
// factor, including the derived available count on stock failures.
func (l ledger) canReserve(ctx context.Context, eq *domain.Equipment, startDate, endDate string, quantity, excludeCartID int32) error {
	if quantity <= 0 {
		return domain.ErrInvalidRange
	}
	if !eq.IsAvailable {
		return domain.ErrUnavailable
	}

	committed, err := l.committedUnits(ctx, eq.ID, startDate, endDate, excludeCartID)
	if err != nil {
		return err
	}
	available := eq.AvailableQuantity - committed
	if available < 0 {
		available = 0
	}
	if quantity > available {
		if available == 0 && committed > 0 {
			return &domain.DateConflictError{Available: 0}
		}
		return &domain.InsufficientStockError{Available: available}
	}
	return nil
}

type availabilityService struct {
	equipmentRepo repository.EquipmentRepository
	ledger
}

func NewAvailabilityService(equipmentRepo repository.EquipmentRepository, availRepo repository.AvailabilityRepository) AvailabilityService {
	return &availabilityService{
		equipmentRepo: equipmentRepo,
		ledger:        ledger{availRepo: availRepo},
	}
}

func (s *availabilityService) AvailableUnits(ctx context.Context, equipmentID int32, startDate, endDate string) (int32, error) {
	if _, _, err := parseRange(startDate, endDate); err != nil {
		return 0, err
	}
	eq, err := s.equipmentRepo.GetByID(ctx, equipmentID)
	if err != nil {
		return 0, err
	}
	committed, err := s.committedUnits(ctx, equipmentID, startDate, endDate, 0)
	if err != nil {
		return 0, err
	}
	available := eq.AvailableQuantity - committed
	if available < 0 {
		available = 0
	}
	return available, nil
}

// CanReserve is the advisory check exposed to callers outside the booking
// workflow. The workflow itself re-runs the same check under the equipment
// lock, where it is enforced.
func (s *availabilityService) CanReserve(ctx context.Context, equipmentID int32, startDate, endDate string, quantity int32) error {
	if _, _, err := parseRange(startDate, endDate); err != nil {
		return err
	}
	eq, err := s.equipmentRepo.GetByID(ctx, equipmentID)
	if err != nil {
		return err
	}
	return s.canReserve(ctx, eq, startDate, endDate, quantity, 0)
}

// parseRange validates a requested rental range. End must be strictly after
// start: zero-duration and inverted ranges are rejected outright rather than
// priced at zero.
func parseRange(startDate, endDate string) (start, end time.Time, err error) {
	start, err = utils.ParseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	end, err = utils.ParseDate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	return start, end, nil
}
