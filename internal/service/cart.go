package service

import (
	"context"
	"errors"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/utils"
)

type cartService struct {
	cartRepo      repository.CartRepository
	equipmentRepo repository.EquipmentRepository
	locker        repository.Locker
	ledger
}

func NewCartService(
	cartRepo repository.CartRepository,
	equipmentRepo repository.EquipmentRepository,
	availRepo repository.AvailabilityRepository,
	locker repository.Locker,
) CartService {
	return &cartService{
		cartRepo:      cartRepo,
		equipmentRepo: equipmentRepo,
		locker:        locker,
		ledger:        ledger{availRepo: availRepo},
	}
}

// withRetry runs op under the equipment lock, retrying the whole operation
// exactly once when the transaction conflicted. All other errors propagate
// verbatim.
func withRetry(ctx context.Context, locker repository.Locker, equipmentIDs []int32, op func(ctx context.Context) error) error {
	err := locker.WithEquipmentLock(ctx, equipmentIDs, op)
	if errors.Is(err, domain.ErrConcurrentModification) {
		logger.Warn("Retrying after concurrent modification", "equipment_ids", equipmentIDs)
		err = locker.WithEquipmentLock(ctx, equipmentIDs, op)
	}
	return err
}

func (s *cartService) GetCart(ctx context.Context, actor domain.Actor) (*domain.Cart, []domain.CartLine, error) {
	if !actor.CanBook() {
		return nil, nil, domain.ErrForbidden
	}
	cart, err := s.cartRepo.GetOrCreateByUser(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.cartRepo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, nil, err
	}
	return cart, lines, nil
}

func (s *cartService) AddToCart(ctx context.Context, actor domain.Actor, equipmentID, quantity int32, startDate, endDate string) (*domain.CartLine, error) {
	if !actor.CanBook() {
		return nil, domain.ErrForbidden
	}
	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidRange
	}

	cart, err := s.cartRepo.GetOrCreateByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.addLine(ctx, cart, equipmentID, quantity, startDate, endDate, start, end)
}

// CreateAnonymousCart issues a pre-login cart identified only by its token.
// Lines held on it count against availability like any other soft hold and
// move onto the user's cart at login via SyncCart.
func (s *cartService) CreateAnonymousCart(ctx context.Context) (*domain.Cart, error) {
	return s.cartRepo.CreateAnonymous(ctx, "")
}

func (s *cartService) AddToAnonymousCart(ctx context.Context, token string, equipmentID, quantity int32, startDate, endDate string) (*domain.CartLine, error) {
	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidRange
	}
	cart, err := s.cartRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if cart.UserID != nil {
		// A claimed token no longer identifies an anonymous cart.
		return nil, domain.ErrNotFound
	}
	return s.addLine(ctx, cart, equipmentID, quantity, startDate, endDate, start, end)
}

// addLine applies the merge rule under the equipment lock. Inputs are
// validated by the callers.
func (s *cartService) addLine(ctx context.Context, cart *domain.Cart, equipmentID, quantity int32, startDate, endDate string, start, end time.Time) (*domain.CartLine, error) {
	var line *domain.CartLine
	op := func(ctx context.Context) error {
		eq, err := s.equipmentRepo.GetByIDForUpdate(ctx, equipmentID)
		if err != nil {
			return err
		}

		existing, err := s.cartRepo.FindLine(ctx, cart.ID, equipmentID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		// Merge rule: an identical range adds more of the same booking;
		// a different range replaces the prior hold outright.
		desired := quantity
		if existing != nil && existing.StartDate == startDate && existing.EndDate == endDate {
			desired += existing.Quantity
		}

		// The cart's own hold is excluded from the sum because this write
		// supersedes it.
		if err := s.canReserve(ctx, eq, startDate, endDate, desired, cart.ID); err != nil {
			return err
		}

		cost := utils.LineCostCents(desired, eq.HourlyRateCents, start, end)
		if existing != nil {
			existing.Quantity = desired
			existing.StartDate = startDate
			existing.EndDate = endDate
			existing.TotalCostCents = cost
			if err := s.cartRepo.UpdateLine(ctx, existing); err != nil {
				return err
			}
			line = existing
			return nil
		}

		line = &domain.CartLine{
			CartID:         cart.ID,
			EquipmentID:    equipmentID,
			Quantity:       desired,
			StartDate:      startDate,
			EndDate:        endDate,
			TotalCostCents: cost,
		}
		return s.cartRepo.CreateLine(ctx, line)
	}

	if err := withRetry(ctx, s.locker, []int32{equipmentID}, op); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *cartService) UpdateCartLine(ctx context.Context, actor domain.Actor, lineID, quantity int32, startDate, endDate string) (*domain.CartLine, error) {
	if !actor.CanBook() {
		return nil, domain.ErrForbidden
	}
	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidRange
	}

	cart, err := s.cartRepo.GetOrCreateByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	target, err := s.cartRepo.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if target.CartID != cart.ID {
		return nil, domain.ErrNotFound
	}

	op := func(ctx context.Context) error {
		eq, err := s.equipmentRepo.GetByIDForUpdate(ctx, target.EquipmentID)
		if err != nil {
			return err
		}
		if err := s.canReserve(ctx, eq, startDate, endDate, quantity, cart.ID); err != nil {
			return err
		}
		target.Quantity = quantity
		target.StartDate = startDate
		target.EndDate = endDate
		target.TotalCostCents = utils.LineCostCents(quantity, eq.HourlyRateCents, start, end)
		return s.cartRepo.UpdateLine(ctx, target)
	}

	if err := withRetry(ctx, s.locker, []int32{target.EquipmentID}, op); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *cartService) RemoveCartLine(ctx context.Context, actor domain.Actor, lineID int32) error {
	if !actor.CanBook() {
		return domain.ErrForbidden
	}
	cart, err := s.cartRepo.GetOrCreateByUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	line, err := s.cartRepo.GetLine(ctx, lineID)
	if err != nil {
		return err
	}
	if line.CartID != cart.ID {
		return domain.ErrNotFound
	}
	// Releasing a soft hold needs no lock: it only frees capacity.
	return s.cartRepo.DeleteLine(ctx, lineID)
}

func (s *cartService) SyncCart(ctx context.Context, actor domain.Actor, token string) error {
	if !actor.CanBook() {
		return domain.ErrForbidden
	}
	cart, err := s.cartRepo.GetOrCreateByUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	anon, err := s.cartRepo.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if anon.UserID != nil {
		// Only anonymous carts can be merged in; a token pointing at
		// another user's cart is treated as unknown.
		return domain.ErrNotFound
	}

	// No availability check here: the moved lines were already held and
	// checkout re-validates everything anyway. The overwrite just has to be
	// atomic.
	return s.locker.WithEquipmentLock(ctx, nil, func(ctx context.Context) error {
		if err := s.cartRepo.ReplaceLines(ctx, cart.ID, anon.ID); err != nil {
			return err
		}
		return s.cartRepo.Delete(ctx, anon.ID)
	})
}
