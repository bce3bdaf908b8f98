package service

import (
	"context"
	"errors"
	"fmt"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/utils"
)

// ErrEmptyCart is returned by Checkout when the cart holds no lines.
var ErrEmptyCart = errors.New("cart is empty")

type orderService struct {
	orderRepo     repository.OrderRepository
	cartRepo      repository.CartRepository
	equipmentRepo repository.EquipmentRepository
	locker        repository.Locker
	ledger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	equipmentRepo repository.EquipmentRepository,
	availRepo repository.AvailabilityRepository,
	locker repository.Locker,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		cartRepo:      cartRepo,
		equipmentRepo: equipmentRepo,
		locker:        locker,
		ledger:        ledger{availRepo: availRepo},
	}
}

func (s *orderService) Checkout(ctx context.Context, actor domain.Actor) (*domain.Order, []domain.OrderLine, error) {
	if !actor.CanBook() {
		return nil, nil, domain.ErrForbidden
	}
	cart, err := s.cartRepo.GetOrCreateByUser(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	cartLines, err := s.cartRepo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(cartLines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	var order *domain.Order
	var orderLines []domain.OrderLine
	op := func(ctx context.Context) error {
		// Soft holds may have raced since the lines were added; every line
		// is re-validated here, under the lock, before anything is written.
		var total int64
		prepared := make([]domain.OrderLine, 0, len(cartLines))
		for _, cl := range cartLines {
			eq, err := s.equipmentRepo.GetByIDForUpdate(ctx, cl.EquipmentID)
			if err != nil {
				return err
			}
			if err := s.canReserve(ctx, eq, cl.StartDate, cl.EndDate, cl.Quantity, cart.ID); err != nil {
				return fmt.Errorf("%s: %w", eq.Name, err)
			}
			start, end, err := parseRange(cl.StartDate, cl.EndDate)
			if err != nil {
				return err
			}
			cost := utils.LineCostCents(cl.Quantity, eq.HourlyRateCents, start, end)
			prepared = append(prepared, domain.OrderLine{
				EquipmentID:     cl.EquipmentID,
				Quantity:        cl.Quantity,
				StartDate:       cl.StartDate,
				EndDate:         cl.EndDate,
				HourlyRateCents: eq.HourlyRateCents,
				TotalCostCents:  cost,
				Status:          domain.OrderStatusPending,
			})
			total += cost
		}

		o := &domain.Order{
			UserID:        actor.ID,
			Status:        domain.OrderStatusPending,
			PaymentStatus: domain.PaymentStatusUnpaid,
			TotalCents:    total,
		}
		if err := s.orderRepo.Create(ctx, o); err != nil {
			return err
		}
		for i := range prepared {
			prepared[i].OrderID = o.ID
			if err := s.orderRepo.CreateLine(ctx, &prepared[i]); err != nil {
				return err
			}
		}
		if err := s.cartRepo.DeleteLines(ctx, cart.ID); err != nil {
			return err
		}
		order = o
		orderLines = prepared
		return nil
	}

	if err := withRetry(ctx, s.locker, equipmentIDs(cartLines), op); err != nil {
		return nil, nil, err
	}
	logger.Info("Cart promoted to order", "order_id", order.ID, "user_id", actor.ID, "lines", len(orderLines), "total_cents", order.TotalCents)
	return order, orderLines, nil
}

func (s *orderService) GetOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, []domain.OrderLine, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.UserID != actor.ID && !actor.CanManageEquipment() {
		return nil, nil, domain.ErrNotFound
	}
	lines, err := s.orderRepo.ListLines(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, lines, nil
}

func (s *orderService) ListOrders(ctx context.Context, actor domain.Actor, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	return s.orderRepo.ListByUser(ctx, actor.ID, status, page, pageSize)
}

func (s *orderService) ApproveOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, error) {
	if !actor.CanManageEquipment() {
		return nil, domain.ErrForbidden
	}
	return s.transitionOrder(ctx, orderID, []domain.OrderStatus{domain.OrderStatusPending}, domain.OrderStatusApproved)
}

func (s *orderService) RejectOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, error) {
	if !actor.CanManageEquipment() {
		return nil, domain.ErrForbidden
	}
	return s.transitionOrder(ctx, orderID, []domain.OrderStatus{domain.OrderStatusPending}, domain.OrderStatusRejected)
}

func (s *orderService) ReturnOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, error) {
	if !actor.CanManageEquipment() {
		return nil, domain.ErrForbidden
	}
	return s.transitionOrder(ctx, orderID, []domain.OrderStatus{domain.OrderStatusRented}, domain.OrderStatusReturned)
}

// transitionOrder applies a status-guarded transition to the order and each
// of its lines. The guard makes repeated calls no-ops.
func (s *orderService) transitionOrder(ctx context.Context, orderID int32, from []domain.OrderStatus, to domain.OrderStatus) (*domain.Order, error) {
	var order *domain.Order
	err := s.locker.WithEquipmentLock(ctx, nil, func(ctx context.Context) error {
		moved, err := s.orderRepo.UpdateStatusIf(ctx, orderID, from, to)
		if err != nil {
			return err
		}
		if !moved {
			o, err := s.orderRepo.GetByID(ctx, orderID)
			if err != nil {
				return err
			}
			return fmt.Errorf("order is %s, expected one of %v", o.Status, from)
		}
		lines, err := s.orderRepo.ListLines(ctx, orderID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			for _, f := range from {
				if _, err := s.orderRepo.UpdateLineStatusIf(ctx, line.ID, f, to); err != nil {
					return err
				}
			}
		}
		order, err = s.orderRepo.GetByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, actor domain.Actor, orderID int32) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.ID && !actor.CanManageEquipment() {
		return nil, domain.ErrNotFound
	}

	lines, err := s.orderRepo.ListLines(ctx, orderID)
	if err != nil {
		return nil, err
	}

	op := func(ctx context.Context) error {
		cancellable := []domain.OrderStatus{
			domain.OrderStatusPending,
			domain.OrderStatusApproved,
			domain.OrderStatusRented,
			domain.OrderStatusReturned,
		}
		moved, err := s.orderRepo.UpdateStatusIf(ctx, orderID, cancellable, domain.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("order is %s and can no longer be cancelled", order.Status)
		}
		for _, line := range lines {
			for _, from := range cancellable {
				changed, err := s.orderRepo.UpdateLineStatusIf(ctx, line.ID, from, domain.OrderStatusCancelled)
				if err != nil {
					return err
				}
				if !changed {
					continue
				}
				// Units already handed out physically must come back into
				// the pool; pending and approved lines never left it, so
				// dropping their line is enough.
				if from == domain.OrderStatusRented || from == domain.OrderStatusReturned {
					if err := s.equipmentRepo.AdjustQuantity(ctx, line.EquipmentID, line.Quantity); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	if err := withRetry(ctx, s.locker, equipmentIDs(nil, lines...), op); err != nil {
		return nil, err
	}
	logger.Info("Order cancelled", "order_id", orderID, "user_id", actor.ID)
	return s.orderRepo.GetByID(ctx, orderID)
}

func (s *orderService) Reorder(ctx context.Context, actor domain.Actor, orderID int32, startDate, endDate string) (*domain.Order, []domain.OrderLine, error) {
	if !actor.CanBook() {
		return nil, nil, domain.ErrForbidden
	}
	// The original dates are necessarily in the past or re-let, so a fresh
	// range is required instead of copying them.
	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, nil, err
	}

	prior, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if prior.UserID != actor.ID {
		return nil, nil, domain.ErrNotFound
	}
	priorLines, err := s.orderRepo.ListLines(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if len(priorLines) == 0 {
		return nil, nil, ErrEmptyCart
	}

	var order *domain.Order
	var orderLines []domain.OrderLine
	op := func(ctx context.Context) error {
		var total int64
		prepared := make([]domain.OrderLine, 0, len(priorLines))
		for _, pl := range priorLines {
			eq, err := s.equipmentRepo.GetByIDForUpdate(ctx, pl.EquipmentID)
			if err != nil {
				return err
			}
			if err := s.canReserve(ctx, eq, startDate, endDate, pl.Quantity, 0); err != nil {
				return fmt.Errorf("%s: %w", eq.Name, err)
			}
			cost := utils.LineCostCents(pl.Quantity, eq.HourlyRateCents, start, end)
			prepared = append(prepared, domain.OrderLine{
				EquipmentID:     pl.EquipmentID,
				Quantity:        pl.Quantity,
				StartDate:       startDate,
				EndDate:         endDate,
				HourlyRateCents: eq.HourlyRateCents,
				TotalCostCents:  cost,
				Status:          domain.OrderStatusPending,
			})
			total += cost
		}

		o := &domain.Order{
			UserID:        actor.ID,
			Status:        domain.OrderStatusPending,
			PaymentStatus: domain.PaymentStatusUnpaid,
			TotalCents:    total,
		}
		if err := s.orderRepo.Create(ctx, o); err != nil {
			return err
		}
		for i := range prepared {
			prepared[i].OrderID = o.ID
			if err := s.orderRepo.CreateLine(ctx, &prepared[i]); err != nil {
				return err
			}
		}
		order = o
		orderLines = prepared
		return nil
	}

	if err := withRetry(ctx, s.locker, equipmentIDs(nil, priorLines...), op); err != nil {
		return nil, nil, err
	}
	return order, orderLines, nil
}

func (s *orderService) RecordPayment(ctx context.Context, orderID int32, status domain.PaymentStatus) error {
	// A failed payment leaves the order pending and unpaid; its committed
	// units stay held until the order is cancelled.
	return s.orderRepo.SetPaymentStatus(ctx, orderID, status)
}

// equipmentIDs collects the distinct equipment ids referenced by cart or
// order lines, for the lock acquisition set.
func equipmentIDs(cartLines []domain.CartLine, orderLines ...domain.OrderLine) []int32 {
	seen := make(map[int32]bool)
	var ids []int32
	for _, l := range cartLines {
		if !seen[l.EquipmentID] {
			seen[l.EquipmentID] = true
			ids = append(ids, l.EquipmentID)
		}
	}
	for _, l := range orderLines {
		if !seen[l.EquipmentID] {
			seen[l.EquipmentID] = true
			ids = append(ids, l.EquipmentID)
		}
	}
	return ids
}
