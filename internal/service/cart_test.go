package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
)

var (
	lessee = domain.Actor{ID: 1, Role: domain.RoleLessee}
	lessor = domain.Actor{ID: 10, Role: domain.RoleLessor}
)

func TestCartService_AddToCart(t *testing.T) {
	ctx := context.Background()
	equipmentID := int32(7)
	start := "2026-03-01"
	end := "2026-03-03"

	cart := &domain.Cart{ID: 4, UserID: &lessee.ID}
	eq := &domain.Equipment{
		ID:                equipmentID,
		Name:              "Excavator",
		HourlyRateCents:   100,
		AvailableQuantity: 5,
		IsAvailable:       true,
	}

	t.Run("Creates a new line", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		equipmentRepo := new(MockEquipmentRepo)
		availRepo := new(MockAvailabilityRepo)
		locker := &stubLocker{}
		svc := service.NewCartService(cartRepo, equipmentRepo, availRepo, locker)

		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		equipmentRepo.On("GetByIDForUpdate", ctx, equipmentID).Return(eq, nil)
		cartRepo.On("FindLine", ctx, cart.ID, equipmentID).Return(nil, domain.ErrNotFound)
		availRepo.On("CommittedOrderUnits", ctx, equipmentID, start, end).Return(int32(0), nil)
		availRepo.On("CommittedCartUnits", ctx, equipmentID, start, end, cart.ID).Return(int32(0), nil)
		cartRepo.On("CreateLine", ctx, mock.AnythingOfType("*domain.CartLine")).Return(nil)

		line, err := svc.AddToCart(ctx, lessee, equipmentID, 2, start, end)
		assert.NoError(t, err)
		assert.Equal(t, int32(2), line.Quantity)
		// 2 units * 100 cents/hour * 48 hours
		assert.Equal(t, int64(9600), line.TotalCostCents)
		assert.Equal(t, []int32{equipmentID}, locker.lockSets[0])
	})

	t.Run("Identical range increments quantity", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		equipmentRepo := new(MockEquipmentRepo)
		availRepo := new(MockAvailabilityRepo)
		svc := service.NewCartService(cartRepo, equipmentRepo, availRepo, &stubLocker{})

		existing := &domain.CartLine{ID: 9, CartID: cart.ID, EquipmentID: equipmentID, Quantity: 1, StartDate: start, EndDate: end}

		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		equipmentRepo.On("GetByIDForUpdate", ctx, equipmentID).Return(eq, nil)
		cartRepo.On("FindLine", ctx, cart.ID, equipmentID).Return(existing, nil)
		availRepo.On("CommittedOrderUnits", ctx, equipmentID, start, end).Return(int32(0), nil)
		availRepo.On("CommittedCartUnits", ctx, equipmentID, start, end, cart.ID).Return(int32(0), nil)
		cartRepo.On("UpdateLine", ctx, existing).Return(nil)

		line, err := svc.AddToCart(ctx, lessee, equipmentID, 2, start, end)
		assert.NoError(t, err)
		assert.Equal(t, int32(3), line.Quantity)
	})

	t.Run("Different range replaces the hold", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		equipmentRepo := new(MockEquipmentRepo)
		availRepo := new(MockAvailabilityRepo)
		svc := service.NewCartService(cartRepo, equipmentRepo, availRepo, &stubLocker{})

		newStart := "2026-04-01"
		newEnd := "2026-04-02"
		existing := &domain.CartLine{ID: 9, CartID: cart.ID, EquipmentID: equipmentID, Quantity: 3, StartDate: start, EndDate: end}

		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		equipmentRepo.On("GetByIDForUpdate", ctx, equipmentID).Return(eq, nil)
		cartRepo.On("FindLine", ctx, cart.ID, equipmentID).Return(existing, nil)
		availRepo.On("CommittedOrderUnits", ctx, equipmentID, newStart, newEnd).Return(int32(0), nil)
		availRepo.On("CommittedCartUnits", ctx, equipmentID, newStart, newEnd, cart.ID).Return(int32(0), nil)
		cartRepo.On("UpdateLine", ctx, existing).Return(nil)

		line, err := svc.AddToCart(ctx, lessee, equipmentID, 1, newStart, newEnd)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), line.Quantity)
		assert.Equal(t, newStart, line.StartDate)
		assert.Equal(t, newEnd, line.EndDate)
	})

	t.Run("Insufficient stock leaves cart untouched", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		equipmentRepo := new(MockEquipmentRepo)
		availRepo := new(MockAvailabilityRepo)
		svc := service.NewCartService(cartRepo, equipmentRepo, availRepo, &stubLocker{})

		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		equipmentRepo.On("GetByIDForUpdate", ctx, equipmentID).Return(eq, nil)
		cartRepo.On("FindLine", ctx, cart.ID, equipmentID).Return(nil, domain.ErrNotFound)
		availRepo.On("CommittedOrderUnits", ctx, equipmentID, start, end).Return(int32(4), nil)
		availRepo.On("CommittedCartUnits", ctx, equipmentID, start, end, cart.ID).Return(int32(0), nil)

		_, err := svc.AddToCart(ctx, lessee, equipmentID, 2, start, end)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		cartRepo.AssertNotCalled(t, "CreateLine", mock.Anything, mock.Anything)
	})

	t.Run("Retries once after a lock conflict", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		equipmentRepo := new(MockEquipmentRepo)
		availRepo := new(MockAvailabilityRepo)
		locker := &stubLocker{failures: 1}
		svc := service.NewCartService(cartRepo, equipmentRepo, availRepo, locker)

		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		equipmentRepo.On("GetByIDForUpdate", ctx, equipmentID).Return(eq, nil)
		cartRepo.On("FindLine", ctx, cart.ID, equipmentID).Return(nil, domain.ErrNotFound)
		availRepo.On("CommittedOrderUnits", ctx, equipmentID, start, end).Return(int32(0), nil)
		availRepo.On("CommittedCartUnits", ctx, equipmentID, start, end, cart.ID).Return(int32(0), nil)
		cartRepo.On("CreateLine", ctx, mock.AnythingOfType("*domain.CartLine")).Return(nil)

		_, err := svc.AddToCart(ctx, lessee, equipmentID, 1, start, end)
		assert.NoError(t, err)
		assert.Equal(t, 2, locker.calls)
	})

	t.Run("Gives up after the second conflict", func(t *testing.T) {
		locker := &stubLocker{failures: 2}
		cartRepo := new(MockCartRepo)
		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		svc := service.NewCartService(cartRepo, new(MockEquipmentRepo), new(MockAvailabilityRepo), locker)

		_, err := svc.AddToCart(ctx, lessee, equipmentID, 1, start, end)
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
		assert.Equal(t, 2, locker.calls)
	})

	t.Run("Invalid range and quantity", func(t *testing.T) {
		svc := service.NewCartService(new(MockCartRepo), new(MockEquipmentRepo), new(MockAvailabilityRepo), &stubLocker{})

		_, err := svc.AddToCart(ctx, lessee, equipmentID, 1, end, start)
		assert.ErrorIs(t, err, domain.ErrInvalidRange)

		_, err = svc.AddToCart(ctx, lessee, equipmentID, 1, start, start)
		assert.ErrorIs(t, err, domain.ErrInvalidRange)

		_, err = svc.AddToCart(ctx, lessee, equipmentID, 0, start, end)
		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})

	t.Run("Lessor cannot book", func(t *testing.T) {
		svc := service.NewCartService(new(MockCartRepo), new(MockEquipmentRepo), new(MockAvailabilityRepo), &stubLocker{})

		_, err := svc.AddToCart(ctx, lessor, equipmentID, 1, start, end)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestCartService_UpdateCartLine(t *testing.T) {
	ctx := context.Background()
	cart := &domain.Cart{ID: 4, UserID: &lessee.ID}
	eq := &domain.Equipment{ID: 7, HourlyRateCents: 100, AvailableQuantity: 5, IsAvailable: true}
	start := "2026-03-01"
	end := "2026-03-02"

	t.Run("Replaces quantity and dates", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		equipmentRepo := new(MockEquipmentRepo)
		availRepo := new(MockAvailabilityRepo)
		svc := service.NewCartService(cartRepo, equipmentRepo, availRepo, &stubLocker{})

		target := &domain.CartLine{ID: 9, CartID: cart.ID, EquipmentID: eq.ID, Quantity: 1}

		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		cartRepo.On("GetLine", ctx, target.ID).Return(target, nil)
		equipmentRepo.On("GetByIDForUpdate", ctx, eq.ID).Return(eq, nil)
		availRepo.On("CommittedOrderUnits", ctx, eq.ID, start, end).Return(int32(0), nil)
		availRepo.On("CommittedCartUnits", ctx, eq.ID, start, end, cart.ID).Return(int32(0), nil)
		cartRepo.On("UpdateLine", ctx, target).Return(nil)

		line, err := svc.UpdateCartLine(ctx, lessee, target.ID, 3, start, end)
		assert.NoError(t, err)
		assert.Equal(t, int32(3), line.Quantity)
		assert.Equal(t, int64(3*100*24), line.TotalCostCents)
	})

	t.Run("Another user's line is invisible", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		svc := service.NewCartService(cartRepo, new(MockEquipmentRepo), new(MockAvailabilityRepo), &stubLocker{})

		foreign := &domain.CartLine{ID: 9, CartID: 99, EquipmentID: eq.ID}
		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		cartRepo.On("GetLine", ctx, foreign.ID).Return(foreign, nil)

		_, err := svc.UpdateCartLine(ctx, lessee, foreign.ID, 2, start, end)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCartService_RemoveCartLine(t *testing.T) {
	ctx := context.Background()
	cart := &domain.Cart{ID: 4, UserID: &lessee.ID}

	t.Run("Deletes own line without locking", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		locker := &stubLocker{}
		svc := service.NewCartService(cartRepo, new(MockEquipmentRepo), new(MockAvailabilityRepo), locker)

		line := &domain.CartLine{ID: 9, CartID: cart.ID}
		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		cartRepo.On("GetLine", ctx, line.ID).Return(line, nil)
		cartRepo.On("DeleteLine", ctx, line.ID).Return(nil)

		assert.NoError(t, svc.RemoveCartLine(ctx, lessee, line.ID))
		assert.Equal(t, 0, locker.calls)
	})
}

func TestCartService_AnonymousCart(t *testing.T) {
	ctx := context.Background()
	token := "tok-anon"
	equipmentID := int32(7)
	start := "2026-03-01"
	end := "2026-03-03"

	anon := &domain.Cart{ID: 8, Token: token}
	eq := &domain.Equipment{
		ID:                equipmentID,
		Name:              "Excavator",
		HourlyRateCents:   100,
		AvailableQuantity: 5,
		IsAvailable:       true,
	}

	t.Run("Created without a user", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		svc := service.NewCartService(cartRepo, new(MockEquipmentRepo), new(MockAvailabilityRepo), &stubLocker{})

		cartRepo.On("CreateAnonymous", ctx, "").Return(anon, nil)

		cart, err := svc.CreateAnonymousCart(ctx)
		assert.NoError(t, err)
		assert.Nil(t, cart.UserID)
		assert.Equal(t, token, cart.Token)
	})

	t.Run("Holds units by token alone", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		equipmentRepo := new(MockEquipmentRepo)
		availRepo := new(MockAvailabilityRepo)
		locker := &stubLocker{}
		svc := service.NewCartService(cartRepo, equipmentRepo, availRepo, locker)

		cartRepo.On("GetByToken", ctx, token).Return(anon, nil)
		equipmentRepo.On("GetByIDForUpdate", ctx, equipmentID).Return(eq, nil)
		cartRepo.On("FindLine", ctx, anon.ID, equipmentID).Return(nil, domain.ErrNotFound)
		availRepo.On("CommittedOrderUnits", ctx, equipmentID, start, end).Return(int32(0), nil)
		availRepo.On("CommittedCartUnits", ctx, equipmentID, start, end, anon.ID).Return(int32(0), nil)
		cartRepo.On("CreateLine", ctx, mock.AnythingOfType("*domain.CartLine")).Return(nil)

		line, err := svc.AddToAnonymousCart(ctx, token, equipmentID, 2, start, end)
		assert.NoError(t, err)
		assert.Equal(t, anon.ID, line.CartID)
		assert.Equal(t, int32(2), line.Quantity)
		assert.Equal(t, []int32{equipmentID}, locker.lockSets[0])
	})

	t.Run("Claimed token is unknown", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		svc := service.NewCartService(cartRepo, new(MockEquipmentRepo), new(MockAvailabilityRepo), &stubLocker{})

		otherID := int32(55)
		claimed := &domain.Cart{ID: 8, UserID: &otherID, Token: token}
		cartRepo.On("GetByToken", ctx, token).Return(claimed, nil)

		_, err := svc.AddToAnonymousCart(ctx, token, equipmentID, 1, start, end)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		cartRepo.AssertNotCalled(t, "CreateLine", mock.Anything, mock.Anything)
	})

	t.Run("Invalid range rejected before any lookup", func(t *testing.T) {
		svc := service.NewCartService(new(MockCartRepo), new(MockEquipmentRepo), new(MockAvailabilityRepo), &stubLocker{})

		_, err := svc.AddToAnonymousCart(ctx, token, equipmentID, 1, end, start)
		assert.ErrorIs(t, err, domain.ErrInvalidRange)
	})
}

func TestCartService_SyncCart(t *testing.T) {
	ctx := context.Background()
	cart := &domain.Cart{ID: 4, UserID: &lessee.ID}
	token := "anon-token"

	t.Run("Overwrites user cart with anonymous lines", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		svc := service.NewCartService(cartRepo, new(MockEquipmentRepo), new(MockAvailabilityRepo), &stubLocker{})

		anon := &domain.Cart{ID: 8, Token: token}
		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		cartRepo.On("GetByToken", ctx, token).Return(anon, nil)
		cartRepo.On("ReplaceLines", ctx, cart.ID, anon.ID).Return(nil)
		cartRepo.On("Delete", ctx, anon.ID).Return(nil)

		assert.NoError(t, svc.SyncCart(ctx, lessee, token))
		cartRepo.AssertExpectations(t)
	})

	t.Run("Token bound to another user is unknown", func(t *testing.T) {
		cartRepo := new(MockCartRepo)
		svc := service.NewCartService(cartRepo, new(MockEquipmentRepo), new(MockAvailabilityRepo), &stubLocker{})

		otherID := int32(55)
		claimed := &domain.Cart{ID: 8, UserID: &otherID, Token: token}
		cartRepo.On("GetOrCreateByUser", ctx, lessee.ID).Return(cart, nil)
		cartRepo.On("GetByToken", ctx, token).Return(claimed, nil)

		err := svc.SyncCart(ctx, lessee, token)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		cartRepo.AssertNotCalled(t, "ReplaceLines", mock.Anything, mock.Anything, mock.Anything)
	})
}
