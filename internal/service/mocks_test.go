package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"equiprent-backend/internal/domain"
)

// MockEquipmentRepo
type MockEquipmentRepo struct {
	mock.Mock
}

func (m *MockEquipmentRepo) Create(ctx context.Context, eq *domain.Equipment) error {
	args := m.Called(ctx, eq)
	return args.Error(0)
}
func (m *MockEquipmentRepo) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}
func (m *MockEquipmentRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}
func (m *MockEquipmentRepo) Update(ctx context.Context, eq *domain.Equipment) error {
	args := m.Called(ctx, eq)
	return args.Error(0)
}
func (m *MockEquipmentRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockEquipmentRepo) ListByOwner(ctx context.Context, ownerID, page, pageSize int32) ([]domain.Equipment, int32, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	return args.Get(0).([]domain.Equipment), args.Get(1).(int32), args.Error(2)
}
func (m *MockEquipmentRepo) AdjustQuantity(ctx context.Context, id, delta int32) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

// MockCartRepo
type MockCartRepo struct {
	mock.Mock
}

func (m *MockCartRepo) GetOrCreateByUser(ctx context.Context, userID int32) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}
func (m *MockCartRepo) GetByToken(ctx context.Context, token string) (*domain.Cart, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}
func (m *MockCartRepo) CreateAnonymous(ctx context.Context, token string) (*domain.Cart, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}
func (m *MockCartRepo) Delete(ctx context.Context, cartID int32) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}
func (m *MockCartRepo) FindLine(ctx context.Context, cartID, equipmentID int32) (*domain.CartLine, error) {
	args := m.Called(ctx, cartID, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartLine), args.Error(1)
}
func (m *MockCartRepo) GetLine(ctx context.Context, lineID int32) (*domain.CartLine, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartLine), args.Error(1)
}
func (m *MockCartRepo) ListLines(ctx context.Context, cartID int32) ([]domain.CartLine, error) {
	args := m.Called(ctx, cartID)
	return args.Get(0).([]domain.CartLine), args.Error(1)
}
func (m *MockCartRepo) CreateLine(ctx context.Context, line *domain.CartLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}
func (m *MockCartRepo) UpdateLine(ctx context.Context, line *domain.CartLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}
func (m *MockCartRepo) DeleteLine(ctx context.Context, lineID int32) error {
	args := m.Called(ctx, lineID)
	return args.Error(0)
}
func (m *MockCartRepo) DeleteLines(ctx context.Context, cartID int32) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}
func (m *MockCartRepo) ReplaceLines(ctx context.Context, destCartID, srcCartID int32) error {
	args := m.Called(ctx, destCartID, srcCartID)
	return args.Error(0)
}

// MockOrderRepo
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}
func (m *MockOrderRepo) CreateLine(ctx context.Context, line *domain.OrderLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}
func (m *MockOrderRepo) GetByID(ctx context.Context, id int32) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}
func (m *MockOrderRepo) ListLines(ctx context.Context, orderID int32) ([]domain.OrderLine, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]domain.OrderLine), args.Error(1)
}
func (m *MockOrderRepo) ListByUser(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	args := m.Called(ctx, userID, status, page, pageSize)
	return args.Get(0).([]domain.Order), args.Get(1).(int32), args.Error(2)
}
func (m *MockOrderRepo) SetPaymentStatus(ctx context.Context, orderID int32, status domain.PaymentStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}
func (m *MockOrderRepo) UpdateStatusIf(ctx context.Context, orderID int32, from []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}
func (m *MockOrderRepo) UpdateLineStatusIf(ctx context.Context, lineID int32, from, to domain.OrderStatus) (bool, error) {
	args := m.Called(ctx, lineID, from, to)
	return args.Bool(0), args.Error(1)
}

// MockAvailabilityRepo
type MockAvailabilityRepo struct {
	mock.Mock
}

func (m *MockAvailabilityRepo) CommittedOrderUnits(ctx context.Context, equipmentID int32, startDate, endDate string) (int32, error) {
	args := m.Called(ctx, equipmentID, startDate, endDate)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockAvailabilityRepo) CommittedCartUnits(ctx context.Context, equipmentID int32, startDate, endDate string, excludeCartID int32) (int32, error) {
	args := m.Called(ctx, equipmentID, startDate, endDate, excludeCartID)
	return args.Get(0).(int32), args.Error(1)
}

// stubLocker runs the guarded function directly. The first failures calls
// return ErrConcurrentModification without running it, which exercises the
// retry path.
type stubLocker struct {
	failures int
	calls    int
	lockSets [][]int32
}

func (l *stubLocker) WithEquipmentLock(ctx context.Context, equipmentIDs []int32, fn func(ctx context.Context) error) error {
	l.calls++
	l.lockSets = append(l.lockSets, equipmentIDs)
	if l.calls <= l.failures {
		return domain.ErrConcurrentModification
	}
	return fn(ctx)
}
