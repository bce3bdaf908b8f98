package service

import (
	"context"
	"fmt"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type equipmentService struct {
	equipmentRepo repository.EquipmentRepository
}

func NewEquipmentService(equipmentRepo repository.EquipmentRepository) EquipmentService {
	return &equipmentService{equipmentRepo: equipmentRepo}
}

func (s *equipmentService) AddEquipment(ctx context.Context, actor domain.Actor, eq *domain.Equipment) error {
	if !actor.CanManageEquipment() {
		return domain.ErrForbidden
	}
	if eq.HourlyRateCents < 0 || eq.AvailableQuantity < 0 {
		return fmt.Errorf("rate and quantity must be non-negative: %w", domain.ErrInvalidRange)
	}
	eq.OwnerID = actor.ID
	return s.equipmentRepo.Create(ctx, eq)
}

func (s *equipmentService) GetEquipment(ctx context.Context, id int32) (*domain.Equipment, error) {
	return s.equipmentRepo.GetByID(ctx, id)
}

func (s *equipmentService) UpdateEquipment(ctx context.Context, actor domain.Actor, eq *domain.Equipment) error {
	if !actor.CanManageEquipment() {
		return domain.ErrForbidden
	}
	current, err := s.equipmentRepo.GetByID(ctx, eq.ID)
	if err != nil {
		return err
	}
	if current.OwnerID != actor.ID {
		return domain.ErrNotFound
	}
	if eq.HourlyRateCents < 0 || eq.AvailableQuantity < 0 {
		return fmt.Errorf("rate and quantity must be non-negative: %w", domain.ErrInvalidRange)
	}
	return s.equipmentRepo.Update(ctx, eq)
}

func (s *equipmentService) RemoveEquipment(ctx context.Context, actor domain.Actor, id int32) error {
	if !actor.CanManageEquipment() {
		return domain.ErrForbidden
	}
	current, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.OwnerID != actor.ID {
		return domain.ErrNotFound
	}
	return s.equipmentRepo.Delete(ctx, id)
}

func (s *equipmentService) ListMyEquipment(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Equipment, int32, error) {
	if !actor.CanManageEquipment() {
		return nil, 0, domain.ErrForbidden
	}
	return s.equipmentRepo.ListByOwner(ctx, actor.ID, page, pageSize)
}
