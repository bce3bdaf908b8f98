package postgres

import (
	"context"
	"database/sql"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"

	"github.com/lib/pq"
)

type equipmentRepository struct {
	db *sql.DB
}

func NewEquipmentRepository(db *sql.DB) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

const equipmentColumns = `id, owner_id, name, description, category, hourly_rate_cents, available_quantity, is_available, created_on, updated_on`

func (r *equipmentRepository) Create(ctx context.Context, eq *domain.Equipment) error {
	query := `INSERT INTO equipment (owner_id, name, description, category, hourly_rate_cents, available_quantity, is_available, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now()
	err := q(ctx, r.db).QueryRowContext(ctx, query, eq.OwnerID, eq.Name, eq.Description, eq.Category, eq.HourlyRateCents, eq.AvailableQuantity, eq.IsAvailable, now, now).Scan(&eq.ID)
	return translateError(err)
}

func (r *equipmentRepository) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`
	return r.scanOne(q(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *equipmentRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 FOR UPDATE`
	return r.scanOne(q(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *equipmentRepository) scanOne(row *sql.Row) (*domain.Equipment, error) {
	eq := &domain.Equipment{}
	var createdOn, updatedOn time.Time
	err := row.Scan(&eq.ID, &eq.OwnerID, &eq.Name, &eq.Description, &eq.Category, &eq.HourlyRateCents, &eq.AvailableQuantity, &eq.IsAvailable, &createdOn, &updatedOn)
	if err != nil {
		return nil, translateError(err)
	}
	eq.CreatedOn = createdOn.Format("2006-01-02")
	eq.UpdatedOn = updatedOn.Format("2006-01-02")
	return eq, nil
}

func (r *equipmentRepository) Update(ctx context.Context, eq *domain.Equipment) error {
	query := `UPDATE equipment SET name=$1, description=$2, category=$3, hourly_rate_cents=$4, available_quantity=$5, is_available=$6, updated_on=$7 WHERE id=$8`
	res, err := q(ctx, r.db).ExecContext(ctx, query, eq.Name, eq.Description, eq.Category, eq.HourlyRateCents, eq.AvailableQuantity, eq.IsAvailable, time.Now(), eq.ID)
	if err != nil {
		return translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) Delete(ctx context.Context, id int32) error {
	// Protected delete: refuse while any cart line or live order line still
	// references the equipment.
	var inUse bool
	guard := `SELECT EXISTS (SELECT 1 FROM cart_lines WHERE equipment_id = $1)
	              OR EXISTS (SELECT 1 FROM order_lines WHERE equipment_id = $1 AND status = ANY($2))`
	if err := q(ctx, r.db).QueryRowContext(ctx, guard, id, pq.Array(statusStrings(domain.LiveLineStatuses))).Scan(&inUse); err != nil {
		return translateError(err)
	}
	if inUse {
		return domain.ErrEquipmentInUse
	}

	res, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) ListByOwner(ctx context.Context, ownerID, page, pageSize int32) ([]domain.Equipment, int32, error) {
	offset := (page - 1) * pageSize

	var count int32
	countQuery := `SELECT count(*) FROM equipment WHERE owner_id = $1`
	if err := q(ctx, r.db).QueryRowContext(ctx, countQuery, ownerID).Scan(&count); err != nil {
		return nil, 0, translateError(err)
	}

	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE owner_id = $1 ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, ownerID, pageSize, offset)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	var items []domain.Equipment
	for rows.Next() {
		var eq domain.Equipment
		var createdOn, updatedOn time.Time
		if err := rows.Scan(&eq.ID, &eq.OwnerID, &eq.Name, &eq.Description, &eq.Category, &eq.HourlyRateCents, &eq.AvailableQuantity, &eq.IsAvailable, &createdOn, &updatedOn); err != nil {
			return nil, 0, translateError(err)
		}
		eq.CreatedOn = createdOn.Format("2006-01-02")
		eq.UpdatedOn = updatedOn.Format("2006-01-02")
		items = append(items, eq)
	}
	return items, count, rows.Err()
}

func (r *equipmentRepository) AdjustQuantity(ctx context.Context, id, delta int32) error {
	query := `UPDATE equipment SET available_quantity = GREATEST(available_quantity + $1, 0), updated_on = $2 WHERE id = $3`
	res, err := q(ctx, r.db).ExecContext(ctx, query, delta, time.Now(), id)
	if err != nil {
		return translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
